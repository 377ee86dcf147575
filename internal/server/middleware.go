package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

type ctxUserKey struct{}

func (s *Server) withSecurity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set(
			"Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; base-uri 'self'; frame-ancestors 'none'",
		)

		if r.Method == http.MethodPost ||
			r.Method == http.MethodPut ||
			r.Method == http.MethodPatch ||
			r.Method == http.MethodDelete {
			if !isSameOrigin(r) {
				writeError(w, http.StatusForbidden, "Blocked: bad origin")
				return
			}
		}

		if r.URL.Path == "/api/login" || r.URL.Path == "/api/signup" {
			if !s.allowRequest(r) {
				writeError(w, http.StatusTooManyRequests, "Too many requests, try again later")
				return
			}
		}

		next(w, r)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := r.Host
	return origin == "http://"+host || origin == "https://"+host
}

// allowRequest applies a sliding-window limit per client IP.
func (s *Server) allowRequest(r *http.Request) bool {
	ip := clientIP(r)
	now := s.now()

	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	cutoff := now.Add(-loginRateWindow)
	if now.Sub(s.rateSwept) >= loginRateWindow {
		s.sweepRates(cutoff)
		s.rateSwept = now
	}

	hits := s.rateByIP[ip]
	keep := hits[:0]

	for _, t := range hits {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}

	if len(keep) >= loginRateMaxHits {
		s.rateByIP[ip] = keep
		return false
	}

	keep = append(keep, now)
	s.rateByIP[ip] = keep
	return true
}

// sweepRates forgets clients whose latest hit is older than cutoff.
func (s *Server) sweepRates(cutoff time.Time) {
	for ip, hits := range s.rateByIP {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(s.rateByIP, ip)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.authenticate(r)
		if errors.Is(err, errUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			s.serverError(w, r, "authenticate", err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if u.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}

		next(w, r)
	}
}

// requireAdminPage guards HTML pages: anonymous visitors are sent to the
// login page instead of getting a JSON error.
func (s *Server) requireAdminPage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.authenticate(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if u.Role != models.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

var errUnauthenticated = errors.New("unauthenticated")

// authenticate resolves the session to a current user record, so role
// changes and removed accounts apply on the next request.
func (s *Server) authenticate(r *http.Request) (*models.User, error) {
	email, err := s.sessionEmail(r)
	if err != nil {
		return nil, errUnauthenticated
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, errUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxUserKey{}).(*models.User)
	return u, ok && u != nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
