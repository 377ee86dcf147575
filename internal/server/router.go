package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", s.handleHealth)

		api.Post("/signup", s.withSecurity(s.handleSignup))
		api.Post("/login", s.withSecurity(s.handleLogin))
		api.Post("/logout", s.withSecurity(s.handleLogout))
		api.Get("/me", s.withSecurity(s.requireAuth(s.handleMe)))
		api.Put("/update-profile", s.withSecurity(s.requireAuth(s.handleUpdateProfile)))

		api.Post("/registrations", s.withSecurity(s.requireAuth(s.handleCreateRegistration)))
		api.Get("/registrations", s.withSecurity(s.requireAuth(s.requireAdmin(s.handleListRegistrations))))
		api.Put("/registrations/status", s.withSecurity(s.requireAuth(s.requireAdmin(s.handleUpdateRegistrationStatus))))
		api.Get("/enrollments", s.withSecurity(s.requireAuth(s.handleEnrollments)))

		api.Get("/progress", s.withSecurity(s.requireAuth(s.handleCourseProgress)))
		api.Get("/progress/check", s.withSecurity(s.requireAuth(s.handleProgressCheck)))
		api.Post("/progress/complete", s.withSecurity(s.requireAuth(s.handleMarkComplete)))

		api.Get("/quizzes/{id}", s.withSecurity(s.requireAuth(s.handleGetQuiz)))
		api.Post("/quizzes/{id}/submit", s.withSecurity(s.requireAuth(s.handleSubmitQuiz)))
		api.Get("/live-sessions", s.withSecurity(s.requireAuth(s.handleLiveSessions)))
		api.Get("/payments/{registrationId}/status", s.withSecurity(s.requireAuth(s.handlePaymentStatus)))

		api.Route("/admin", func(admin chi.Router) {
			admin.Get("/users", s.withSecurity(s.requireAuth(s.requireAdmin(s.handleAdminListUsers))))
			admin.Put("/users/{id}/role", s.withSecurity(s.requireAuth(s.requireAdmin(s.handleAdminUpdateRole))))
		})
	})

	r.Get("/admin", s.withSecurity(s.requireAdminPage(s.serveFile("admin.html"))))
	r.Get("/", s.serveFile("index.html"))
	r.Get("/login", s.serveFile("login.html"))
	r.Get("/courses", s.serveFile("courses.html"))
	r.Get("/dashboard", s.serveFile("dashboard.html"))
	r.Get("/quiz", s.serveFile("quiz.html"))
	r.Get("/live", s.serveFile("live.html"))
	r.Get("/*", s.serveAnyStatic())

	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", slog.String("addr", "http://localhost:"+s.port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
