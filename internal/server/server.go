package server

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"learnhub/internal/config"
	"learnhub/internal/storage"
)

// PaymentChecker asks the payment service for the current status of a
// registration.
type PaymentChecker interface {
	Status(ctx context.Context, registrationID string) (string, error)
}

type Server struct {
	store     storage.Store
	payments  PaymentChecker
	sessions  *sessions.CookieStore
	log       *slog.Logger
	port      string
	staticDir string
	devMode   bool

	rateMu    sync.Mutex
	rateByIP  map[string][]time.Time
	rateSwept time.Time

	emailRegex *regexp.Regexp
	router     *chi.Mux
	now        func() time.Time
}

func New(cfg config.Config, store storage.Store, payments PaymentChecker) *Server {
	s := &Server{
		store:      store,
		payments:   payments,
		sessions:   newCookieStore([]byte(cfg.SessionKey), cfg.DevMode),
		log:        slog.Default().With(slog.String("component", "server")),
		port:       cfg.Port,
		staticDir:  cfg.StaticDir,
		devMode:    cfg.DevMode,
		rateByIP:   make(map[string][]time.Time),
		emailRegex: regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`),
		now:        func() time.Time { return time.Now().UTC() },
	}
	s.setupRouter()
	return s
}

// storeCtx bounds a single storage call made on behalf of r.
func storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}
