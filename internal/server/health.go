package server

import (
	"context"
	"log/slog"
	"net/http"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.Warn("store ping failed", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	writeOK(w, http.StatusOK, envelope{"store": "ok"})
}
