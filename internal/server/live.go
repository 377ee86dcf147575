package server

import (
	"net/http"
	"sort"
	"strings"

	"learnhub/internal/models"
)

// handleLiveSessions lists live-session materials, soonest first. Sessions
// without a start time go last.
func (s *Server) handleLiveSessions(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(r.URL.Query().Get("courseId"))

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	sessions, err := s.store.MaterialsByType(ctx, models.MaterialLiveSession, courseID)
	if err != nil {
		s.serverError(w, r, "list live sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.Material{}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].StartsAt, sessions[j].StartsAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})

	writeOK(w, http.StatusOK, envelope{"sessions": sessions, "count": len(sessions)})
}
