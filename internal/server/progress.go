package server

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func (s *Server) handleProgressCheck(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	materialID := strings.TrimSpace(r.URL.Query().Get("materialId"))
	if materialID == "" {
		writeError(w, http.StatusBadRequest, "materialId is required")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	p, err := s.store.Progress(ctx, u.Email, materialID)
	if errors.Is(err, storage.ErrNotFound) {
		writeOK(w, http.StatusOK, envelope{"completed": false})
		return
	}
	if err != nil {
		s.serverError(w, r, "check progress", err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"completed": true, "completedAt": p.CompletedAt})
}

func (s *Server) handleMarkComplete(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req completeReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.MaterialID = strings.TrimSpace(req.MaterialID)
	if req.CourseID == "" || req.MaterialID == "" {
		writeError(w, http.StatusBadRequest, "courseId and materialId are required")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	already, err := s.markComplete(ctx, u.Email, req.CourseID, req.MaterialID)
	if err != nil {
		s.serverError(w, r, "mark complete", err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"completed": true, "alreadyCompleted": already})
}

// markComplete records a completion once per (email, material). A repeat
// reports already == true and leaves the first record in place, including
// records stored under a random id.
func (s *Server) markComplete(ctx context.Context, email, courseID, materialID string) (already bool, err error) {
	_, err = s.store.Progress(ctx, email, materialID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}

	p := &models.Progress{
		ID:          models.ProgressID(email, materialID),
		Email:       models.NormalizeEmail(email),
		CourseID:    courseID,
		MaterialID:  materialID,
		CompletedAt: s.now(),
	}
	err = s.store.MarkComplete(ctx, p)
	if errors.Is(err, storage.ErrConflict) {
		return true, nil
	}
	return false, err
}

func (s *Server) handleCourseProgress(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	courseID := strings.TrimSpace(r.URL.Query().Get("courseId"))

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	recs, err := s.store.ProgressByCourse(ctx, u.Email, courseID)
	if err != nil {
		s.serverError(w, r, "list progress", err)
		return
	}
	if recs == nil {
		recs = []models.Progress{}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CompletedAt.Before(recs[j].CompletedAt)
	})

	writeOK(w, http.StatusOK, envelope{"progress": recs, "count": len(recs)})
}
