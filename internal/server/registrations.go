package server

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func sortNewestFirst(regs []models.Registration) {
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
}

func (s *Server) handleCreateRegistration(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req createRegistrationReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "courseId is required")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	existing, err := s.store.RegistrationsByEmail(ctx, u.Email)
	if err != nil {
		s.serverError(w, r, "list registrations", err)
		return
	}
	for _, reg := range existing {
		if reg.CourseID == req.CourseID {
			writeError(w, http.StatusConflict, "Already registered for this course")
			return
		}
	}

	now := s.now()
	reg := &models.Registration{
		ID:            uuid.NewString(),
		Email:         models.NormalizeEmail(u.Email),
		CourseID:      req.CourseID,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateRegistration(ctx, reg); err != nil {
		s.serverError(w, r, "create registration", err)
		return
	}

	writeOK(w, http.StatusCreated, envelope{"registration": reg})
}

func (s *Server) handleListRegistrations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	regs, err := s.store.ListRegistrations(ctx)
	if err != nil {
		s.serverError(w, r, "list registrations", err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	sortNewestFirst(regs)

	writeOK(w, http.StatusOK, envelope{"registrations": regs, "count": len(regs)})
}

// handleUpdateRegistrationStatus overwrites the payment status. Any value is
// accepted; there is no transition check.
func (s *Server) handleUpdateRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Status = strings.TrimSpace(req.Status)
	if req.ID == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "id and status are required")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	now := s.now()
	err := s.store.UpdatePaymentStatus(ctx, req.ID, req.Status, now)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		s.serverError(w, r, "update payment status", err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"id": req.ID, "status": req.Status, "updatedAt": now})
}

// handleEnrollments lists the registrations of the current user. Admins may
// look up anyone with ?email=.
func (s *Server) handleEnrollments(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	email := u.Email
	q := strings.TrimSpace(r.URL.Query().Get("email"))
	if q != "" && models.NormalizeEmail(q) != models.NormalizeEmail(email) {
		if u.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		email = q
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	regs, err := s.store.RegistrationsByEmail(ctx, email)
	if err != nil {
		s.serverError(w, r, "list enrollments", err)
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	sortNewestFirst(regs)

	writeOK(w, http.StatusOK, envelope{"enrollments": regs})
}
