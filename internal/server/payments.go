package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

// handlePaymentStatus asks the payment service about a registration and
// stores the answer when it differs from what we have.
func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	id := chi.URLParam(r, "registrationId")

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	reg, err := s.store.Registration(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Registration not found")
		return
	}
	if err != nil {
		s.serverError(w, r, "load registration", err)
		return
	}
	if models.NormalizeEmail(reg.Email) != models.NormalizeEmail(u.Email) && u.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	status, err := s.payments.Status(r.Context(), id)
	if err != nil {
		s.log.Error("payment status check failed",
			slog.String("registration_id", id),
			slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "Payment service unavailable")
		return
	}

	updated := false
	if status != reg.PaymentStatus {
		uctx, ucancel := storeCtx(r.Context())
		defer ucancel()
		if err := s.store.UpdatePaymentStatus(uctx, id, status, s.now()); err != nil {
			s.serverError(w, r, "update payment status", err)
			return
		}
		updated = true
	}

	writeOK(w, http.StatusOK, envelope{"registrationId": id, "status": status, "updated": updated})
}
