package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	docs, err := s.store.ListUsers(ctx)
	if err != nil {
		s.serverError(w, r, "list users", err)
		return
	}

	users := make([]adminUserResp, 0, len(docs))
	for _, u := range docs {
		users = append(users, adminUserResp{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
		})
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})

	writeOK(w, http.StatusOK, envelope{"users": users, "count": len(users)})
}

func (s *Server) handleAdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateRoleReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleAdmin {
		writeError(w, http.StatusBadRequest, "Role must be student or admin")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	err := s.store.UpdateUserRole(ctx, id, req.Role)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.serverError(w, r, "update role", err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"id": id, "role": req.Role})
}
