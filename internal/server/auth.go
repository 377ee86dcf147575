package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"learnhub/internal/models"
	"learnhub/internal/passwords"
	"learnhub/internal/storage"
)

const invalidCredentials = "Invalid email or password"

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)

	if req.Name == "" || len(req.Name) > 80 {
		writeError(w, http.StatusBadRequest, "Invalid name")
		return
	}
	if !s.emailRegex.MatchString(req.Email) || len(req.Email) > 254 {
		writeError(w, http.StatusBadRequest, "Invalid email")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := passwords.Hash(req.Password)
	if err != nil {
		s.serverError(w, r, "hash password", err)
		return
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Password:  hash,
		Name:      req.Name,
		Role:      models.RoleStudent,
		CreatedAt: s.now(),
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	err = s.store.CreateUser(ctx, u)
	if errors.Is(err, storage.ErrConflict) {
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		s.serverError(w, r, "create user", err)
		return
	}

	if err := s.createSession(w, r, u.Email); err != nil {
		s.serverError(w, r, "create session", err)
		return
	}

	writeOK(w, http.StatusCreated, envelope{"user": newUserResp(u)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	u, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		passwords.Reject(req.Password)
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if err != nil {
		s.serverError(w, r, "load user", err)
		return
	}

	ok, legacy := passwords.Check(u.Password, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if legacy {
		s.log.Warn("plaintext password on record, run lmsctl hash-passwords",
			slog.String("user_id", u.ID))
	}

	if err := s.createSession(w, r, u.Email); err != nil {
		s.serverError(w, r, "create session", err)
		return
	}

	writeOK(w, http.StatusOK, envelope{"user": newUserResp(u)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.clearSession(w, r); err != nil {
		s.serverError(w, r, "clear session", err)
		return
	}
	writeOK(w, http.StatusOK, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	writeOK(w, http.StatusOK, envelope{"user": newUserResp(u)})
}

// handleUpdateProfile renames the current user. Registrations and progress
// are keyed by email, so the email is fixed once the account exists.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req updateProfileReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = models.NormalizeEmail(req.Email)

	if req.Name == "" || len(req.Name) > 80 {
		writeError(w, http.StatusBadRequest, "Invalid name")
		return
	}
	if req.Email != "" && req.Email != models.NormalizeEmail(u.Email) {
		writeError(w, http.StatusBadRequest, "Email cannot be changed")
		return
	}

	ctx, cancel := storeCtx(r.Context())
	defer cancel()

	if req.Name != u.Name {
		if err := s.store.UpdateUserName(ctx, u.ID, req.Name); err != nil {
			s.serverError(w, r, "update name", err)
			return
		}
	}

	updated := *u
	updated.Name = req.Name
	writeOK(w, http.StatusOK, envelope{"user": newUserResp(&updated)})
}
