// Package maintenance holds the one-off store operations run by lmsctl.
package maintenance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"learnhub/internal/models"
	"learnhub/internal/passwords"
	"learnhub/internal/storage"
)

var ErrInvalidInput = errors.New("invalid input")

// SeedAdmin creates an admin account. An existing user with the same email
// is left untouched and reported with created == false.
func SeedAdmin(ctx context.Context, st storage.UserStore, email, name, password string) (u *models.User, created bool, err error) {
	email = models.NormalizeEmail(email)
	if email == "" || len(password) < 6 {
		return nil, false, fmt.Errorf("%w: email and a password of at least 6 characters are required", ErrInvalidInput)
	}

	existing, err := st.UserByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	u = &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  hash,
		Name:      strings.TrimSpace(name),
		Role:      models.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateUser(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// UpdateEmail moves a user from one email to another. Registrations and
// progress keep the address they were created with.
func UpdateEmail(ctx context.Context, st storage.UserStore, from, to string) error {
	from, to = strings.TrimSpace(from), models.NormalizeEmail(to)
	if from == "" || to == "" {
		return fmt.Errorf("%w: both emails are required", ErrInvalidInput)
	}

	u, err := st.UserByEmail(ctx, from)
	if err != nil {
		return fmt.Errorf("find %s: %w", from, err)
	}
	if err := st.UpdateUserEmail(ctx, u.ID, to); err != nil {
		return fmt.Errorf("update %s: %w", from, err)
	}
	return nil
}

// HashPasswords replaces every plaintext password with its bcrypt hash and
// returns how many records changed.
func HashPasswords(ctx context.Context, st storage.UserStore) (int, error) {
	users, err := st.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, u := range users {
		if u.Password == "" || passwords.IsHashed(u.Password) {
			continue
		}
		hash, err := passwords.Hash(u.Password)
		if err != nil {
			return n, err
		}
		if err := st.UpdateUserPassword(ctx, u.ID, hash); err != nil {
			return n, fmt.Errorf("user %s: %w", u.ID, err)
		}
		slog.Info("password hashed", slog.String("user_id", u.ID))
		n++
	}
	return n, nil
}

// ImportMaterials reads a JSON array of course materials and upserts each
// one. Records without id, courseId or type are rejected before anything is
// written.
func ImportMaterials(ctx context.Context, st storage.MaterialStore, r io.Reader) (int, error) {
	var items []models.Material
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return 0, fmt.Errorf("%w: decode materials: %v", ErrInvalidInput, err)
	}

	for i, m := range items {
		if m.ID == "" || m.CourseID == "" || m.Type == "" {
			return 0, fmt.Errorf("%w: material #%d needs id, courseId and type", ErrInvalidInput, i)
		}
		if m.Type == models.MaterialQuiz {
			for _, q := range m.Questions {
				if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
					return 0, fmt.Errorf("%w: quiz %s question %s has no valid correct option", ErrInvalidInput, m.ID, q.ID)
				}
			}
		}
	}

	for i := range items {
		if err := st.PutMaterial(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("material %s: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}
