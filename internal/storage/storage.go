package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"learnhub/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Collection names a record collection for maintenance operations.
type Collection string

const (
	Users         Collection = "users"
	Registrations Collection = "registrations"
	Progress      Collection = "progress"
	Materials     Collection = "materials"
)

func ParseCollection(name string) (Collection, error) {
	switch c := Collection(name); c {
	case Users, Registrations, Progress, Materials:
		return c, nil
	}
	return "", errors.New("unknown collection " + name)
}

// EmailKeys returns the forms an email may be stored under: the normalized
// form first, then the trimmed form as given when it differs. Records written
// before emails were normalized keep their original casing.
func EmailKeys(email string) []string {
	trimmed := strings.TrimSpace(email)
	norm := models.NormalizeEmail(trimmed)
	if norm == "" {
		return []string{}
	}
	if trimmed == norm {
		return []string{norm}
	}
	return []string{norm, trimmed}
}

// Store is the document store behind every route handler.
type Store interface {
	UserStore
	RegistrationStore
	ProgressStore
	MaterialStore

	// RemoveAttribute strips an attribute from every record of a collection
	// and returns how many records were changed.
	RemoveAttribute(ctx context.Context, c Collection, attribute string) (int, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

type UserStore interface {
	// UserByEmail returns the user with the given email or ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, error)

	// User returns the user by id or ErrNotFound.
	User(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns every user.
	ListUsers(ctx context.Context) ([]models.User, error)

	// CreateUser inserts a user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, u *models.User) error

	// UpdateUserName overwrites the display name of a user.
	UpdateUserName(ctx context.Context, id, name string) error

	// UpdateUserRole overwrites the role of a user.
	UpdateUserRole(ctx context.Context, id, role string) error

	// UpdateUserEmail changes the email of a user. Returns ErrConflict if
	// another user already has the new email.
	UpdateUserEmail(ctx context.Context, id, email string) error

	// UpdateUserPassword overwrites the stored password.
	UpdateUserPassword(ctx context.Context, id, password string) error
}

type RegistrationStore interface {
	// ListRegistrations returns every registration, in no particular order.
	ListRegistrations(ctx context.Context) ([]models.Registration, error)

	// Registration returns a registration by id or ErrNotFound.
	Registration(ctx context.Context, id string) (*models.Registration, error)

	// RegistrationsByEmail returns the registrations of a learner.
	RegistrationsByEmail(ctx context.Context, email string) ([]models.Registration, error)

	// CreateRegistration inserts a registration.
	CreateRegistration(ctx context.Context, r *models.Registration) error

	// UpdatePaymentStatus overwrites PaymentStatus and updatedAt of an
	// existing registration. Returns ErrNotFound for an unknown id.
	UpdatePaymentStatus(ctx context.Context, id, status string, at time.Time) error
}

type ProgressStore interface {
	// Progress returns the completion record for (email, materialID) or ErrNotFound.
	Progress(ctx context.Context, email, materialID string) (*models.Progress, error)

	// ProgressByCourse returns the completion records of a learner in a course.
	ProgressByCourse(ctx context.Context, email, courseID string) ([]models.Progress, error)

	// MarkComplete stores a completion record. Returns ErrConflict when the
	// learner already completed the material.
	MarkComplete(ctx context.Context, p *models.Progress) error
}

type MaterialStore interface {
	// Material returns a course material by id or ErrNotFound.
	Material(ctx context.Context, id string) (*models.Material, error)

	// MaterialsByType returns materials of a type, optionally limited to a course.
	MaterialsByType(ctx context.Context, materialType, courseID string) ([]models.Material, error)

	// PutMaterial inserts or replaces a material.
	PutMaterial(ctx context.Context, m *models.Material) error
}
