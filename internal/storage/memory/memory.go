package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

// Storage implements storage.Store in memory. It backs tests and local demos.
type Storage struct {
	mu            sync.RWMutex
	users         map[string]models.User
	registrations map[string]models.Registration
	progress      map[string]models.Progress
	materials     map[string]models.Material
}

var _ storage.Store = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		users:         make(map[string]models.User),
		registrations: make(map[string]models.Registration),
		progress:      make(map[string]models.Progress),
		materials:     make(map[string]models.Material),
	}
}

func (s *Storage) UserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, key := range storage.EmailKeys(email) {
		for _, u := range s.users {
			if u.Email == key {
				return &u, nil
			}
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) User(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (s *Storage) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Storage) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return storage.ErrConflict
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return storage.ErrConflict
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Storage) UpdateUserName(_ context.Context, id, name string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Name = name
		return nil
	})
}

func (s *Storage) UpdateUserRole(_ context.Context, id, role string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Role = role
		return nil
	})
}

func (s *Storage) UpdateUserEmail(_ context.Context, id, email string) error {
	return s.updateUser(id, func(u *models.User) error {
		for otherID, other := range s.users {
			if otherID != id && other.Email == email {
				return storage.ErrConflict
			}
		}
		u.Email = email
		return nil
	})
}

func (s *Storage) UpdateUserPassword(_ context.Context, id, password string) error {
	return s.updateUser(id, func(u *models.User) error {
		u.Password = password
		return nil
	})
}

func (s *Storage) updateUser(id string, apply func(u *models.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	if err := apply(&u); err != nil {
		return err
	}
	s.users[id] = u
	return nil
}

func (s *Storage) ListRegistrations(_ context.Context) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Registration, 0, len(s.registrations))
	for _, r := range s.registrations {
		out = append(out, r)
	}
	return out, nil
}

func (s *Storage) Registration(_ context.Context, id string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.registrations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (s *Storage) RegistrationsByEmail(_ context.Context, email string) ([]models.Registration, error) {
	keys := storage.EmailKeys(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Registration
	for _, r := range s.registrations {
		if slices.Contains(keys, r.Email) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Storage) CreateRegistration(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registrations[r.ID]; ok {
		return storage.ErrConflict
	}
	s.registrations[r.ID] = *r
	return nil
}

func (s *Storage) UpdatePaymentStatus(_ context.Context, id, status string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrations[id]
	if !ok {
		return storage.ErrNotFound
	}
	r.PaymentStatus = status
	r.UpdatedAt = at
	s.registrations[id] = r
	return nil
}

func (s *Storage) Progress(_ context.Context, email, materialID string) (*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.progress[models.ProgressID(email, materialID)]; ok {
		return &p, nil
	}
	// Records written before ids were derived carry random ids.
	keys := storage.EmailKeys(email)
	for _, p := range s.progress {
		if p.MaterialID == materialID && slices.Contains(keys, p.Email) {
			return &p, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) ProgressByCourse(_ context.Context, email, courseID string) ([]models.Progress, error) {
	keys := storage.EmailKeys(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Progress
	for _, p := range s.progress {
		if slices.Contains(keys, p.Email) && (courseID == "" || p.CourseID == courseID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Storage) MarkComplete(_ context.Context, p *models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.progress[p.ID]; ok {
		return storage.ErrConflict
	}
	s.progress[p.ID] = *p
	return nil
}

func (s *Storage) Material(_ context.Context, id string) (*models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.materials[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (s *Storage) MaterialsByType(_ context.Context, materialType, courseID string) ([]models.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Material
	for _, m := range s.materials {
		if m.Type == materialType && (courseID == "" || m.CourseID == courseID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Storage) PutMaterial(_ context.Context, m *models.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.materials[m.ID] = *m
	return nil
}

// RemoveAttribute only knows the optional attributes of each collection;
// key attributes cannot be removed.
func (s *Storage) RemoveAttribute(_ context.Context, c storage.Collection, attribute string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	switch c {
	case storage.Users:
		for id, u := range s.users {
			switch attribute {
			case "name":
				if u.Name == "" {
					continue
				}
				u.Name = ""
			case "role":
				if u.Role == "" {
					continue
				}
				u.Role = ""
			default:
				return 0, fmt.Errorf("memory: cannot remove %q from %s", attribute, c)
			}
			s.users[id] = u
			changed++
		}
	case storage.Registrations:
		if attribute != "PaymentStatus" {
			return 0, fmt.Errorf("memory: cannot remove %q from %s", attribute, c)
		}
		for id, r := range s.registrations {
			if r.PaymentStatus == "" {
				continue
			}
			r.PaymentStatus = ""
			s.registrations[id] = r
			changed++
		}
	case storage.Materials:
		for id, m := range s.materials {
			var had bool
			switch attribute {
			case "description":
				had, m.Description = m.Description != "", ""
			case "meetingUrl":
				had, m.MeetingURL = m.MeetingURL != "", ""
			case "startsAt":
				had, m.StartsAt = m.StartsAt != nil, nil
			case "durationMinutes":
				had, m.DurationMinutes = m.DurationMinutes != 0, 0
			case "timeLimit":
				had, m.TimeLimit = m.TimeLimit != 0, 0
			case "passingScore":
				had, m.PassingScore = m.PassingScore != 0, 0
			case "maxAttempts":
				had, m.MaxAttempts = m.MaxAttempts != 0, 0
			default:
				return 0, fmt.Errorf("memory: cannot remove %q from %s", attribute, c)
			}
			if had {
				s.materials[id] = m
				changed++
			}
		}
	default:
		return 0, fmt.Errorf("memory: cannot remove %q from %s", attribute, c)
	}
	return changed, nil
}

func (s *Storage) Ping(context.Context) error { return nil }

func (s *Storage) Close(context.Context) error { return nil }
