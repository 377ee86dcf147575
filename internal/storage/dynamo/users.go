package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := queryByEmail[models.User](ctx, s.client, s.tables.Users, emailIndex, email, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, storage.ErrNotFound
	}
	return &users[0], nil
}

func (s *Storage) User(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.getItem(ctx, s.tables.Users, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	return scanAll[models.User](ctx, s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tables.Users),
	})
}

// CreateUser checks the email index before the conditional put. The index
// is eventually consistent, so two concurrent sign-ups with one email can
// still both succeed.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.emailFree(ctx, u.Email, ""); err != nil {
		return err
	}
	return s.putNew(ctx, s.tables.Users, u)
}

func (s *Storage) UpdateUserName(ctx context.Context, id, name string) error {
	return s.update(ctx, s.tables.Users, id,
		expression.Set(expression.Name("name"), expression.Value(name)))
}

func (s *Storage) UpdateUserRole(ctx context.Context, id, role string) error {
	return s.update(ctx, s.tables.Users, id,
		expression.Set(expression.Name("role"), expression.Value(role)))
}

func (s *Storage) UpdateUserEmail(ctx context.Context, id, email string) error {
	if err := s.emailFree(ctx, email, id); err != nil {
		return err
	}
	return s.update(ctx, s.tables.Users, id,
		expression.Set(expression.Name("email"), expression.Value(email)))
}

func (s *Storage) UpdateUserPassword(ctx context.Context, id, password string) error {
	return s.update(ctx, s.tables.Users, id,
		expression.Set(expression.Name("password"), expression.Value(password)))
}

func (s *Storage) emailFree(ctx context.Context, email, ownerID string) error {
	u, err := s.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil
	case err != nil:
		return err
	case u.ID != ownerID:
		return storage.ErrConflict
	}
	return nil
}
