package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func (s *Storage) ListRegistrations(ctx context.Context) ([]models.Registration, error) {
	return scanAll[models.Registration](ctx, s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tables.Registrations),
	})
}

func (s *Storage) Registration(ctx context.Context, id string) (*models.Registration, error) {
	var r models.Registration
	if err := s.getItem(ctx, s.tables.Registrations, id, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Storage) RegistrationsByEmail(ctx context.Context, email string) ([]models.Registration, error) {
	return queryByEmail[models.Registration](ctx, s.client, s.tables.Registrations, emailIndex, email, nil, nil)
}

func (s *Storage) CreateRegistration(ctx context.Context, r *models.Registration) error {
	return s.putNew(ctx, s.tables.Registrations, r)
}

func (s *Storage) UpdatePaymentStatus(ctx context.Context, id, status string, at time.Time) error {
	upd := expression.
		Set(expression.Name("PaymentStatus"), expression.Value(status)).
		Set(expression.Name("updatedAt"), expression.Value(at))
	return s.update(ctx, s.tables.Registrations, id, upd)
}

// Progress reads the derived key first and falls back to the
// (email, materialId) index, where records with random ids live.
func (s *Storage) Progress(ctx context.Context, email, materialID string) (*models.Progress, error) {
	var p models.Progress
	err := s.getItem(ctx, s.tables.Progress, models.ProgressID(email, materialID), &p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	material := expression.Key("materialId").Equal(expression.Value(materialID))
	found, err := queryByEmail[models.Progress](ctx, s.client, s.tables.Progress, emailMaterialIndex, email, &material, nil)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, storage.ErrNotFound
	}
	return &found[0], nil
}

func (s *Storage) ProgressByCourse(ctx context.Context, email, courseID string) ([]models.Progress, error) {
	var filter *expression.ConditionBuilder
	if courseID != "" {
		f := expression.Name("courseId").Equal(expression.Value(courseID))
		filter = &f
	}
	return queryByEmail[models.Progress](ctx, s.client, s.tables.Progress, emailMaterialIndex, email, nil, filter)
}

// MarkComplete relies on the deterministic id: a second completion of the
// same material fails the attribute_not_exists(id) condition.
func (s *Storage) MarkComplete(ctx context.Context, p *models.Progress) error {
	return s.putNew(ctx, s.tables.Progress, p)
}

func (s *Storage) Material(ctx context.Context, id string) (*models.Material, error) {
	var m models.Material
	if err := s.getItem(ctx, s.tables.Materials, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Storage) MaterialsByType(ctx context.Context, materialType, courseID string) ([]models.Material, error) {
	filter := expression.Name("type").Equal(expression.Value(materialType))
	if courseID != "" {
		filter = filter.And(expression.Name("courseId").Equal(expression.Value(courseID)))
	}

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, err
	}

	return scanAll[models.Material](ctx, s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tables.Materials),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
}

func (s *Storage) PutMaterial(ctx context.Context, m *models.Material) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tables.Materials),
		Item:      item,
	})
	return err
}
