package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

// Storage implements storage.Store on MongoDB, one collection per record type.
type Storage struct {
	client        *mongo.Client
	users         *mongo.Collection
	registrations *mongo.Collection
	progress      *mongo.Collection
	materials     *mongo.Collection
}

var _ storage.Store = (*Storage)(nil)

func New(ctx context.Context, uri, dbName string) (*Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}

	db := client.Database(dbName)

	s := &Storage{
		client:        client,
		users:         db.Collection(string(storage.Users)),
		registrations: db.Collection(string(storage.Registrations)),
		progress:      db.Collection(string(storage.Progress)),
		materials:     db.Collection(string(storage.Materials)),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Storage) collection(c storage.Collection) (*mongo.Collection, error) {
	switch c {
	case storage.Users:
		return s.users, nil
	case storage.Registrations:
		return s.registrations, nil
	case storage.Progress:
		return s.progress, nil
	case storage.Materials:
		return s.materials, nil
	}
	return nil, fmt.Errorf("mongo: unknown collection %q", c)
}

func (s *Storage) RemoveAttribute(ctx context.Context, c storage.Collection, attribute string) (int, error) {
	if attribute == "" || attribute == "_id" || attribute == "id" {
		return 0, fmt.Errorf("mongo: cannot remove %q", attribute)
	}
	coll, err := s.collection(c)
	if err != nil {
		return 0, err
	}

	res, err := coll.UpdateMany(ctx,
		bson.M{attribute: bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{attribute: ""}},
	)
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrConflict
	}
	return err
}

func updateByID(ctx context.Context, coll *mongo.Collection, id string, set bson.M) error {
	res, err := coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UserByEmail prefers the normalized form over a record stored with the
// casing it was typed in.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, key := range storage.EmailKeys(email) {
		u, err := findOne[models.User](ctx, s.users, bson.M{"email": key})
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		return u, err
	}
	return nil, storage.ErrNotFound
}

func (s *Storage) User(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *Storage) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, s.users, bson.M{})
}

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	return insert(ctx, s.users, u)
}

func (s *Storage) UpdateUserName(ctx context.Context, id, name string) error {
	return updateByID(ctx, s.users, id, bson.M{"name": name})
}

func (s *Storage) UpdateUserRole(ctx context.Context, id, role string) error {
	return updateByID(ctx, s.users, id, bson.M{"role": role})
}

func (s *Storage) UpdateUserEmail(ctx context.Context, id, email string) error {
	return updateByID(ctx, s.users, id, bson.M{"email": email})
}

func (s *Storage) UpdateUserPassword(ctx context.Context, id, password string) error {
	return updateByID(ctx, s.users, id, bson.M{"password": password})
}

func (s *Storage) ListRegistrations(ctx context.Context) ([]models.Registration, error) {
	return findAll[models.Registration](ctx, s.registrations, bson.M{})
}

func (s *Storage) Registration(ctx context.Context, id string) (*models.Registration, error) {
	return findOne[models.Registration](ctx, s.registrations, bson.M{"_id": id})
}

func (s *Storage) RegistrationsByEmail(ctx context.Context, email string) ([]models.Registration, error) {
	return findAll[models.Registration](ctx, s.registrations, bson.M{"email": bson.M{"$in": storage.EmailKeys(email)}})
}

func (s *Storage) CreateRegistration(ctx context.Context, r *models.Registration) error {
	return insert(ctx, s.registrations, r)
}

func (s *Storage) UpdatePaymentStatus(ctx context.Context, id, status string, at time.Time) error {
	return updateByID(ctx, s.registrations, id, bson.M{
		"PaymentStatus": status,
		"updatedAt":     at,
	})
}

// Progress matches the derived id or, for records with random ids, the
// (email, materialId) pair.
func (s *Storage) Progress(ctx context.Context, email, materialID string) (*models.Progress, error) {
	return findOne[models.Progress](ctx, s.progress, bson.M{"$or": bson.A{
		bson.M{"_id": models.ProgressID(email, materialID)},
		bson.M{"email": bson.M{"$in": storage.EmailKeys(email)}, "materialId": materialID},
	}})
}

func (s *Storage) ProgressByCourse(ctx context.Context, email, courseID string) ([]models.Progress, error) {
	filter := bson.M{"email": bson.M{"$in": storage.EmailKeys(email)}}
	if courseID != "" {
		filter["courseId"] = courseID
	}
	return findAll[models.Progress](ctx, s.progress, filter)
}

func (s *Storage) MarkComplete(ctx context.Context, p *models.Progress) error {
	return insert(ctx, s.progress, p)
}

func (s *Storage) Material(ctx context.Context, id string) (*models.Material, error) {
	return findOne[models.Material](ctx, s.materials, bson.M{"_id": id})
}

func (s *Storage) MaterialsByType(ctx context.Context, materialType, courseID string) ([]models.Material, error) {
	filter := bson.M{"type": materialType}
	if courseID != "" {
		filter["courseId"] = courseID
	}
	return findAll[models.Material](ctx, s.materials, filter)
}

func (s *Storage) PutMaterial(ctx context.Context, m *models.Material) error {
	_, err := s.materials.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	return err
}
