package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"learnhub/internal/models"
	"learnhub/internal/storage"
)

func mockStorage(mt *mtest.T) *Storage {
	return &Storage{
		client:        mt.Client,
		users:         mt.Coll,
		registrations: mt.Coll,
		progress:      mt.Coll,
		materials:     mt.Coll,
	}
}

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestRemoveAttribute_RejectsKey(t *testing.T) {
	s := &Storage{}
	for _, attr := range []string{"", "id", "_id"} {
		_, err := s.RemoveAttribute(context.Background(), storage.Users, attr)
		assert.Error(t, err, attr)
	}
}

func TestCollection_Unknown(t *testing.T) {
	_, err := (&Storage{}).collection("sessions")
	assert.Error(t, err)
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := New(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "learnhub")
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestWrites(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate key is conflict", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := s.MarkComplete(context.Background(), &models.Progress{
			ID: models.ProgressID("a@example.com", "m1"), Email: "a@example.com", MaterialID: "m1",
		})
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	mt.Run("update without match is not found", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.UpdatePaymentStatus(context.Background(), "nope", models.PaymentPending, time.Now())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	mt.Run("update with match succeeds", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(t, s.UpdateUserName(context.Background(), "u1", "Ann"))
	})
}

func TestReads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("user stored with typed casing", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "u1"},
				{Key: "email", Value: "Ann@Example.com"},
				{Key: "role", Value: models.RoleStudent},
			}),
		)

		u, err := s.UserByEmail(context.Background(), "Ann@Example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		assert.Equal(t, "Ann@Example.com", u.Email)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := s.UserByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	mt.Run("progress with random id", func(mt *mtest.T) {
		s := mockStorage(mt)
		completed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "5b0e-legacy"},
			{Key: "email", Value: "a@example.com"},
			{Key: "courseId", Value: "go-101"},
			{Key: "materialId", Value: "m1"},
			{Key: "completedAt", Value: completed},
		}))

		p, err := s.Progress(context.Background(), "a@example.com", "m1")
		require.NoError(t, err)
		assert.Equal(t, "5b0e-legacy", p.ID)
		assert.True(t, p.CompletedAt.Equal(completed))
	})

	mt.Run("registrations across cursor batches", func(mt *mtest.T) {
		s := mockStorage(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(42, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "r1"}, {Key: "email", Value: "a@example.com"},
			}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.NextBatch, bson.D{
				{Key: "_id", Value: "r2"}, {Key: "email", Value: "A@example.com"},
			}),
		)

		regs, err := s.RegistrationsByEmail(context.Background(), "a@example.com")
		require.NoError(t, err)
		require.Len(t, regs, 2)
		assert.Equal(t, "r2", regs[1].ID)
	})
}
