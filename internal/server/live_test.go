package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/models"
)

func TestLiveSessions(t *testing.T) {
	e := newTestEnv(t)
	_, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)
	ctx := context.Background()

	early := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)
	for _, m := range []*models.Material{
		{ID: "late", CourseID: "c1", Type: models.MaterialLiveSession, StartsAt: &late},
		{ID: "tbd", CourseID: "c1", Type: models.MaterialLiveSession},
		{ID: "early", CourseID: "c1", Type: models.MaterialLiveSession, StartsAt: &early, MeetingURL: "https://meet.example/x"},
		{ID: "other", CourseID: "c2", Type: models.MaterialLiveSession, StartsAt: &early},
		{ID: "quiz", CourseID: "c1", Type: models.MaterialQuiz},
	} {
		require.NoError(t, e.store.PutMaterial(ctx, m))
	}

	rec := e.do(t, http.MethodGet, "/api/live-sessions?courseId=c1", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	var ids []string
	for _, s := range decodeBody(t, rec)["sessions"].([]any) {
		ids = append(ids, s.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"early", "late", "tbd"}, ids)

	rec = e.do(t, http.MethodGet, "/api/live-sessions", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decodeBody(t, rec)["count"])
}
