package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"learnhub/internal/config"
	"learnhub/internal/storage/memory"
)

type downStore struct{ *memory.Storage }

func (downStore) Ping(context.Context) error { return errors.New("dial tcp 10.0.0.1:8000: refused") }

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["store"])
}

func TestHealth_StoreDown(t *testing.T) {
	cfg := config.Config{StaticDir: t.TempDir(), DevMode: true, SessionKey: strings.Repeat("k", 32)}
	s := New(cfg, downStore{memory.New()}, &fakePayments{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.1")
}
