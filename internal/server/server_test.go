package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"learnhub/internal/config"
	"learnhub/internal/models"
	"learnhub/internal/storage/memory"
)

type fakePayments struct {
	status string
	err    error
	calls  int
}

func (f *fakePayments) Status(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.status, f.err
}

type testEnv struct {
	srv   *Server
	store *memory.Storage
	pay   *fakePayments
	dir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	st := memory.New()
	pay := &fakePayments{status: models.PaymentPending}
	cfg := config.Config{
		Port:       "0",
		StaticDir:  dir,
		DevMode:    true,
		SessionKey: strings.Repeat("k", 32),
	}
	return &testEnv{srv: New(cfg, st, pay), store: st, pay: pay, dir: dir}
}

func (e *testEnv) seedUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hash),
		Name:      strings.Split(email, "@")[0],
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// login signs in and returns the session cookies.
func (e *testEnv) login(t *testing.T, email, password string) []*http.Cookie {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: email, Password: password}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (e *testEnv) seedAndLogin(t *testing.T, email, role string) (*models.User, []*http.Cookie) {
	t.Helper()
	u := e.seedUser(t, email, "s3cret-pass", role)
	return u, e.login(t, email, "s3cret-pass")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
