package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/models"
)

func TestLogin_MissingFields(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: "a@b.io"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/login", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "ann@example.com", "right-pass", models.RoleStudent)

	for _, req := range []loginReq{
		{Email: "ann@example.com", Password: "wrong-pass"},
		{Email: "nobody@example.com", Password: "right-pass"},
	} {
		rec := e.do(t, http.MethodPost, "/api/login", req, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, invalidCredentials, body["error"])
		assert.NotContains(t, body, "user")
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestLogin_OK(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "ann@example.com", "right-pass", models.RoleStudent)

	rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: "  Ann@Example.com ", Password: "right-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, u.ID, user["id"])
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, models.RoleStudent, user["role"])
	assert.NotContains(t, user, "password")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestLogin_MixedCaseStoredEmail(t *testing.T) {
	e := newTestEnv(t)
	u, cookies := e.seedAndLogin(t, "Ann@Example.com", models.RoleStudent)
	e.seedRegistration(t, "r1", "Ann@Example.com", "c1", time.Now().UTC())

	rec := e.do(t, http.MethodGet, "/api/me", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, decodeBody(t, rec)["user"].(map[string]any)["id"])

	rec = e.do(t, http.MethodGet, "/api/enrollments", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["enrollments"].([]any), 1)

	rec = e.do(t, http.MethodGet, "/api/payments/r1/status", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/login", loginReq{Email: "ann@example.com", Password: "s3cret-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAllowRequest_ForgetsIdleClients(t *testing.T) {
	e := newTestEnv(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e.srv.now = func() time.Time { return now }

	ip := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		return req
	}

	require.True(t, e.srv.allowRequest(ip("192.0.2.1:1000")))
	require.True(t, e.srv.allowRequest(ip("192.0.2.2:1000")))
	assert.Len(t, e.srv.rateByIP, 2)

	now = now.Add(2 * loginRateWindow)
	require.True(t, e.srv.allowRequest(ip("192.0.2.2:1000")))

	assert.NotContains(t, e.srv.rateByIP, "192.0.2.1")
	assert.Len(t, e.srv.rateByIP["192.0.2.2"], 1)
}

func TestLogin_LegacyPlaintextPassword(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t, "old@example.com", "ignored", models.RoleStudent)
	require.NoError(t, e.store.UpdateUserPassword(context.Background(), u.ID, "plain-pass"))

	rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: "old@example.com", Password: "plain-pass"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < loginRateMaxHits; i++ {
		rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: "x@y.io", Password: "nope"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := e.do(t, http.MethodPost, "/api/login", loginReq{Email: "x@y.io", Password: "nope"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestMe(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)
	rec = e.do(t, http.MethodGet, "/api/me", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
}

func TestMe_TamperedCookie(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/api/me", nil, []*http.Cookie{{Name: cookieName, Value: "forged"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	_, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)

	rec := e.do(t, http.MethodPost, "/api/logout", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, cookieName, cleared[0].Name)
	assert.Less(t, cleared[0].MaxAge, 0)
}

func TestSignup(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/signup", signupReq{Name: "Bo", Email: "bo@example.com", Password: "123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/signup", signupReq{Name: "Bo", Email: "bo@example.com", Password: "123456"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, models.RoleStudent, user["role"])

	rec = e.do(t, http.MethodGet, "/api/me", nil, rec.Result().Cookies())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/signup", signupReq{Name: "Bo2", Email: "BO@example.com", Password: "123456"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	e := newTestEnv(t)
	u, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)

	rec := e.do(t, http.MethodPut, "/api/update-profile", updateProfileReq{Name: "  "}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/update-profile", updateProfileReq{Name: "Ann B", Email: " ANN@example.com"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Ann B", user["name"])
	assert.Equal(t, "ann@example.com", user["email"])

	rec = e.do(t, http.MethodPut, "/api/update-profile", updateProfileReq{Name: "Ann C"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := e.store.User(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann C", stored.Name)
	assert.Equal(t, "ann@example.com", stored.Email)
}

func TestUpdateProfile_EmailChangeKeepsCourseData(t *testing.T) {
	e := newTestEnv(t)
	u, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)
	e.seedRegistration(t, "r1", "ann@example.com", "c1", time.Now().UTC())
	rec := e.do(t, http.MethodPost, "/api/progress/complete", completeReq{CourseID: "c1", MaterialID: "m1"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPut, "/api/update-profile", updateProfileReq{Name: "Ann B", Email: "ann.b@example.com"}, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	stored, err := e.store.User(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", stored.Email)
	assert.Equal(t, u.Name, stored.Name)

	rec = e.do(t, http.MethodPut, "/api/update-profile", updateProfileReq{Name: "Ann B"}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/enrollments", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["enrollments"].([]any), 1)

	rec = e.do(t, http.MethodGet, "/api/progress/check?materialId=m1", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["completed"])

	rec = e.do(t, http.MethodGet, "/api/payments/r1/status", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSession_ReloadsRole(t *testing.T) {
	e := newTestEnv(t)
	u, cookies := e.seedAndLogin(t, "ann@example.com", models.RoleStudent)

	rec := e.do(t, http.MethodGet, "/api/admin/users", nil, cookies)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, e.store.UpdateUserRole(context.Background(), u.ID, models.RoleAdmin))

	rec = e.do(t, http.MethodGet, "/api/admin/users", nil, cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWithSecurity_BadOrigin(t *testing.T) {
	e := newTestEnv(t)
	e.seedUser(t, "ann@example.com", "right-pass", models.RoleStudent)

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"email":"ann@example.com","password":"right-pass"}`))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
