package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rollcall-hq/rollcall/internal/auth/domain"
	"github.com/rollcall-hq/rollcall/internal/auth/gate"
	authhttp "github.com/rollcall-hq/rollcall/internal/auth/http"
	"github.com/rollcall-hq/rollcall/internal/auth/revoke"
	"github.com/rollcall-hq/rollcall/internal/auth/service"
	"github.com/rollcall-hq/rollcall/internal/auth/store/drivers/sqlite"
	"github.com/rollcall-hq/rollcall/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "rollcall-auth"

type fixture struct {
	server *httptest.Server
	users  *service.UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewHS256([]byte("test-secret-do-not-use"), testIssuer)
	require.NoError(t, err)

	revoked := revoke.NewMemory()
	sessions := service.NewSessionService(
		signer, signer, st, revoked, testIssuer,
		15*time.Minute, 7*24*time.Hour,
	)
	users := service.NewUserService(st)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := authhttp.NewRouter(gate.New(signer, revoked), "test", st, revoked, logger)
	router.SessionService = sessions
	router.UserService = users
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &fixture{server: server, users: users}
}

func (f *fixture) seedUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	user, err := f.users.CreateUser(context.Background(), email, "Seeded User", password, role)
	require.NoError(t, err)
	return user
}

func (f *fixture) postJSON(t *testing.T, path, bearer string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (f *fixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (f *fixture) login(t *testing.T, email, password string) map[string]any {
	t.Helper()

	resp := f.postJSON(t, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody(t, resp)
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	body := f.login(t, "coach@example.com", "Sw0rdfish!")

	assert.Equal(t, "Bearer", body["token_type"])
	assert.EqualValues(t, 900, body["expires_in"])
	assert.EqualValues(t, 604800, body["refresh_expires_in"])
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	// The access token opens authenticated endpoints.
	resp := f.get(t, "/v1/userinfo", body["access_token"].(string))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	info := decodeBody(t, resp)
	assert.Equal(t, "coach@example.com", info["email"])
	assert.Equal(t, "coach", info["role"])
	assert.Equal(t, "Seeded User", info["display_name"])
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	resp := f.postJSON(t, "/v1/auth/login", "", map[string]string{
		"email":    "coach@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", decodeBody(t, resp)["error"])
}

func TestLogin_MalformedBody(t *testing.T) {
	f := newFixture(t)

	resp, err := f.server.Client().Post(
		f.server.URL+"/v1/auth/login", "application/json",
		bytes.NewBufferString("{not json"),
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeBody(t, resp)["error"])
}

func TestRefreshFlow(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "student@example.com", "Sw0rdfish!", domain.RoleStudent)

	body := f.login(t, "student@example.com", "Sw0rdfish!")

	resp := f.postJSON(t, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": body["refresh_token"].(string),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refreshed := decodeBody(t, resp)
	assert.Equal(t, "Bearer", refreshed["token_type"])
	assert.NotEmpty(t, refreshed["access_token"])

	// The refreshed access token works.
	resp = f.get(t, "/v1/userinfo", refreshed["access_token"].(string))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRefresh_RejectsGarbage(t *testing.T) {
	f := newFixture(t)

	resp := f.postJSON(t, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": "not-a-token",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_grant", decodeBody(t, resp)["error"])
}

func TestLogoutFlow(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	body := f.login(t, "coach@example.com", "Sw0rdfish!")
	access := body["access_token"].(string)
	refresh := body["refresh_token"].(string)

	// Logout revokes both tokens.
	resp := f.postJSON(t, "/v1/auth/logout", access, map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The access token no longer opens authenticated endpoints.
	resp = f.get(t, "/v1/userinfo", access)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", decodeBody(t, resp)["error"])

	// The refresh token no longer mints access tokens.
	resp = f.postJSON(t, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Logging out again still reports success.
	resp = f.postJSON(t, "/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestUserinfo_RequiresToken(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/v1/userinfo", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_token", decodeBody(t, resp)["error"])
}

func TestCreateUser_AdminOnly(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "admin@example.com", "Sw0rdfish!", domain.RoleAdmin)
	f.seedUser(t, "coach@example.com", "Sw0rdfish!", domain.RoleCoach)

	newUser := map[string]string{
		"email":        "new@example.com",
		"display_name": "New Student",
		"password":     "Sw0rdfish!",
		"role":         "student",
	}

	// A coach may not create accounts.
	coach := f.login(t, "coach@example.com", "Sw0rdfish!")
	resp := f.postJSON(t, "/v1/users", coach["access_token"].(string), newUser)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "forbidden", decodeBody(t, resp)["error"])

	// An admin may.
	admin := f.login(t, "admin@example.com", "Sw0rdfish!")
	resp = f.postJSON(t, "/v1/users", admin["access_token"].(string), newUser)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody(t, resp)
	assert.Equal(t, "new@example.com", created["email"])
	assert.Equal(t, "student", created["role"])

	// The new account can log in.
	f.login(t, "new@example.com", "Sw0rdfish!")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "student@example.com", "Sw0rdfish!", domain.RoleStudent)

	body := f.login(t, "student@example.com", "Sw0rdfish!")
	access := body["access_token"].(string)

	resp := f.postJSON(t, "/v1/users/password", access, map[string]string{
		"current_password": "Sw0rdfish!",
		"new_password":     "NewPass123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	f.login(t, "student@example.com", "NewPass123")
}

func TestHealthEndpoints(t *testing.T) {
	f := newFixture(t)

	resp := f.get(t, "/livez", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])

	resp = f.get(t, "/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeBody(t, resp)["status"])
}
