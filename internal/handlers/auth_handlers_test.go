package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ovchar/tradejournal/internal/config"
	"github.com/ovchar/tradejournal/internal/service"
	"github.com/ovchar/tradejournal/internal/store"
	"github.com/ovchar/tradejournal/internal/tokens"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Auth   *AuthHandler
	Issuer *tokens.Issuer
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	s := store.NewGormStore(db)
	issuer := &tokens.Issuer{
		Store:      s,
		JWTSecret:  []byte("test_secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	svc := &service.AuthService{Store: s, Issuer: issuer}

	return &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Auth:   &AuthHandler{Svc: svc},
		Issuer: issuer,
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func registerPayload() map[string]string {
	return map[string]string{
		"username": "test",
		"email":    "test@example.com",
		"password": "Tester42@!",
		"confirm":  "Tester42@!",
	}
}

func (env *testEnv) register() tokenResponse {
	rec, c := env.doJSONRequest(http.MethodPost, "/users", registerPayload())
	require.NoError(env.T, env.Auth.Register(c))
	require.Equal(env.T, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(env.T, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRegisterHandler(t *testing.T) {
	env := newTestEnv(t)

	resp := env.register()
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
}

func TestRegisterHandlerValidationFailures(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]map[string]string{
		"bad email":     {"username": "test", "email": "nope", "password": "Tester42@!", "confirm": "Tester42@!"},
		"weak password": {"username": "test", "email": "test@example.com", "password": "weak", "confirm": "weak"},
		"mismatch":      {"username": "test", "email": "test@example.com", "password": "Tester42@!", "confirm": "Other42@!"},
		"no username":   {"email": "test@example.com", "password": "Tester42@!", "confirm": "Tester42@!"},
	}

	for name, payload := range cases {
		_, c := env.doJSONRequest(http.MethodPost, "/users", payload)
		err := env.Auth.Register(c)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok, "%s: expected HTTPError", name)
		require.Equal(t, http.StatusBadRequest, he.Code, name)
	}
}

func TestRegisterHandlerDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register()

	_, c := env.doJSONRequest(http.MethodPost, "/users", registerPayload())
	err := env.Auth.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLoginHandler(t *testing.T) {
	env := newTestEnv(t)
	env.register()

	rec, c := env.doJSONRequest(http.MethodPost, "/auth", map[string]string{
		"username": "test",
		"password": "Tester42@!",
	})
	require.NoError(t, env.Auth.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)

	userID, err := env.Issuer.ParseAccessToken(resp.Token)
	require.NoError(t, err)
	require.NotZero(t, userID)
}

func TestLoginHandlerStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.register()

	_, c := env.doJSONRequest(http.MethodPost, "/auth", map[string]string{"username": "test"})
	he := env.Auth.Login(c).(*echo.HTTPError)
	require.Equal(t, http.StatusBadRequest, he.Code, "missing password")

	_, c = env.doJSONRequest(http.MethodPost, "/auth", map[string]string{
		"username": "nobody", "password": "Tester42@!",
	})
	he = env.Auth.Login(c).(*echo.HTTPError)
	require.Equal(t, http.StatusNotFound, he.Code, "unknown user")

	_, c = env.doJSONRequest(http.MethodPost, "/auth", map[string]string{
		"username": "test", "password": "wrong",
	})
	he = env.Auth.Login(c).(*echo.HTTPError)
	require.Equal(t, http.StatusUnauthorized, he.Code, "bad password")
}

func TestRefreshHandler(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register()

	rec, c := env.doJSONRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": resp.RefreshToken,
	})
	require.NoError(t, env.Auth.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	require.NotEmpty(t, refreshed.Token)
	require.Equal(t, resp.RefreshToken, refreshed.RefreshToken)
}

func TestRefreshHandlerRejections(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/auth/refresh", map[string]string{})
	he := env.Auth.Refresh(c).(*echo.HTTPError)
	require.Equal(t, http.StatusForbidden, he.Code, "missing token")

	_, c = env.doJSONRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": "never-issued",
	})
	he = env.Auth.Refresh(c).(*echo.HTTPError)
	require.Equal(t, http.StatusForbidden, he.Code, "unknown token")
}

func TestLogoutHandler(t *testing.T) {
	env := newTestEnv(t)
	resp := env.register()

	rec, c := env.doJSONRequest(http.MethodPost, "/auth/logout", map[string]string{
		"refreshToken": resp.RefreshToken,
	})
	require.NoError(t, env.Auth.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.doJSONRequest(http.MethodPost, "/auth/refresh", map[string]string{
		"refreshToken": resp.RefreshToken,
	})
	he := env.Auth.Refresh(c).(*echo.HTTPError)
	require.Equal(t, http.StatusForbidden, he.Code)
}

func TestCheckCredentialsHandler(t *testing.T) {
	env := newTestEnv(t)
	env.register()

	rec, c := env.doJSONRequest(http.MethodGet, "/auth/check-credentials?username=test", nil)
	require.NoError(t, env.Auth.CheckCredentials(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Available bool `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Available)

	rec, c = env.doJSONRequest(http.MethodGet, "/auth/check-credentials?username=fresh&email=fresh@example.com", nil)
	require.NoError(t, env.Auth.CheckCredentials(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Available)

	_, c = env.doJSONRequest(http.MethodGet, "/auth/check-credentials", nil)
	he := env.Auth.CheckCredentials(c).(*echo.HTTPError)
	require.Equal(t, http.StatusBadRequest, he.Code)
}
