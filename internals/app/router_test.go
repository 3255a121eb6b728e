package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pagewatch/config"
	"pagewatch/internals/security"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T, withAuth bool) *Container {
	t.Helper()
	dir := t.TempDir()

	auth := ""
	if withAuth {
		hash, err := security.HashPassword("letmein")
		require.NoError(t, err)
		auth = fmt.Sprintf("auth:\n  secret: s3cret\n  admin_password_hash: %q\n", hash)
	}

	yaml := fmt.Sprintf(`env: test
service_name: pagewatch
port: 8080
store:
  driver: sqlite
  sqlite_path: %s
fetcher:
  driver: http
artifacts:
  dir: %s
%s`, filepath.Join(dir, "monitors.db"), filepath.Join(dir, "shots"), auth)

	path := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	logger := zerolog.Nop()
	c, err := NewContainer(context.Background(), cfg, &logger)
	require.NoError(t, err)

	c.ResultPro.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Shutdown(ctx)
	})
	return c
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Health(t *testing.T) {
	h := RegisterRoutes(newTestContainer(t, false))
	rec := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"in_flight":0`)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)
}

func TestRoutes_OpenAPIWithoutAuth(t *testing.T) {
	h := RegisterRoutes(newTestContainer(t, false))

	rec := do(h, http.MethodPost, "/api/v1/monitors/", `{"url":"https://example.com","interval_sec":30}`, "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/v1/auth/login", `{"password":"x"}`, "").Code)
}

func TestRoutes_AuthFlow(t *testing.T) {
	h := RegisterRoutes(newTestContainer(t, true))

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/v1/monitors/", "", "").Code)

	rec := do(h, http.MethodPost, "/api/v1/auth/login", `{"password":"letmein"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	token := login.Data.AccessToken
	require.NotEmpty(t, token)

	rec = do(h, http.MethodPost, "/api/v1/monitors/", `{"url":"https://example.com","interval_sec":30}`, token)
	assert.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/monitors/", "", token).Code)
}

func TestRoutes_ScreenshotsArePublic(t *testing.T) {
	h := RegisterRoutes(newTestContainer(t, true))

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/api/v1/screenshots/monitor-x.png", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/v1/screenshots/evil.exe", "", "").Code)
}
