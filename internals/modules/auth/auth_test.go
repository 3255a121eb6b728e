package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pagewatch/config"
	"pagewatch/internals/security"
	"pagewatch/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, hash string) (*Handler, *security.TokenService) {
	t.Helper()
	logger := zerolog.Nop()
	tokens := security.NewTokenService(&config.AuthConfig{Secret: "s3cret", ExpiryMin: 10})
	return NewHandler(NewService(hash, tokens, &logger), validator.New()), tokens
}

func postLogin(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	Routes(h).ServeHTTP(rec, req)
	return rec
}

func TestLogIn(t *testing.T) {
	hash, err := security.HashPassword("open-sesame")
	require.NoError(t, err)
	h, tokens := newTestHandler(t, hash)

	rec := postLogin(h, `{"password":"open-sesame"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp utils.SuccessResponse[LogInResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bearer", resp.Data.TokenType)

	claims, err := tokens.ValidateAccessToken(resp.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, security.AdminSubject, claims.Subject)
}

func TestLogIn_Rejects(t *testing.T) {
	hash, err := security.HashPassword("open-sesame")
	require.NoError(t, err)
	h, _ := newTestHandler(t, hash)

	assert.Equal(t, http.StatusUnauthorized, postLogin(h, `{"password":"guess"}`).Code)
	assert.Equal(t, http.StatusBadRequest, postLogin(h, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, postLogin(h, `{`).Code)
}

func TestLogIn_BrokenHash(t *testing.T) {
	h, _ := newTestHandler(t, "plaintext")
	assert.Equal(t, http.StatusInternalServerError, postLogin(h, `{"password":"x"}`).Code)
}
