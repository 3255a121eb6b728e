package security

import (
	"testing"
	"time"

	"pagewatch/config"
	"pagewatch/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	ok, err := ComparePassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ComparePassword("hunter2", "not-a-hash")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService(&config.AuthConfig{Secret: "s3cret", ExpiryMin: 30})

	token, expiresAt, err := ts.GenerateAccessToken(AdminSubject)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := ts.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, claims.Subject)
}

func TestTokenRejectsForeignSecret(t *testing.T) {
	mine := NewTokenService(&config.AuthConfig{Secret: "mine", ExpiryMin: 5})
	theirs := NewTokenService(&config.AuthConfig{Secret: "theirs", ExpiryMin: 5})

	token, _, err := theirs.GenerateAccessToken(AdminSubject)
	require.NoError(t, err)

	_, err = mine.ValidateAccessToken(token)
	assert.True(t, apperror.IsKind(err, apperror.Unauthorised))
}

func TestTokenRejectsExpired(t *testing.T) {
	ts := NewTokenService(&config.AuthConfig{Secret: "s3cret", ExpiryMin: 1})
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := ts.GenerateAccessToken(AdminSubject)
	require.NoError(t, err)

	ts.now = time.Now
	_, err = ts.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestTokenRejectsGarbage(t *testing.T) {
	ts := NewTokenService(&config.AuthConfig{Secret: "s3cret", ExpiryMin: 1})
	_, err := ts.ValidateAccessToken("a.b.c")
	assert.Error(t, err)
}
