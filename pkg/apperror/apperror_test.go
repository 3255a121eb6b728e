package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "repo.monitor.get: boom", New(Internal, "repo.monitor.get", cause).Error())
	assert.Equal(t, "boom", (&Error{Err: cause}).Error())
	assert.Equal(t, "svc.monitor.create: bad url", Invalid("svc.monitor.create", "bad url").Error())
	assert.Equal(t, "unknown error", (&Error{}).Error())
}

func TestStackCapturedForInternalKinds(t *testing.T) {
	assert.NotEmpty(t, New(Internal, "op", nil).Stack)
	assert.NotEmpty(t, New(Dependency, "op", nil).Stack)
	assert.Empty(t, New(NotFound, "op", nil).Stack)
	assert.NotEmpty(t, (&Error{Kind: Internal}).WithErr(errors.New("x")).Stack)
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", &Error{Kind: NotFound, Op: "repo.monitor.get"})

	assert.True(t, IsKind(err, NotFound))
	assert.False(t, IsKind(err, Conflict))
	assert.False(t, IsKind(errors.New("plain"), NotFound))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Invalid("op", "bad")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&Error{Kind: NotFound}))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(&Error{Kind: RequestTimeout}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&Error{Kind: Dependency}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
