package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromResponse_StringDetail(t *testing.T) {
	appErr := FromResponse(http.StatusBadRequest, []byte(`{"detail": "Only pending requests can be cancelled"}`))

	assert.Equal(t, ErrCodeBadRequest, appErr.Code)
	assert.Equal(t, "Only pending requests can be cancelled", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestFromResponse_ValidationList(t *testing.T) {
	body := []byte(`{"detail": [
		{"loc": ["body", "email"], "msg": "value is not a valid email address"},
		{"loc": ["body", "password"], "msg": "too short"}
	]}`)

	appErr := FromResponse(http.StatusUnprocessableEntity, body)

	assert.Equal(t, ErrCodeValidation, appErr.Code)
	assert.Equal(t, "value is not a valid email address", appErr.Message)
	assert.Equal(t, "email", appErr.Field)
}

func TestFromResponse_NestedLocSkipsBody(t *testing.T) {
	body := []byte(`{"detail": [{"loc": ["body", "provider", "base_price"], "msg": "must be positive"}]}`)

	appErr := FromResponse(http.StatusUnprocessableEntity, body)

	assert.Equal(t, "base_price", appErr.Field)
}

func TestFromResponse_NonJSONBody(t *testing.T) {
	appErr := FromResponse(http.StatusUnauthorized, []byte("<html>nope</html>"))

	assert.Equal(t, ErrCodeUnauthorized, appErr.Code)
	assert.Equal(t, "session expired, please log in again", appErr.Message)
}

func TestFromResponse_EmptyBodyFallbacks(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusInternalServerError, ErrCodeServer},
	}
	for _, tc := range cases {
		appErr := FromResponse(tc.status, nil)
		assert.Equal(t, tc.code, appErr.Code, "status %d", tc.status)
		assert.NotEmpty(t, appErr.Message)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := Wrap(cause, ErrCodeTransport, "backend unreachable")

	assert.True(t, IsTransport(appErr))
	assert.ErrorIs(t, appErr, cause)
	assert.Contains(t, appErr.Error(), "connection refused")
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	inner := New(ErrCodeUnauthorized, "token expired")
	outer := fmt.Errorf("loading dashboard: %w", inner)

	assert.True(t, IsUnauthorized(outer))
	assert.False(t, IsForbidden(outer))
}
