package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneAndWrapMatchSentinels(t *testing.T) {
	cloned := Clone(ErrNotFound, "class not found")
	assert.True(t, errors.Is(cloned, ErrNotFound))
	assert.Equal(t, "class not found", cloned.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)

	wrapped := fmt.Errorf("outer: %w", Wrap(errors.New("boom"), ErrTransport.Code, ErrTransport.Status, "GET x failed"))
	assert.True(t, errors.Is(wrapped, ErrTransport))
	assert.False(t, errors.Is(wrapped, ErrDecode))
	assert.Contains(t, wrapped.Error(), "boom")
}

func TestFromStatusKeepsServerText(t *testing.T) {
	err := FromStatus(http.StatusUnauthorized, "", "missing access token")
	assert.Equal(t, http.StatusUnauthorized, err.Status)
	assert.Equal(t, ErrUpstream.Code, err.Code)
	assert.Equal(t, "missing access token", err.Error())

	assert.Equal(t, "Service Unavailable", FromStatus(http.StatusServiceUnavailable, "", "").Message)
	assert.Equal(t, ErrUpstream.Message, FromStatus(599, "", "").Message)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))
	assert.Same(t, ErrConflict, FromError(ErrConflict))

	plain := FromError(errors.New("db down"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}
