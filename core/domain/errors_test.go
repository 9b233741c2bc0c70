package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthFailuresShareMessage(t *testing.T) {
	assert.Equal(t, ErrUnknownUser.Error(), ErrBadPassword.Error())
	assert.Equal(t, "auth: authentication failed", ErrLocked.Error())

	wrapped := fmt.Errorf("file store: %w", ErrBadPassword)
	assert.True(t, errors.Is(wrapped, ErrBadPassword))
	assert.True(t, errors.Is(wrapped, ErrAuthFailed))
	assert.False(t, errors.Is(wrapped, ErrUnknownUser))
	assert.Equal(t, "bad password", FailureReason(wrapped))

	assert.False(t, errors.Is(ErrStoreUnavailable, ErrAuthFailed))
	assert.Equal(t, "", FailureReason(ErrStoreUnavailable))
}
