package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCauseInChain(t *testing.T) {
	cause := New("connection refused")

	err := Wrap(cause, "failed to get client")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to get client")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrapWithMatchesSentinelAndCause(t *testing.T) {
	cause := New("connection refused")

	err := WrapWith(cause, ErrPersistenceUnavailable, "failed to get client")

	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to get client")
}

func TestWrapWithNil(t *testing.T) {
	assert.Nil(t, WrapWith(nil, ErrPersistenceUnavailable, "ignored"))
}
