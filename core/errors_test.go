package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvocationErrorError(t *testing.T) {
	ie := NewInvocationError(ErrorKindTimeout, "inventory", "no response within 5s", nil)
	assert.Equal(t, "agent inventory: timeout: no response within 5s", ie.Error())

	bare := NewInvocationError(ErrorKindTransport, "inventory", "", nil)
	assert.Equal(t, "agent inventory: transport", bare.Error())
}

func TestInvocationErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	ie := NewInvocationError(ErrorKindTransport, "inventory", "dial failed", cause)
	assert.ErrorIs(t, ie, cause)
}

func TestAsInvocationError(t *testing.T) {
	assert.Nil(t, AsInvocationError("a", nil))

	ie := NewInvocationError(ErrorKindSchema, "a", "missing field", nil)
	assert.Same(t, ie, AsInvocationError("a", ie))

	wrapped := AsInvocationError("a", errors.New("boom"))
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorKindTransport, wrapped.Kind)
	assert.Equal(t, "a", wrapped.Agent)
	assert.Equal(t, "boom", wrapped.Detail)
}
