package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("")
	assert.NoError(t, err)
	assert.Equal(t, PatternDefault, p)

	for _, name := range []string{"default", "sequential", "concurrent", "handoff", "groupchat"} {
		p, err := ParsePattern(name)
		assert.NoError(t, err)
		assert.Equal(t, Pattern(name), p)
	}
}

func TestParsePatternUnknown(t *testing.T) {
	_, err := ParsePattern("round_robin")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPatternValid(t *testing.T) {
	assert.True(t, PatternHandoff.Valid())
	assert.True(t, Pattern("").Valid())
	assert.False(t, Pattern("bogus").Valid())
}

func TestDescriptorTransportMode(t *testing.T) {
	assert.Equal(t, ModeHTTP, AgentDescriptor{Name: "a"}.TransportMode())
	assert.Equal(t, ModeStub, AgentDescriptor{Name: "a", Mode: ModeStub}.TransportMode())
}
