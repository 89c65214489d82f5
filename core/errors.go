package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when an orchestration request is rejected
	// before any agent invocation (unknown pattern, missing agent list, ...).
	ErrInvalidRequest = errors.New("invalid orchestration request")

	// ErrUnknownAgent is returned when a capability name has no registered
	// descriptor.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrRunNotFound is returned for unknown or already evicted run
	// identities.
	ErrRunNotFound = errors.New("run not found")

	// ErrHandoffLimitExceeded is returned when the router reaches the handoff
	// bound without selecting the terminal done action.
	ErrHandoffLimitExceeded = errors.New("handoff limit exceeded")
)

// ErrorKind classifies an invocation failure.
type ErrorKind string

const (
	// ErrorKindTransport marks a transport-level failure after the single
	// transient retry has been exhausted.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindSchema marks a response that arrived but failed schema
	// validation (non-JSON body or missing required field).
	ErrorKindSchema ErrorKind = "schema_violation"
	// ErrorKindTimeout marks an invocation that exceeded its per-descriptor
	// timeout.
	ErrorKindTimeout ErrorKind = "timeout"
	// ErrorKindAgent marks a well-formed error response from the agent
	// itself. Terminal; never retried.
	ErrorKindAgent ErrorKind = "agent"
	// ErrorKindCancelled marks an invocation cut short by run cancellation.
	ErrorKindCancelled ErrorKind = "cancelled"
)

// InvocationError is the typed failure attached to an AgentInvocation.
//
// Raw holds the agent's verbatim payload when one was received; the handoff
// router uses it to attempt normalization of merely malformed output.
type InvocationError struct {
	Kind   ErrorKind `json:"kind"`
	Agent  string    `json:"agent"`
	Detail string    `json:"detail"`
	Raw    []byte    `json:"-"`
	Err    error     `json:"-"`
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("agent %s: %s: %s", e.Agent, e.Kind, e.Detail)
	}
	return fmt.Sprintf("agent %s: %s", e.Agent, e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *InvocationError) Unwrap() error { return e.Err }

// NewInvocationError constructs a typed invocation failure.
func NewInvocationError(kind ErrorKind, agent, detail string, err error) *InvocationError {
	return &InvocationError{Kind: kind, Agent: agent, Detail: detail, Err: err}
}

// AsInvocationError unwraps err into an *InvocationError, wrapping foreign
// errors as transport failures so callers always get a classified value.
func AsInvocationError(agent string, err error) *InvocationError {
	if err == nil {
		return nil
	}
	var ie *InvocationError
	if errors.As(err, &ie) {
		return ie
	}
	return NewInvocationError(ErrorKindTransport, agent, err.Error(), err)
}
