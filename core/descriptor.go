package core

import "time"

// Transport modes selectable per descriptor. The mode decides which transport
// strategy the invocation client uses; it is resolved once at descriptor
// lookup time, never by runtime type inspection.
const (
	// ModeHTTP invokes the agent as an external HTTP JSON service.
	ModeHTTP = "http"
	// ModeStub invokes an in-process handler. Used by tests and demos.
	ModeStub = "stub"
)

// AgentDescriptor describes one worker agent capability: where to reach it,
// what its response must look like and how the router should think about it.
//
// Descriptors are immutable after registry initialization; they are passed
// by value everywhere.
type AgentDescriptor struct {
	// Name is the unique capability key, e.g. "inventory" or "navigation".
	Name string `json:"name" mapstructure:"name"`

	// Endpoint is the invocation URL for HTTP transport.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// SchemaTag names the top-level field a well-formed response must carry
	// (e.g. "products" for inventory). A response missing it is a schema
	// violation, not a transport error.
	SchemaTag string `json:"schemaTag" mapstructure:"schema_tag"`

	// Role is a short free-text description of the capability used by the
	// handoff router's decision function.
	Role string `json:"role" mapstructure:"role"`

	// Mode selects the transport strategy ("http" by default).
	Mode string `json:"mode,omitempty" mapstructure:"mode"`

	// Timeout bounds a single invocation of this agent. Zero means the
	// client default applies.
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// TransportMode returns the descriptor's mode, defaulting to HTTP.
func (d AgentDescriptor) TransportMode() string {
	if d.Mode == "" {
		return ModeHTTP
	}
	return d.Mode
}
