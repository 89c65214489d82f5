// Package client implements the agent invocation client: the uniform
// request/response transport between the orchestration core and the worker
// agent services.
//
// A Client owns a set of transport strategies keyed by descriptor mode
// ("http" for external JSON services, "stub" for in-process handlers). The
// strategy is selected once at descriptor resolution time. On top of the
// raw transport the client applies the per-descriptor timeout, exactly one
// retry on transient transport failure, and response schema validation.
package client
