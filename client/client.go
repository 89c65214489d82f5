package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
)

// DefaultTimeout bounds invocations whose descriptor declares none.
const DefaultTimeout = 10 * time.Second

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// HTTPClient overrides the http.Client used by the HTTP transport.
	HTTPClient *http.Client
	// DefaultTimeout applies to descriptors without their own timeout.
	DefaultTimeout time.Duration
	// Logger receives per-attempt debug output.
	Logger logging.Logger
}

// Client is the core.Invoker implementation. It selects a transport
// strategy by descriptor mode, applies the per-descriptor timeout, retries
// exactly once on transient transport failure and validates the response
// against the descriptor's schema tag.
type Client struct {
	transports     map[string]Transport
	stub           *stubTransport
	defaultTimeout time.Duration
	logger         logging.Logger
}

// New constructs a Client with optional overrides.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		DefaultTimeout: DefaultTimeout,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	stub := newStubTransport()
	return &Client{
		transports: map[string]Transport{
			core.ModeHTTP: newHTTPTransport(opts.HTTPClient),
			core.ModeStub: stub,
		},
		stub:           stub,
		defaultTimeout: opts.DefaultTimeout,
		logger:         opts.Logger,
	}
}

// RegisterTransport installs (or replaces) a transport strategy for a mode.
func (c *Client) RegisterTransport(mode string, t Transport) {
	c.transports[mode] = t
}

// RegisterStub installs an in-process handler for a descriptor endpoint,
// reachable through mode "stub".
func (c *Client) RegisterStub(endpoint string, h StubHandler) {
	c.stub.register(endpoint, h)
}

// Invoke implements core.Invoker.
//
// Errors are always *core.InvocationError. A transient transport failure is
// retried exactly once; well-formed agent errors and schema violations are
// terminal. Responses that are not JSON objects, or that lack the
// descriptor's schema tag field, are classified as schema violations with
// the raw payload preserved for router normalization.
func (c *Client) Invoke(ctx context.Context, desc core.AgentDescriptor, payload json.RawMessage) (json.RawMessage, error) {
	transport, ok := c.transports[desc.TransportMode()]
	if !ok {
		return nil, core.NewInvocationError(core.ErrorKindTransport, desc.Name,
			fmt.Sprintf("no transport for mode %q", desc.TransportMode()), nil)
	}

	timeout := desc.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := transport.RoundTrip(ctx, desc.Endpoint, payload)
	if err != nil {
		var te *transportError
		if errors.As(err, &te) && te.transient && ctx.Err() == nil {
			c.logger.Debug("transient transport failure, retrying once", "agent", desc.Name, "error", err)
			body, err = transport.RoundTrip(ctx, desc.Endpoint, payload)
		}
	}
	if err != nil {
		return nil, c.classify(ctx, desc, timeout, err)
	}

	return c.validate(desc, body)
}

// classify maps a transport-layer error onto the invocation error taxonomy.
func (c *Client) classify(ctx context.Context, desc core.AgentDescriptor, timeout time.Duration, err error) *core.InvocationError {
	var ae *agentError
	if errors.As(err, &ae) {
		ie := core.NewInvocationError(core.ErrorKindAgent, desc.Name, ae.message, err)
		ie.Raw = ae.body
		return ie
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewInvocationError(core.ErrorKindTimeout, desc.Name,
			fmt.Sprintf("no response within %s", timeout), err)
	}
	return core.NewInvocationError(core.ErrorKindTransport, desc.Name, err.Error(), err)
}

// validate checks that the body is a JSON object carrying the descriptor's
// schema tag field. Failures are schema violations, never transport errors.
func (c *Client) validate(desc core.AgentDescriptor, body []byte) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		ie := core.NewInvocationError(core.ErrorKindSchema, desc.Name, "response is not a JSON object", err)
		ie.Raw = body
		return nil, ie
	}
	if desc.SchemaTag != "" {
		if _, ok := obj[desc.SchemaTag]; !ok {
			ie := core.NewInvocationError(core.ErrorKindSchema, desc.Name,
				fmt.Sprintf("response missing required field %q", desc.SchemaTag), nil)
			ie.Raw = body
			return nil, ie
		}
	}
	return json.RawMessage(body), nil
}
