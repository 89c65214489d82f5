package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// Transport moves one payload to one agent endpoint and returns the raw
// response body. Implementations classify failures through transportError
// so the client can decide whether a retry is worthwhile.
type Transport interface {
	RoundTrip(ctx context.Context, endpoint string, payload json.RawMessage) ([]byte, error)
}

// transportError wraps a transport failure with a transience marker. Only
// transient failures are eligible for the single retry.
type transportError struct {
	err       error
	transient bool
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// agentError is a well-formed error response from the agent itself. It is
// terminal and never retried.
type agentError struct {
	message string
	body    []byte
}

func (e *agentError) Error() string { return e.message }

// httpTransport posts JSON to the agent endpoint.
type httpTransport struct {
	client *http.Client
}

// newHTTPTransport builds the default HTTP transport. Per-invocation
// deadlines come from the request context, so the client itself carries no
// timeout.
func newHTTPTransport(client *http.Client) *httpTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &httpTransport{client: client}
}

// RoundTrip posts the payload and reads the full response body.
//
// Classification:
//   - connection-level errors (reset, refused, EOF) are transient
//   - 5xx and 429 responses are transient
//   - a JSON body with an "error" field is an agent-level failure (terminal)
//   - other non-2xx responses are terminal transport failures
func (t *httpTransport) RoundTrip(ctx context.Context, endpoint string, payload json.RawMessage) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &transportError{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &transportError{err: err, transient: isTransientNetErr(err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("read response: %w", err), transient: true}
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &transportError{err: fmt.Errorf("http status %d", resp.StatusCode), transient: true}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if msg, ok := wellFormedAgentError(body); ok {
			return nil, &agentError{message: msg, body: body}
		}
		return nil, &transportError{err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	if msg, ok := wellFormedAgentError(body); ok {
		return nil, &agentError{message: msg, body: body}
	}
	return body, nil
}

// wellFormedAgentError reports whether the body is a structured agent error
// response ({"error": "..."}).
func wellFormedAgentError(body []byte) (string, bool) {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Error == "" {
		return "", false
	}
	return probe.Error, true
}

func isTransientNetErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// StubHandler is an in-process agent implementation used by the stub
// transport.
type StubHandler func(ctx context.Context, payload json.RawMessage) ([]byte, error)

// stubTransport dispatches to registered in-process handlers keyed by
// endpoint. It keeps demos and tests free of real network listeners while
// exercising the exact same invocation path.
type stubTransport struct {
	handlers map[string]StubHandler
}

func newStubTransport() *stubTransport {
	return &stubTransport{handlers: make(map[string]StubHandler)}
}

func (t *stubTransport) register(endpoint string, h StubHandler) {
	t.handlers[endpoint] = h
}

// RoundTrip invokes the registered handler. Handler errors are transport
// failures (non-transient) unless the handler returns a structured agent
// error body.
func (t *stubTransport) RoundTrip(ctx context.Context, endpoint string, payload json.RawMessage) ([]byte, error) {
	h, ok := t.handlers[endpoint]
	if !ok {
		return nil, &transportError{err: fmt.Errorf("no stub handler for %s", endpoint)}
	}

	select {
	case <-ctx.Done():
		return nil, &transportError{err: ctx.Err()}
	default:
	}

	body, err := h(ctx, payload)
	if err != nil {
		return nil, &transportError{err: err}
	}
	if msg, ok := wellFormedAgentError(body); ok {
		return nil, &agentError{message: msg, body: body}
	}
	return body, nil
}
