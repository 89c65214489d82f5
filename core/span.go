package core

import "time"

// TraceSpan is a timed, attributed record of one unit of work correlated to
// a run. Spans are append-only: once emitted they are never mutated, and the
// spans of a single run form a tree rooted at one controller-level span
// (the only span with an empty ParentID).
type TraceSpan struct {
	RunID      string            `json:"runId"`
	ID         string            `json:"id"`
	ParentID   string            `json:"parentId,omitempty"`
	Agent      string            `json:"agent,omitempty"`
	Label      string            `json:"label"`
	StartedAt  time.Time         `json:"startedAt"`
	EndedAt    time.Time         `json:"endedAt,omitzero"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// SpanHandle identifies an open span returned by Recorder.StartSpan.
type SpanHandle struct {
	RunID  string
	SpanID string
}
