package trace

import (
	"sort"
	"sync"
	"time"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/internal/util"
)

// Recorder is the in-memory core.Recorder implementation.
//
// Spans are stored per run and appended under a per-run lock, so one writer
// per in-flight invocation is safe. Reads return deep copies ordered by
// start time and tolerate in-progress runs.
type Recorder struct {
	mu       sync.RWMutex
	runs     map[string]*runSpans
	exporter SpanExporter
}

type runSpans struct {
	mu    sync.Mutex
	spans []*core.TraceSpan
	byID  map[string]*core.TraceSpan
}

// RecorderOptions holds overrides passed to NewRecorder().
type RecorderOptions struct {
	// Exporter receives every finished span. Nil disables export.
	Exporter SpanExporter
}

// NewRecorder constructs an empty recorder.
func NewRecorder(optFns ...func(o *RecorderOptions)) *Recorder {
	opts := RecorderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Recorder{runs: make(map[string]*runSpans), exporter: opts.Exporter}
}

// StartSpan opens a span for a run. An empty parentID marks the root span;
// a run must have exactly one, created by the controller.
func (r *Recorder) StartSpan(runID, parentID, label string) core.SpanHandle {
	span := &core.TraceSpan{
		RunID:     runID,
		ID:        util.NewID(),
		ParentID:  parentID,
		Label:     label,
		StartedAt: time.Now().UTC(),
	}

	rs := r.forRun(runID)
	rs.mu.Lock()
	rs.spans = append(rs.spans, span)
	rs.byID[span.ID] = span
	rs.mu.Unlock()

	return core.SpanHandle{RunID: runID, SpanID: span.ID}
}

// EndSpan closes an open span, attaching attributes. The "agent" attribute,
// when present, is promoted onto the span's Agent field. Ending an unknown
// or already closed span is a no-op.
func (r *Recorder) EndSpan(h core.SpanHandle, attrs map[string]string) {
	r.mu.RLock()
	rs, ok := r.runs[h.RunID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	rs.mu.Lock()
	span, ok := rs.byID[h.SpanID]
	if !ok || !span.EndedAt.IsZero() {
		rs.mu.Unlock()
		return
	}
	span.EndedAt = time.Now().UTC()
	if len(attrs) > 0 {
		span.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			span.Attributes[k] = v
		}
		span.Agent = attrs["agent"]
	}
	finished := *span
	rs.mu.Unlock()

	if r.exporter != nil {
		r.exporter.Export(finished)
	}
}

// Spans returns copies of the spans emitted so far for a run, ordered by
// start time. Unknown runs yield an empty slice.
func (r *Recorder) Spans(runID string) []core.TraceSpan {
	r.mu.RLock()
	rs, ok := r.runs[runID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	rs.mu.Lock()
	out := make([]core.TraceSpan, len(rs.spans))
	for i, s := range rs.spans {
		out[i] = *s
		if s.Attributes != nil {
			out[i].Attributes = make(map[string]string, len(s.Attributes))
			for k, v := range s.Attributes {
				out[i].Attributes[k] = v
			}
		}
	}
	rs.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Drop discards all spans of a run. Called by the controller's retention
// sweep.
func (r *Recorder) Drop(runID string) {
	r.mu.Lock()
	delete(r.runs, runID)
	r.mu.Unlock()
}

func (r *Recorder) forRun(runID string) *runSpans {
	r.mu.RLock()
	rs, ok := r.runs[runID]
	r.mu.RUnlock()
	if ok {
		return rs
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rs, ok = r.runs[runID]; ok {
		return rs
	}
	rs = &runSpans{byID: make(map[string]*core.TraceSpan)}
	r.runs[runID] = rs
	return rs
}
