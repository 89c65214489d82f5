package testutil

import (
	"context"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
	"github.com/yadejumobi/foundrymesh/trace"
)

// RunContextOptions tunes the run context built by NewRunContext.
type RunContextOptions struct {
	Context     context.Context
	MaxHandoffs int
	MaxRounds   int
}

// NewRunContext builds a fresh run plus a RunContext over it, wired to an
// in-memory trace recorder, for exercising a pattern executor in isolation.
func NewRunContext(req core.OrchestrationRequest, reg core.Registry, inv core.Invoker, optFns ...func(o *RunContextOptions)) *core.RunContext {
	opts := RunContextOptions{
		Context:     context.Background(),
		MaxHandoffs: 5,
		MaxRounds:   3,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	run := core.NewRun(req)
	rec := trace.NewRecorder()
	root := rec.StartSpan(run.ID(), "", "orchestrate."+string(req.Pattern))

	return core.NewRunContext(opts.Context, run, reg, inv, rec, root,
		opts.MaxHandoffs, opts.MaxRounds, logging.NoOpLogger{})
}
