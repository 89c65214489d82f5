// Package pattern implements the five orchestration strategies behind the
// common core.Executor contract: Coordinated (the default deterministic
// plan), Sequential (caller-ordered pipeline), Concurrent (independent
// fan-out), Handoff (router decision loop) and GroupChat (bounded
// worker/reviewer rounds).
//
// Executors record every invocation onto the run through the RunContext, so
// the controller and the aggregator see one uniform invocation list no
// matter which strategy produced it.
package pattern
