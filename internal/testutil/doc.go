// Package testutil provides shared helpers for unit tests: a fluent agent
// descriptor builder, a scripted in-memory invoker and a run context
// factory for exercising pattern executors in isolation.
package testutil
