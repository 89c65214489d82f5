// Package logging provides a minimal logging interface and adapters for FoundryMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the orchestration core uses for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MeshLogger with run/component context and orchestration helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(reg, inv, func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
