// Package trace implements the run-correlated trace recorder: an
// append-only, in-memory span log queryable while a run is still in flight,
// plus an optional OpenTelemetry bridge that pushes finished spans to an
// external OTLP collector. The collector is a write-only dependency; export
// failures never affect a run.
package trace
