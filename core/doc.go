// Package core defines the shared data model and contracts of the
// FoundryMesh orchestration core: agent descriptors, orchestration requests
// and runs, invocation records, trace spans, the error taxonomy and the
// interfaces (Registry, Invoker, Executor, Recorder) implemented by the
// sibling packages.
//
// The package is deliberately free of transport, pattern and storage
// concerns so that every other package can depend on it without cycles.
package core
