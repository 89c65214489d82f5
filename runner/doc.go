// Package runner implements the orchestration controller: it validates
// incoming requests, creates runs, selects and supervises pattern
// executors, drives aggregation and owns the in-memory run store with its
// retention sweep. Public methods are safe for concurrent use.
package runner
