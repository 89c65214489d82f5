// Package registry provides the static agent capability registry: a
// read-only mapping from capability name to invocation descriptor, loaded
// once at startup and safe for concurrent reads without locking.
package registry
