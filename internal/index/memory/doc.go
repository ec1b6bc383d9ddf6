// Package memory provides in-process index implementations scoped to a
// single index generation. A generation is built once by an indexing run
// and read-shared by concurrent queries; it is never mutated after the
// orchestrator swaps it in, so searches need no locking beyond the
// build-time mutex.
package memory
