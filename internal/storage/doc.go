// Package storage implements the persistent key-value capability used to
// keep the session credential and user profile across process restarts.
//
// Backends:
//
//   - Memory: process-local map, used by tests and ephemeral sessions
//   - Badger: embedded on-disk store (default)
//   - Redis: shared store, keys namespaced by a prefix
//   - SQLite: single-file store
//
// Any backend can be wrapped in Sealed, which encrypts values at rest with
// a passphrase-derived key.
package storage
