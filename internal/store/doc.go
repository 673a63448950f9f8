// Package store provides SQLite-backed storage for resolution runs.
//
// A run records everything needed to audit a resolution after the fact:
// the baseline chain (as content-addressed document records), the
// horizon, the catalogue version, and every resolved (parameter, year)
// value.
//
// # Tables
//
//   - documents: reform documents, keyed by content hash
//   - runs: one row per resolution, keyed by UUIDv7
//   - run_documents: the baseline chain of a run, in layering order
//   - run_values: the resolved schedule of a run
//
// Document rows are idempotent: saving a chain that contains an
// already-stored document is a no-op for that document, enforced by
// ON CONFLICT(hash) DO NOTHING.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
