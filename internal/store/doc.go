// Package store provides SQLite-backed snapshot history for model instances.
//
// Two tables:
//   - instances: one row per model instance (id, model name, first seq)
//   - snapshots: every committed snapshot as canonical JSON with its
//     fingerprint, keyed by (instance_id, seq)
//
// Writes are idempotent: re-recording the same (instance, seq) is a no-op.
// Reads are ordered by seq so history replays in commit order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: snapshots must reference a known instance
//   - One open connection: SQLite has a single writer
package store
