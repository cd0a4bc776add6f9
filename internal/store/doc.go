// Package store provides SQLite-backed durable storage for rewrite runs.
//
// The store is an append-only log with:
//   - Runs: one header per run (definition, initial and final strings, status)
//   - Steps: one row per applied rule, keyed by (run_id, seq)
//
// # Critical Patterns
//
// Logical Time:
//   - Step ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - A stored trace reads back in exactly the order it was applied
//
// Deterministic Query Results:
//   - Step queries use ORDER BY seq ASC
//   - Run listings use ORDER BY id COLLATE BINARY ASC; UUIDv7 ids sort by
//     creation time
//
// Idempotent Writes:
//   - WriteStep uses ON CONFLICT(run_id, seq) DO NOTHING
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Definitions are stored as canonical JSON (see internal/ir) together with
// their domain-separated hash.
package store
