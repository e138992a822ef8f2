// Package store provides SQLite-backed persistence for contract snapshots.
//
// The store holds two tables:
//   - snapshots: the latest committed state per key, replaced whole on save
//   - call_log: an append-only journal of host calls
//
// Store implements host.ByteStore and host.Journal.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5 seconds for locks
//   - foreign_keys=ON
//   - Single connection: one writer, matching the host's serialized calls
//
// Schema upgrades are tracked with PRAGMA user_version.
package store
