// Package engine implements the genstore contract: the versioned state object
// and every externally invocable operation on it.
//
// LIFECYCLE:
//
// A *Contract only exists in the Ready state. It is obtained from Construct
// (fresh store holding one gen-1 record) or Decode (persisted snapshot).
// Uninitialized has no value; the host reports it when no snapshot exists.
//
// CALL MODEL:
//
// Every operation runs against one Contract and one Env. Mutating operations
// check the owner first and fail with Unauthorized before touching state.
// Operations are not transactional on their own: a failed call may leave the
// in-memory Contract partially written, and the host is expected to discard
// it. host.Runtime does this by decoding a fresh Contract per call and
// persisting only on success.
//
// DISPATCH:
//
// Field access goes through internal/dispatch, which resolves generations by
// tag through the version store's registry. Migrations go through
// internal/migrate, which keeps a ledger so each runs once.
package engine
