// Package testutil holds helpers for tests that drive a host.Runtime.
//
// Runtimes built here are deterministic: record IDs come from a sequence
// generator (rec-1, rec-2, ...) and logs are discarded.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/host"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRuntime creates a runtime over store with sequential record IDs and a
// discarding logger. opts are applied afterwards and may override both.
func NewRuntime(store host.ByteStore, owner schema.Principal, opts ...host.Option) *host.Runtime {
	base := []host.Option{
		host.WithLogger(DiscardLogger()),
		host.WithIDGenerator(versions.NewSequenceGenerator("")),
	}
	return host.New(store, owner, append(base, opts...)...)
}

// MustConstruct constructs the contract or fails the test.
func MustConstruct(t testing.TB, rt *host.Runtime, caller schema.Principal, name string) host.Outcome {
	t.Helper()
	out, err := rt.Construct(context.Background(), caller, name)
	if err != nil {
		t.Fatalf("construct %q: %v", name, err)
	}
	return out
}

// MustCall runs op or fails the test.
func MustCall(t testing.TB, rt *host.Runtime, caller schema.Principal, op string, args engine.Args) host.Outcome {
	t.Helper()
	out, err := rt.Call(context.Background(), caller, op, args)
	if err != nil {
		t.Fatalf("%s by %s: %v", op, caller, err)
	}
	return out
}
