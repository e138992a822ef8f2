package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/host"
)

func TestNewRuntime_Deterministic(t *testing.T) {
	digests := make([]string, 2)
	for i := range digests {
		rt := NewRuntime(host.NewMemoryStore(), "owner.near")
		MustConstruct(t, rt, "owner.near", "Ada Lovelace")
		out := MustCall(t, rt, "owner.near", "add_generation_2", engine.Args{Color: "blue"})
		digests[i] = out.Digest
	}
	assert.Equal(t, digests[0], digests[1])
}

func TestNewRuntime_IDsAreSequential(t *testing.T) {
	rt := NewRuntime(host.NewMemoryStore(), "owner.near")
	MustConstruct(t, rt, "owner.near", "Ada")
	MustCall(t, rt, "owner.near", "add_generation_2", engine.Args{Color: "red"})

	stats, err := rt.Stats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats.Slots, 2)
	assert.Equal(t, "rec-1", string(stats.Slots[0].ID))
	assert.Equal(t, "rec-2", string(stats.Slots[1].ID))
}

func TestNewRuntime_OptionsOverride(t *testing.T) {
	store := host.NewMemoryStore()
	rt := NewRuntime(store, "owner.near", host.WithKey("other"))
	MustConstruct(t, rt, "owner.near", "Ada")

	_, ok, err := store.Load(context.Background(), "other")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = rt.Call(context.Background(), "eve.near", "set_name", engine.Args{Name: "Eve"})
	assert.True(t, fault.IsUnauthorized(err))
}
