package host

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genstore/internal/dispatch"
	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/metrics"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

const owner schema.Principal = "genstore.near"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRuntime(t *testing.T, store ByteStore, opts ...Option) *Runtime {
	t.Helper()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithIDGenerator(versions.NewSequenceGenerator("")),
	}, opts...)
	return New(store, owner, opts...)
}

func snapshot(t *testing.T, s ByteStore) []byte {
	t.Helper()
	data, ok, err := s.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	return data
}

func TestCall_Uninitialized(t *testing.T) {
	r := newRuntime(t, NewMemoryStore())

	_, err := r.Call(context.Background(), owner, "get_name", engine.Args{})
	assert.True(t, fault.IsUninitialized(err))
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "get_name", fe.Op)
}

func TestConstruct_AlreadyInitialized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)

	out, err := r.Construct(ctx, owner, "Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, engine.OpConstruct, out.Op)
	assert.Len(t, out.Digest, 64)
	before := snapshot(t, store)

	_, err = r.Construct(ctx, owner, "Grace Hopper")
	assert.True(t, fault.IsAlreadyInitialized(err))
	assert.Equal(t, before, snapshot(t, store))
}

func TestConstruct_NotOwnerGated(t *testing.T) {
	r := newRuntime(t, NewMemoryStore())
	_, err := r.Construct(context.Background(), "anyone.near", "Ada")
	assert.NoError(t, err)
}

func TestCall_PersistsMutations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada Lovelace")
	require.NoError(t, err)

	_, err = r.Call(ctx, owner, "add_generation_2", engine.Args{Color: "blue"})
	require.NoError(t, err)

	// A second runtime over the same store sees the change.
	other := newRuntime(t, store)
	out, err := other.Call(ctx, "reader.near", "current_version", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, "gen-2", out.Result)

	out, err = other.Call(ctx, "reader.near", "get_all", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Profile{Name: "Ada Lovelace", FavoriteColor: "blue"}, out.Result)
}

func TestCall_FailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	before := snapshot(t, store)

	tests := []struct {
		name  string
		op    string
		args  engine.Args
		check func(error) bool
	}{
		{"stranger", "set_name", engine.Args{Name: "x"}, fault.IsUnauthorized},
		{"out of range", "log_record", engine.Args{Index: 3}, fault.IsIndexOutOfRange},
		{"absent generation", "set_favorite_color", engine.Args{Color: "x"}, fault.IsVersionMismatch},
		{"remove current", "remove_generation_1", engine.Args{}, fault.IsVersionMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := owner
			if tt.name == "stranger" {
				caller = "mallory.near"
			}
			_, err := r.Call(ctx, caller, tt.op, tt.args)
			assert.True(t, tt.check(err), "got %v", err)
			assert.Equal(t, before, snapshot(t, store))
		})
	}
}

func TestCall_MapKeysKeepTheirBytes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)

	precomposed, decomposed := "caf\u00e9", "cafe\u0301"
	_, err = r.Call(ctx, owner, "add_map_entry", engine.Args{Key: precomposed, Value: "one"})
	require.NoError(t, err)
	_, err = r.Call(ctx, owner, "add_map_entry", engine.Args{Key: decomposed, Value: "two"})
	require.NoError(t, err)

	// Every call reloads from the persisted bytes.
	out, err := r.Call(ctx, "reader.near", "map_len", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Result)

	out, err = newRuntime(t, store).Call(ctx, "reader.near", "get_map", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, []schema.Pair{
		{Key: schema.Principal(precomposed), Value: "one"},
		{Key: schema.Principal(decomposed), Value: "two"},
	}, out.Result)
}

func TestCall_RejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	before := snapshot(t, store)

	tests := []struct {
		name string
		op   string
		args engine.Args
	}{
		{"map key", "add_map_entry", engine.Args{Key: "\xff", Value: "v"}},
		{"other map key", "add_map_entry", engine.Args{Key: "\xfe", Value: "v"}},
		{"map value", "add_map_entry", engine.Args{Key: "k", Value: "a\xc3"}},
		{"name", "set_name", engine.Args{Name: "Ada\x80"}},
		{"color", "add_generation_2", engine.Args{Color: "\xed\xa0\x80"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Call(ctx, owner, tt.op, tt.args)
			assert.True(t, fault.IsInvalidArgument(err), "got %v", err)
			assert.Equal(t, before, snapshot(t, store))
		})
	}

	out, err := r.Call(ctx, owner, "map_len", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Result)
}

func TestConstruct_RejectsInvalidUTF8(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newRuntime(t, store)

	_, err := r.Construct(ctx, owner, "\xffAda")
	assert.True(t, fault.IsInvalidArgument(err))
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, engine.OpConstruct, fe.Op)

	_, ok, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCall_ReadOnlyDoesNotSave(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)

	out, err := r.Call(ctx, owner, "log_record", engine.Args{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{`State info for version at index 0: V1 { name: "Ada", aux: {} }`}, out.Logs)
	assert.Equal(t, 1, store.saves)

	_, err = r.Call(ctx, owner, "bloat_map", engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.saves)
}

func TestCall_FlushesLogsOnSuccess(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	r := newRuntime(t, NewMemoryStore(), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)

	_, err = r.Call(ctx, owner, "log_record", engine.Args{Index: 0})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "State info for version at index 0")
}

func TestCall_UnknownOperation(t *testing.T) {
	r := newRuntime(t, NewMemoryStore())
	_, err := r.Call(context.Background(), owner, "drop_tables", engine.Args{})
	assert.ErrorIs(t, err, engine.ErrUnknownOperation)
}

func TestCall_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: NewMemoryStore()}
	r := newRuntime(t, store)
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	before := snapshot(t, store)

	store.failSave = true
	_, err = r.Call(ctx, owner, "set_name", engine.Args{Name: "Grace"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save state")
	assert.Equal(t, before, snapshot(t, store))
}

func TestCall_Metrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New()
	r := newRuntime(t, NewMemoryStore(), WithMetrics(m))
	_, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	_, err = r.Call(ctx, "mallory.near", "set_name", engine.Args{Name: "x"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("construct", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("set_name", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records))
	assert.Greater(t, testutil.ToFloat64(m.SnapshotBytes), 0.0)
}

func TestCall_Journal(t *testing.T) {
	ctx := context.Background()
	store := &journalStore{MemoryStore: NewMemoryStore(), last: 41}
	r := newRuntime(t, store)

	out, err := r.Construct(ctx, owner, "Ada")
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.Seq)

	_, err = r.Call(ctx, "mallory.near", "set_name", engine.Args{Name: "x"})
	require.Error(t, err)

	require.Len(t, store.records, 2)
	assert.Equal(t, CallRecord{Seq: 42, Op: "construct", Caller: "genstore.near", Outcome: "ok", Digest: out.Digest}, store.records[0])
	assert.Equal(t, CallRecord{Seq: 43, Op: "set_name", Caller: "mallory.near", Outcome: "unauthorized"}, store.records[1])
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	r := newRuntime(t, NewMemoryStore())

	_, err := r.Stats(ctx)
	assert.True(t, fault.IsUninitialized(err))

	_, err = r.Construct(ctx, owner, "Ada Lovelace")
	require.NoError(t, err)
	_, err = r.Call(ctx, owner, "bloat_map", engine.Args{})
	require.NoError(t, err)

	st, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", st.Version)
	assert.Equal(t, 1, st.Records)
	assert.Equal(t, engine.BloatCount, st.MapLen)
	assert.Greater(t, st.Bytes, 0)
	assert.Empty(t, st.Migrations)

	for _, step := range []struct {
		op   string
		args engine.Args
	}{
		{"add_generation_2", engine.Args{Color: "blue"}},
		{"add_generation_3_and_migrate", engine.Args{}},
		{"remove_generation_1", engine.Args{}},
	} {
		_, err = r.Call(ctx, owner, step.op, step.args)
		require.NoError(t, err, step.op)
	}

	st, err = r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gen-3", st.Version)
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, -1, st.MapLen)
	assert.Equal(t, []string{"add_generation_2", "add_generation_3_and_migrate", "remove_generation_1"}, st.Migrations)
}

func TestMemoryStore_CopiesBytes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	data := []byte("abc")
	require.NoError(t, s.Save(ctx, "k", data))
	data[0] = 'x'

	got, ok, err := s.Load(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

type countingStore struct {
	*MemoryStore
	saves int
}

func (s *countingStore) Save(ctx context.Context, key string, data []byte) error {
	s.saves++
	return s.MemoryStore.Save(ctx, key, data)
}

type failingStore struct {
	*MemoryStore
	failSave bool
}

func (s *failingStore) Save(ctx context.Context, key string, data []byte) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.MemoryStore.Save(ctx, key, data)
}

type journalStore struct {
	*MemoryStore
	last    int64
	records []CallRecord
}

func (s *journalStore) LastSeq(context.Context) (int64, error) { return s.last, nil }

func (s *journalStore) AppendCall(_ context.Context, rec CallRecord) error {
	s.records = append(s.records, rec)
	return nil
}
