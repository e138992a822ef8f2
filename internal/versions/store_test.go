package versions

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(NewSequenceGenerator("rec"))
}

func TestAppendReturnsLength(t *testing.T) {
	s := newTestStore(t)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 1, s.Append(schema.NewV1("Ada")))
	assert.Equal(t, 2, s.Append(schema.V2{}))
	assert.Equal(t, 2, s.Len())
	assert.False(t, s.IsEmpty())
}

func TestAppendFirstRecordBecomesCurrent(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{})

	idx, e, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, RecordID("rec-1"), e.ID)
}

func TestGetOutOfRange(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))

	_, err := s.Get(1)
	assert.True(t, fault.IsNotFound(err))
	_, err = s.Get(-1)
	assert.True(t, fault.IsNotFound(err))
}

func TestReplace(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{FavoriteColor: "blue"})

	require.NoError(t, s.Replace(1, schema.V2{FavoriteColor: "red"}))
	e, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "red", e.Record.(schema.V2).FavoriteColor)
	assert.Equal(t, RecordID("rec-2"), e.ID, "replace keeps the record id")
}

func TestReplaceErrors(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))

	err := s.Replace(3, schema.NewV1("x"))
	assert.True(t, fault.IsIndexOutOfRange(err))

	err = s.Replace(0, schema.V2{})
	assert.True(t, fault.IsVersionMismatch(err))
}

func TestSwapRemoveRelocatesLast(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{FavoriteColor: "blue"})
	s.Append(schema.V3{})

	require.NoError(t, s.SwapRemove(0))
	require.Equal(t, 2, s.Len())

	e0, _ := s.Get(0)
	e1, _ := s.Get(1)
	assert.Equal(t, schema.TagV3, e0.Record.Tag(), "last record moved into slot 0")
	assert.Equal(t, schema.TagV2, e1.Record.Tag())
	assert.Equal(t, RecordID("rec-3"), e0.ID)
}

func TestSwapRemoveLastSlot(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{})

	require.NoError(t, s.SwapRemove(1))
	assert.Equal(t, 1, s.Len())
	_, ok := s.Slot(schema.TagV2)
	assert.False(t, ok)
}

func TestSwapRemoveOutOfRange(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	assert.True(t, fault.IsIndexOutOfRange(s.SwapRemove(1)))
	assert.Equal(t, 1, s.Len())
}

func TestLookupFollowsRelocation(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{FavoriteColor: "blue"})

	require.NoError(t, s.SwapRemove(0))

	idx, e, err := s.Lookup(schema.TagV2)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "gen-2 moved into slot 0")
	assert.Equal(t, "blue", e.Record.(schema.V2).FavoriteColor)

	_, _, err = s.Lookup(schema.TagV1)
	assert.True(t, fault.IsVersionMismatch(err))
}

func TestDuplicateTagKeepsFirstRegistration(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{FavoriteColor: "first"})
	s.Append(schema.V2{FavoriteColor: "second"})

	idx, e, err := s.Lookup(schema.TagV2)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "first", e.Record.(schema.V2).FavoriteColor)

	require.NoError(t, s.SwapRemove(1))
	idx, e, err = s.Lookup(schema.TagV2)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "second", e.Record.(schema.V2).FavoriteColor, "registration handed to the surviving duplicate")
}

func TestCurrentFollowsRecord(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{})
	s.Append(schema.V3{})
	require.NoError(t, s.SetCurrent(2))

	require.NoError(t, s.SwapRemove(0))

	idx, e, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "gen-3 was relocated into slot 0")
	assert.Equal(t, schema.TagV3, e.Record.Tag())
}

func TestCurrentRepointedWhenRemoved(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{})
	s.Append(schema.V3{})
	require.NoError(t, s.SetCurrent(2))

	require.NoError(t, s.SwapRemove(2))

	_, e, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, schema.TagV2, e.Record.Tag(), "highest remaining generation becomes current")
}

func TestSetCurrentOutOfRange(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	assert.True(t, fault.IsIndexOutOfRange(s.SetCurrent(4)))
}

func TestCurrentOnEmptyStore(t *testing.T) {
	s := newTestStore(t)
	_, _, err := s.Current()
	assert.True(t, fault.IsNotFound(err))
}

func TestSlots(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))
	s.Append(schema.V2{})
	require.NoError(t, s.SetCurrent(1))

	slots := s.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, SlotInfo{Index: 0, ID: "rec-1", Tag: schema.TagV1, Label: "gen-1"}, slots[0])
	assert.Equal(t, SlotInfo{Index: 1, ID: "rec-2", Tag: schema.TagV2, Label: "gen-2", Current: true}, slots[1])
}

func TestEntriesAndRegistryAreCopies(t *testing.T) {
	s := newTestStore(t)
	s.Append(schema.NewV1("Ada"))

	entries := s.Entries()
	entries[0].ID = "tampered"
	reg := s.Registry()
	delete(reg, schema.TagV1)

	e, _ := s.Get(0)
	assert.Equal(t, RecordID("rec-1"), e.ID)
	_, ok := s.Slot(schema.TagV1)
	assert.True(t, ok)
}

// TestProperty_SwapRemoveBookkeeping validates that after any sequence of
// appends and swap-removes, every registered tag resolves to a record of that
// tag, and the current pointer (when non-empty) names a live record.
func TestProperty_SwapRemoveBookkeeping(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("registry and current pointer track records across removals", prop.ForAll(
		func(ops []int) bool {
			s := New(NewSequenceGenerator("p"))
			var model []schema.Tag
			for _, op := range ops {
				if op < 3 || len(model) == 0 {
					tag := schema.Tags[op%3]
					var rec schema.Record
					switch tag {
					case schema.TagV1:
						rec = schema.NewV1("n")
					case schema.TagV2:
						rec = schema.V2{}
					default:
						rec = schema.V3{}
					}
					s.Append(rec)
					model = append(model, tag)
					continue
				}
				idx := op % len(model)
				if err := s.SwapRemove(idx); err != nil {
					return false
				}
				last := len(model) - 1
				model[idx] = model[last]
				model = model[:last]
			}

			if s.Len() != len(model) {
				return false
			}
			for i, tag := range model {
				e, err := s.Get(i)
				if err != nil || e.Record.Tag() != tag {
					return false
				}
			}
			for tag := range s.Registry() {
				if _, e, err := s.Lookup(tag); err != nil || e.Record.Tag() != tag {
					return false
				}
			}
			if len(model) > 0 {
				if _, _, err := s.Current(); err != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.TestingRun(t)
}
