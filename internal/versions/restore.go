package versions

import (
	"fmt"

	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
)

// Restore rebuilds a store from decoded state and checks its bookkeeping:
// unique IDs, registry entries that name existing records of the right tag,
// and a current pointer that names an existing record.
// Inconsistencies are CorruptState failures.
func Restore(entries []Entry, registry map[schema.Tag]RecordID, current RecordID, ids IDGenerator) (*Store, error) {
	s := New(ids)
	for i, e := range entries {
		if e.ID == "" {
			return nil, fault.NewCorruptState(fmt.Sprintf("slot %d has no record id", i))
		}
		if e.Record == nil {
			return nil, fault.NewCorruptState(fmt.Sprintf("slot %d has no record", i))
		}
		if _, dup := s.byID[e.ID]; dup {
			return nil, fault.NewCorruptState(fmt.Sprintf("duplicate record id %s", e.ID))
		}
		s.entries = append(s.entries, e)
		s.byID[e.ID] = i
	}

	for tag, id := range registry {
		idx, ok := s.byID[id]
		if !ok {
			return nil, fault.NewCorruptState(fmt.Sprintf("registry names unknown record %s for %s", id, tag.Label()))
		}
		if got := s.entries[idx].Record.Tag(); got != tag {
			return nil, fault.NewCorruptState(fmt.Sprintf("registry maps %s to a %s record", tag.Label(), got.Label()))
		}
		s.registry[tag] = id
	}

	if len(s.entries) > 0 {
		if _, ok := s.byID[current]; !ok {
			return nil, fault.NewCorruptState(fmt.Sprintf("current pointer names unknown record %q", current))
		}
		s.current = current
	}
	return s, nil
}
