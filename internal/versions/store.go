// Package versions implements the version store: an ordered sequence of
// tagged schema records with stable identities.
//
// Slots are positional and unstable across swap-remove. Everything that must
// survive a removal is therefore keyed by RecordID:
//   - the tag registry (Tag -> RecordID) that dispatch resolves through
//   - the current-version pointer
//
// Both are updated inside the same Append/SwapRemove call that changes the
// sequence, so they can never disagree with it.
package versions

import (
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
)

// Entry is one record in the store with its stable identity.
type Entry struct {
	ID     RecordID
	Record schema.Record
}

// SlotInfo describes one slot for inspection.
type SlotInfo struct {
	Index   int        `json:"index"`
	ID      RecordID   `json:"id"`
	Tag     schema.Tag `json:"tag"`
	Label   string     `json:"label"`
	Current bool       `json:"current"`
}

// Store is the version sequence.
//
// Store is not safe for concurrent use; the host serializes calls.
type Store struct {
	entries  []Entry
	byID     map[RecordID]int
	registry map[schema.Tag]RecordID
	current  RecordID
	ids      IDGenerator
}

// New creates an empty store. A nil generator defaults to UUIDv7Generator.
func New(ids IDGenerator) *Store {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Store{
		byID:     make(map[RecordID]int),
		registry: make(map[schema.Tag]RecordID),
		ids:      ids,
	}
}

// Append adds rec at the end and returns the new length.
//
// The record's tag is registered if no record of that tag is registered yet;
// a later duplicate stays reachable by slot only. The first record appended
// to an empty store becomes current.
func (s *Store) Append(rec schema.Record) int {
	id := RecordID(s.ids.Generate())
	s.entries = append(s.entries, Entry{ID: id, Record: rec})
	s.byID[id] = len(s.entries) - 1
	if _, ok := s.registry[rec.Tag()]; !ok {
		s.registry[rec.Tag()] = id
	}
	if s.current == "" {
		s.current = id
	}
	return len(s.entries)
}

// Get returns the entry at index.
// The record is shared with the store; Clone it before mutating.
func (s *Store) Get(index int) (Entry, error) {
	if index < 0 || index >= len(s.entries) {
		return Entry{}, fault.NewNotFound(index, len(s.entries))
	}
	return s.entries[index], nil
}

// Replace overwrites the record at index, keeping its RecordID.
// The replacement must carry the same tag as the record it replaces.
func (s *Store) Replace(index int, rec schema.Record) error {
	if index < 0 || index >= len(s.entries) {
		return fault.NewIndexOutOfRange(index, len(s.entries))
	}
	if got := s.entries[index].Record.Tag(); got != rec.Tag() {
		return fault.NewVersionMismatch(index, uint8(rec.Tag()), uint8(got))
	}
	s.entries[index].Record = rec
	return nil
}

// SwapRemove removes the record at index by moving the last record into the
// freed slot. Removing the last slot only shrinks the sequence.
//
// Bookkeeping follows the records, not the slots:
//   - the removed record's registry entry is dropped, and the tag is handed
//     to the lowest-slot remaining record of the same tag, if any
//   - if the removed record was current, current moves to the record of the
//     highest registered generation
func (s *Store) SwapRemove(index int) error {
	if index < 0 || index >= len(s.entries) {
		return fault.NewIndexOutOfRange(index, len(s.entries))
	}

	removed := s.entries[index]
	last := len(s.entries) - 1
	s.entries[index] = s.entries[last]
	s.entries[last] = Entry{}
	s.entries = s.entries[:last]

	delete(s.byID, removed.ID)
	if index < last {
		s.byID[s.entries[index].ID] = index
	}

	tag := removed.Record.Tag()
	if s.registry[tag] == removed.ID {
		delete(s.registry, tag)
		for _, e := range s.entries {
			if e.Record.Tag() == tag {
				s.registry[tag] = e.ID
				break
			}
		}
	}

	if s.current == removed.ID {
		s.current = s.latestRegistered()
	}
	return nil
}

// latestRegistered returns the ID of the highest registered generation.
func (s *Store) latestRegistered() RecordID {
	var best schema.Tag
	var id RecordID
	for tag, rid := range s.registry {
		if tag > best {
			best, id = tag, rid
		}
	}
	return id
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the store holds no records.
func (s *Store) IsEmpty() bool {
	return len(s.entries) == 0
}

// Slot returns the slot currently holding the registered record for tag.
func (s *Store) Slot(tag schema.Tag) (int, bool) {
	id, ok := s.registry[tag]
	if !ok {
		return 0, false
	}
	idx, ok := s.byID[id]
	return idx, ok
}

// Lookup resolves tag through the registry and verifies the tag stored at
// the resolved slot. A missing registration and a tag disagreement are both
// VersionMismatch failures.
func (s *Store) Lookup(tag schema.Tag) (int, Entry, error) {
	idx, ok := s.Slot(tag)
	if !ok {
		return 0, Entry{}, fault.NewGenerationAbsent(uint8(tag))
	}
	e := s.entries[idx]
	if e.Record.Tag() != tag {
		return 0, Entry{}, fault.NewVersionMismatch(idx, uint8(tag), uint8(e.Record.Tag()))
	}
	return idx, e, nil
}

// Current returns the slot and entry the current-version pointer denotes.
func (s *Store) Current() (int, Entry, error) {
	idx, ok := s.byID[s.current]
	if !ok {
		return 0, Entry{}, fault.NewNotFound(0, len(s.entries))
	}
	return idx, s.entries[idx], nil
}

// SetCurrent points the current-version pointer at the record in slot index.
func (s *Store) SetCurrent(index int) error {
	if index < 0 || index >= len(s.entries) {
		return fault.NewIndexOutOfRange(index, len(s.entries))
	}
	s.current = s.entries[index].ID
	return nil
}

// CurrentID returns the RecordID of the current record.
func (s *Store) CurrentID() RecordID {
	return s.current
}

// Entries returns a copy of the sequence in slot order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Registry returns a copy of the tag registry.
func (s *Store) Registry() map[schema.Tag]RecordID {
	out := make(map[schema.Tag]RecordID, len(s.registry))
	for k, v := range s.registry {
		out[k] = v
	}
	return out
}

// Slots describes every slot in order.
func (s *Store) Slots() []SlotInfo {
	out := make([]SlotInfo, 0, len(s.entries))
	for i, e := range s.entries {
		out = append(out, SlotInfo{
			Index:   i,
			ID:      e.ID,
			Tag:     e.Record.Tag(),
			Label:   e.Record.Tag().Label(),
			Current: e.ID == s.current,
		})
	}
	return out
}
