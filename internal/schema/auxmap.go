package schema

import (
	"fmt"
	"slices"
)

// AuxMap maps principals to descriptions.
//
// Iteration follows first-insertion order; re-inserting a key replaces its
// value in place. Entries are never evicted. A nil *AuxMap reads as empty.
type AuxMap struct {
	keys   []Principal
	values map[Principal]string
}

// Pair is one AuxMap entry.
type Pair struct {
	Key   Principal `json:"key"`
	Value string    `json:"value"`
}

// NewAuxMap returns an empty map.
func NewAuxMap() *AuxMap {
	return &AuxMap{values: make(map[Principal]string)}
}

// AuxMapFromPairs rebuilds a map from its ordered pairs.
// Later duplicates overwrite earlier values without moving them.
func AuxMapFromPairs(pairs []Pair) *AuxMap {
	m := NewAuxMap()
	for _, p := range pairs {
		m.Insert(p.Key, p.Value)
	}
	return m
}

// Insert upserts key. Returns true if the key was new.
func (m *AuxMap) Insert(key Principal, value string) bool {
	if m.values == nil {
		m.values = make(map[Principal]string)
	}
	_, exists := m.values[key]
	if !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return !exists
}

// Get returns the value stored for key.
func (m *AuxMap) Get(key Principal) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (m *AuxMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Pairs returns the entries in insertion order.
func (m *AuxMap) Pairs() []Pair {
	if m == nil {
		return []Pair{}
	}
	out := make([]Pair, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, Pair{Key: k, Value: m.values[k]})
	}
	return out
}

// Clone returns an independent copy. Cloning nil yields an empty map.
func (m *AuxMap) Clone() *AuxMap {
	out := NewAuxMap()
	if m == nil {
		return out
	}
	out.keys = slices.Clone(m.keys)
	for k, v := range m.values {
		out.values[k] = v
	}
	return out
}

// String summarizes the map; bulk-loaded maps are too large to print whole.
func (m *AuxMap) String() string {
	n := m.Len()
	if n == 0 {
		return "{}"
	}
	if n > 3 {
		return fmt.Sprintf("{%d entries}", n)
	}
	s := "{"
	for i, p := range m.Pairs() {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%q: %q", p.Key, p.Value)
	}
	return s + "}"
}
