package host

import (
	"bytes"
	"context"
	"sync"
)

// ByteStore persists opaque snapshots by key.
//
// Load reports ok=false, with no error, when key has never been saved.
// Save replaces the value atomically: a failed Save leaves the previous
// value in place.
type ByteStore interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// CallRecord is one journaled call.
type CallRecord struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Caller  string `json:"caller"`
	Outcome string `json:"outcome"`
	Digest  string `json:"digest,omitempty"`
}

// Journal is implemented by byte stores that keep an append-only call log.
type Journal interface {
	LastSeq(ctx context.Context) (int64, error)
	AppendCall(ctx context.Context, rec CallRecord) error
}

// MemoryStore is a map-backed ByteStore for tests and the memory backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	data, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(data), true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.records[key] = bytes.Clone(data)
	s.mu.Unlock()
	return nil
}
