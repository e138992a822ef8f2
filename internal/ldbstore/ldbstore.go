// Package ldbstore provides a LevelDB-backed byte store and call journal.
//
// Keys are prefixed by a single byte:
//
//	S<key>          snapshot bytes
//	J<seq:8 BE>     journaled call, canonical JSON
//	\x00VERSION     database layout version, 4 bytes BE
package ldbstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/roach88/genstore/internal/codec"
	"github.com/roach88/genstore/internal/host"
)

const currentDBVersion = 1

var versionKey = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}

const (
	prefixSnapshot = 'S'
	prefixJournal  = 'J'
)

// Store is a LevelDB byte store.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates the database directory at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &ldb_opt.Options{ErrorIfExist: false})
	if err != nil {
		return nil, fmt.Errorf("open leveldb %q: %w", path, err)
	}
	return initialise(db)
}

// OpenMemory opens a database held entirely in memory.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory leveldb: %w", err)
	}
	return initialise(db)
}

// initialise stamps an empty database with the current version and refuses
// databases written by a newer layout.
func initialise(db *leveldb.DB) (*Store, error) {
	value, err := db.Get(versionKey, nil)
	switch {
	case err == leveldb.ErrNotFound:
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, currentDBVersion)
		if err := db.Put(versionKey, v, nil); err != nil {
			db.Close()
			return nil, fmt.Errorf("write database version: %w", err)
		}
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("read database version: %w", err)
	case len(value) != 4:
		db.Close()
		return nil, fmt.Errorf("incompatible database version length: expected: %d  actual: %d", 4, len(value))
	default:
		if v := binary.BigEndian.Uint32(value); v > currentDBVersion {
			db.Close()
			return nil, fmt.Errorf("database version: %d > current version: %d", v, currentDBVersion)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func snapshotKey(key string) []byte {
	return append([]byte{prefixSnapshot}, key...)
}

func journalKey(seq int64) []byte {
	k := make([]byte, 9)
	k[0] = prefixJournal
	binary.BigEndian.PutUint64(k[1:], uint64(seq))
	return k
}

// Load returns the snapshot saved under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := s.db.Get(snapshotKey(key), nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	return data, true, nil
}

// Save replaces the snapshot under key with a synced write.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	if err := s.db.Put(snapshotKey(key), data, &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return fmt.Errorf("save snapshot %q: %w", key, err)
	}
	return nil
}

type journalEntry struct {
	Op      string `json:"op"`
	Caller  string `json:"caller"`
	Outcome string `json:"outcome"`
	Digest  string `json:"digest"`
}

// AppendCall journals one call. Sequence numbers must be positive and unique.
func (s *Store) AppendCall(_ context.Context, rec host.CallRecord) error {
	if rec.Seq <= 0 {
		return fmt.Errorf("append call: invalid seq %d", rec.Seq)
	}
	k := journalKey(rec.Seq)
	if ok, err := s.db.Has(k, nil); err != nil {
		return fmt.Errorf("append call %d: %w", rec.Seq, err)
	} else if ok {
		return fmt.Errorf("append call %d: seq already journaled", rec.Seq)
	}
	value, err := codec.MarshalCanonical(map[string]any{
		"op":      rec.Op,
		"caller":  rec.Caller,
		"outcome": rec.Outcome,
		"digest":  rec.Digest,
	})
	if err != nil {
		return fmt.Errorf("append call %d: %w", rec.Seq, err)
	}
	if err := s.db.Put(k, value, nil); err != nil {
		return fmt.Errorf("append call %d: %w", rec.Seq, err)
	}
	return nil
}

// LastSeq returns the highest journaled sequence number, or 0.
func (s *Store) LastSeq(_ context.Context) (int64, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{prefixJournal}), nil)
	defer iter.Release()

	var seq int64
	if iter.Last() {
		seq = int64(binary.BigEndian.Uint64(iter.Key()[1:]))
	}
	if err := iter.Error(); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// Calls returns the most recent journaled calls in ascending seq order.
// An empty op matches every operation; limit <= 0 returns everything.
func (s *Store) Calls(_ context.Context, op string, limit int) ([]host.CallRecord, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{prefixJournal}), nil)
	defer iter.Release()

	var out []host.CallRecord
	for iter.Next() {
		var e journalEntry
		dec := json.NewDecoder(bytes.NewReader(iter.Value()))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decode call: %w", err)
		}
		if op != "" && e.Op != op {
			continue
		}
		out = append(out, host.CallRecord{
			Seq:     int64(binary.BigEndian.Uint64(iter.Key()[1:])),
			Op:      e.Op,
			Caller:  e.Caller,
			Outcome: e.Outcome,
			Digest:  e.Digest,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
