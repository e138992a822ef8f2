// Package codec encodes the contract state for the host byte store.
//
// Wire format: a 4-byte magic, then a snappy block holding canonical JSON:
//
//	{"current":"<id>","format":1,"migrations":[...],
//	 "records":[{"id":"<id>","tag":1,"v1":{...}}, ...],
//	 "registry":{"1":"<id>", ...}}
//
// Writing goes through MarshalCanonical so equal states always encode to equal
// bytes and digests are stable. Reading uses encoding/json with unknown
// fields rejected, then rebuilds the store through versions.Restore, which
// validates the bookkeeping.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/golang/snappy"

	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/migrate"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// FormatVersion is the snapshot document version.
const FormatVersion = 1

var magic = []byte("GSS\x01")

// Snapshot is the complete persisted state of a contract.
type Snapshot struct {
	Store  *versions.Store
	Ledger *migrate.Ledger
}

// Encode serializes a snapshot.
func Encode(snap Snapshot) ([]byte, error) {
	doc, err := toDocument(snap)
	if err != nil {
		return nil, err
	}
	raw, err := MarshalCanonical(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	out := make([]byte, 0, len(magic)+snappy.MaxEncodedLen(len(raw)))
	out = append(out, magic...)
	return append(out, snappy.Encode(nil, raw)...), nil
}

// Decode parses bytes produced by Encode. ids generates IDs for records
// appended after decoding; nil means UUIDv7.
// Malformed or inconsistent input is a CorruptState failure.
func Decode(data []byte, ids versions.IDGenerator) (Snapshot, error) {
	raw, err := Unframe(data)
	if err != nil {
		return Snapshot{}, err
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Snapshot{}, corrupt("decode document: %v", err)
	}
	if doc.Format != FormatVersion {
		return Snapshot{}, corrupt("unsupported snapshot format %d", doc.Format)
	}

	entries := make([]versions.Entry, 0, len(doc.Records))
	for i, rd := range doc.Records {
		rec, err := rd.record()
		if err != nil {
			return Snapshot{}, corrupt("record %d: %v", i, err)
		}
		entries = append(entries, versions.Entry{ID: versions.RecordID(rd.ID), Record: rec})
	}

	registry := make(map[schema.Tag]versions.RecordID, len(doc.Registry))
	for k, id := range doc.Registry {
		n, err := strconv.ParseUint(k, 10, 8)
		if err != nil || !schema.Tag(n).Valid() {
			return Snapshot{}, corrupt("registry key %q is not a generation", k)
		}
		registry[schema.Tag(n)] = versions.RecordID(id)
	}

	s, err := versions.Restore(entries, registry, versions.RecordID(doc.Current), ids)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Store: s, Ledger: migrate.LedgerFrom(doc.Migrations)}, nil
}

// Unframe checks the magic and decompresses the canonical JSON payload.
func Unframe(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, magic) {
		return nil, corrupt("missing snapshot header")
	}
	raw, err := snappy.Decode(nil, data[len(magic):])
	if err != nil {
		return nil, corrupt("decompress snapshot: %v", err)
	}
	return raw, nil
}

func corrupt(format string, args ...any) error {
	return fault.NewCorruptState(fmt.Sprintf(format, args...))
}

type document struct {
	Format     int               `json:"format"`
	Current    string            `json:"current"`
	Migrations []string          `json:"migrations"`
	Registry   map[string]string `json:"registry"`
	Records    []recordDoc       `json:"records"`
}

type recordDoc struct {
	ID  string          `json:"id"`
	Tag uint8           `json:"tag"`
	V1  *v1Doc          `json:"v1,omitempty"`
	V2  *v2Doc          `json:"v2,omitempty"`
	V3  *schema.Account `json:"v3,omitempty"`
}

type v1Doc struct {
	Name string        `json:"name"`
	Aux  []schema.Pair `json:"aux"`
}

type v2Doc struct {
	FavoriteColor    string `json:"favorite_color"`
	FavoriteMusician string `json:"favorite_musician"`
}

// record converts the payload matching the tag; exactly one must be present.
func (rd recordDoc) record() (schema.Record, error) {
	present := 0
	for _, ok := range []bool{rd.V1 != nil, rd.V2 != nil, rd.V3 != nil} {
		if ok {
			present++
		}
	}
	if present != 1 {
		return nil, fmt.Errorf("want exactly one payload, got %d", present)
	}

	switch schema.Tag(rd.Tag) {
	case schema.TagV1:
		if rd.V1 != nil {
			aux := schema.AuxMapFromPairs(rd.V1.Aux)
			if aux.Len() != len(rd.V1.Aux) {
				return nil, fmt.Errorf("duplicate aux keys: %d pairs, %d distinct", len(rd.V1.Aux), aux.Len())
			}
			return schema.V1{Name: rd.V1.Name, Aux: aux}, nil
		}
	case schema.TagV2:
		if rd.V2 != nil {
			return schema.V2{FavoriteColor: rd.V2.FavoriteColor, FavoriteMusician: rd.V2.FavoriteMusician}, nil
		}
	case schema.TagV3:
		if rd.V3 != nil {
			return schema.V3{Account: *rd.V3}, nil
		}
	default:
		return nil, fmt.Errorf("unknown tag %d", rd.Tag)
	}
	return nil, fmt.Errorf("payload does not match tag %d", rd.Tag)
}

// toDocument builds the generic value tree MarshalCanonical accepts.
func toDocument(snap Snapshot) (map[string]any, error) {
	if snap.Store == nil {
		return nil, fmt.Errorf("encode snapshot: nil store")
	}

	records := make([]any, 0, snap.Store.Len())
	for _, e := range snap.Store.Entries() {
		rd := map[string]any{
			"id":  string(e.ID),
			"tag": uint8(e.Record.Tag()),
		}
		switch r := e.Record.(type) {
		case schema.V1:
			aux := make([]any, 0, r.Aux.Len())
			for _, p := range r.Aux.Pairs() {
				aux = append(aux, map[string]any{"key": string(p.Key), "value": p.Value})
			}
			rd["v1"] = map[string]any{"name": r.Name, "aux": aux}
		case schema.V2:
			rd["v2"] = map[string]any{
				"favorite_color":    r.FavoriteColor,
				"favorite_musician": r.FavoriteMusician,
			}
		case schema.V3:
			rd["v3"] = map[string]any{
				"first_name": r.Account.FirstName,
				"last_name":  r.Account.LastName,
				"pronoun":    r.Account.Pronoun,
			}
		default:
			return nil, fmt.Errorf("encode snapshot: unsupported record %T", e.Record)
		}
		records = append(records, rd)
	}

	registry := make(map[string]any)
	for tag, id := range snap.Store.Registry() {
		registry[strconv.Itoa(int(tag))] = string(id)
	}

	migrations := []any{}
	if snap.Ledger != nil {
		for _, name := range snap.Ledger.Names() {
			migrations = append(migrations, name)
		}
	}

	return map[string]any{
		"format":     FormatVersion,
		"current":    string(snap.Store.CurrentID()),
		"migrations": migrations,
		"registry":   registry,
		"records":    records,
	}, nil
}
