package engine

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/genstore/internal/codec"
	"github.com/roach88/genstore/internal/dispatch"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/guard"
	"github.com/roach88/genstore/internal/migrate"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// BloatCount is the number of synthetic entries BloatMap inserts per call.
const BloatCount = 190

// Contract is a constructed store.
type Contract struct {
	store    *versions.Store
	ledger   *migrate.Ledger
	fields   *dispatch.Dispatcher
	migrator *migrate.Migrator
}

func newContract(s *versions.Store, l *migrate.Ledger) *Contract {
	return &Contract{
		store:    s,
		ledger:   l,
		fields:   dispatch.New(s),
		migrator: migrate.New(s, l),
	}
}

// Construct creates a store holding a single gen-1 record named name, which
// becomes current. ids assigns record identities; nil means UUIDv7.
//
// Construction is not owner-gated. Rejecting a second construction is the
// host's job, since only the host knows whether state already exists.
func Construct(name string, ids versions.IDGenerator) *Contract {
	s := versions.New(ids)
	s.Append(schema.NewV1(name))
	return newContract(s, migrate.NewLedger())
}

// CheckText rejects a string argument that is not valid UTF-8.
func CheckText(field, value string) error {
	if !utf8.ValidString(value) {
		return fault.NewInvalidUTF8(field)
	}
	return nil
}

// Decode restores a contract from a snapshot produced by Encode.
func Decode(data []byte, ids versions.IDGenerator) (*Contract, error) {
	snap, err := codec.Decode(data, ids)
	if err != nil {
		return nil, err
	}
	return newContract(snap.Store, snap.Ledger), nil
}

// Encode serializes the contract state.
func (c *Contract) Encode() ([]byte, error) {
	return codec.Encode(codec.Snapshot{Store: c.store, Ledger: c.ledger})
}

// CurrentVersion returns the label of the current generation.
func (c *Contract) CurrentVersion() (string, error) {
	_, e, err := c.store.Current()
	if err != nil {
		return "", err
	}
	return e.Record.Tag().Label(), nil
}

// LogRecord writes a description of the record at index to the log sink.
// It is read-only.
func (c *Contract) LogRecord(env Env, index int) error {
	e, err := c.store.Get(index)
	if fault.IsNotFound(err) {
		return fault.NewIndexOutOfRange(index, c.store.Len())
	}
	if err != nil {
		return err
	}
	env.Log(fmt.Sprintf("State info for version at index %d: %v", index, e.Record))
	return nil
}

// Name returns the gen-1 name.
func (c *Contract) Name() (string, error) {
	return c.fields.Name()
}

// SetName overwrites the gen-1 name.
func (c *Contract) SetName(env Env, name string) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("name", name); err != nil {
		return err
	}
	return c.fields.SetName(name)
}

// AddMapEntry upserts key in the gen-1 auxiliary map.
func (c *Contract) AddMapEntry(env Env, key schema.Principal, value string) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("key", string(key)); err != nil {
		return err
	}
	if err := CheckText("value", value); err != nil {
		return err
	}
	return c.fields.AddMapEntry(key, value)
}

// Map returns the auxiliary map in insertion order.
func (c *Contract) Map() ([]schema.Pair, error) {
	return c.fields.Map()
}

// MapLen returns the auxiliary map size.
func (c *Contract) MapLen() (int, error) {
	return c.fields.MapLen()
}

// BloatMap inserts BloatCount synthetic entries into the auxiliary map and
// returns the new size.
func (c *Contract) BloatMap(env Env) (int, error) {
	if err := guard.Require(env); err != nil {
		return 0, err
	}
	return c.fields.BloatMap(BloatCount)
}

// AddGeneration2 appends the gen-2 record and makes it current.
func (c *Contract) AddGeneration2(env Env, color string) (int, error) {
	if err := guard.Require(env); err != nil {
		return 0, err
	}
	if err := CheckText("color", color); err != nil {
		return 0, err
	}
	return c.migrator.AddGeneration2(color)
}

// FavoriteColor returns the gen-2 favorite color.
func (c *Contract) FavoriteColor() (string, error) {
	return c.fields.FavoriteColor()
}

// SetFavoriteColor overwrites the gen-2 favorite color.
func (c *Contract) SetFavoriteColor(env Env, color string) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("color", color); err != nil {
		return err
	}
	return c.fields.SetFavoriteColor(color)
}

// FavoriteMusician returns the gen-2 favorite musician.
func (c *Contract) FavoriteMusician() (string, error) {
	return c.fields.FavoriteMusician()
}

// SetFavoriteMusician overwrites the gen-2 favorite musician.
func (c *Contract) SetFavoriteMusician(env Env, musician string) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("musician", musician); err != nil {
		return err
	}
	return c.fields.SetFavoriteMusician(musician)
}

// SetAll writes name, color and musician in one staged write.
func (c *Contract) SetAll(env Env, p dispatch.Profile) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("name", p.Name); err != nil {
		return err
	}
	if err := CheckText("color", p.FavoriteColor); err != nil {
		return err
	}
	if err := CheckText("musician", p.FavoriteMusician); err != nil {
		return err
	}
	return c.fields.SetAll(p)
}

// All reads name, color and musician.
func (c *Contract) All() (dispatch.Profile, error) {
	return c.fields.All()
}

// AddGeneration3AndMigrate derives the gen-3 account from the name and makes
// it current.
func (c *Contract) AddGeneration3AndMigrate(env Env) (int, error) {
	if err := guard.Require(env); err != nil {
		return 0, err
	}
	return c.migrator.AddGeneration3AndMigrate()
}

// RemoveGeneration1 discards the gen-1 record and its auxiliary map.
func (c *Contract) RemoveGeneration1(env Env) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	return c.migrator.RemoveGeneration1()
}

// Account returns the gen-3 account.
func (c *Contract) Account() (schema.Account, error) {
	return c.fields.Account()
}

// SetPronoun overwrites the gen-3 pronoun.
func (c *Contract) SetPronoun(env Env, pronoun string) error {
	if err := guard.Require(env); err != nil {
		return err
	}
	if err := CheckText("pronoun", pronoun); err != nil {
		return err
	}
	return c.fields.SetPronoun(pronoun)
}

// Versions describes every slot.
func (c *Contract) Versions() []versions.SlotInfo {
	return c.store.Slots()
}

// Migrations lists the applied migrations in order.
func (c *Contract) Migrations() []string {
	return c.ledger.Names()
}

// Len returns the number of stored records.
func (c *Contract) Len() int {
	return c.store.Len()
}
