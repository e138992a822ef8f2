// Package migrate implements the one-shot schema migrations.
//
// Migrations form an ordered chain. Each one requires its predecessor
// generation to be current and runs at most once per store; the applied set is
// kept in a Ledger that is persisted alongside the version store.
package migrate

import (
	"fmt"
	"strings"

	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// Migration names as recorded in the ledger. Values are persisted.
const (
	AddGeneration2Name           = "add_generation_2"
	AddGeneration3AndMigrateName = "add_generation_3_and_migrate"
	RemoveGeneration1Name        = "remove_generation_1"
)

// Migrator applies migrations to a version store.
type Migrator struct {
	store  *versions.Store
	ledger *Ledger
}

// New creates a migrator over s that records applied migrations in l.
func New(s *versions.Store, l *Ledger) *Migrator {
	return &Migrator{store: s, ledger: l}
}

// once runs fn unless name is already in the ledger, and records name only if
// fn succeeds.
func (m *Migrator) once(name string, fn func() error) error {
	if m.ledger.Applied(name) {
		return fault.NewAlreadyMigrated(name)
	}
	if err := fn(); err != nil {
		return err
	}
	m.ledger.record(name)
	return nil
}

// requireCurrent fails with VersionMismatch unless the current record carries
// tag want.
func (m *Migrator) requireCurrent(want schema.Tag) error {
	idx, e, err := m.store.Current()
	if err != nil {
		return err
	}
	if got := e.Record.Tag(); got != want {
		return fault.NewVersionMismatch(idx, uint8(want), uint8(got))
	}
	return nil
}

// appendCurrent appends rec and points current at it.
func (m *Migrator) appendCurrent(rec schema.Record) int {
	n := m.store.Append(rec)
	_ = m.store.SetCurrent(n - 1) // n-1 was just appended
	return n
}

// AddGeneration2 appends a gen-2 record carrying color, with the musician left
// empty until collected, and makes it current. Returns the new length.
func (m *Migrator) AddGeneration2(color string) (int, error) {
	var n int
	err := m.once(AddGeneration2Name, func() error {
		if err := m.requireCurrent(schema.TagV1); err != nil {
			return err
		}
		n = m.appendCurrent(schema.V2{FavoriteColor: color})
		return nil
	})
	return n, err
}

// AddGeneration3AndMigrate derives a gen-3 account from the gen-1 name and
// makes it current. The pronoun starts empty. Returns the new length.
func (m *Migrator) AddGeneration3AndMigrate() (int, error) {
	var n int
	err := m.once(AddGeneration3AndMigrateName, func() error {
		if err := m.requireCurrent(schema.TagV2); err != nil {
			return err
		}
		_, e, err := m.store.Lookup(schema.TagV1)
		if err != nil {
			return err
		}
		v1 := e.Record.(schema.V1)
		first, last := SplitName(v1.Name)
		n = m.appendCurrent(schema.V3{Account: schema.Account{FirstName: first, LastName: last}})
		return nil
	})
	return n, err
}

// RemoveGeneration1 swap-removes the gen-1 record, discarding its auxiliary
// map. It is refused while gen-1 is current, so the store always keeps a
// record to report. The current pointer keeps denoting the same record.
func (m *Migrator) RemoveGeneration1() error {
	return m.once(RemoveGeneration1Name, func() error {
		idx, e, err := m.store.Lookup(schema.TagV1)
		if err != nil {
			return err
		}
		if e.ID == m.store.CurrentID() {
			return &fault.Error{
				Code:    fault.CodeVersionMismatch,
				Message: fmt.Sprintf("%s is current; add a later generation before removing it", schema.TagV1.Label()),
				Index:   idx,
				Tag:     uint8(schema.TagV1),
			}
		}
		return m.store.SwapRemove(idx)
	})
}

// SplitName splits a full name on the first space. A name without a space is
// all first name.
func SplitName(name string) (first, last string) {
	first, last, _ = strings.Cut(name, " ")
	return first, last
}
