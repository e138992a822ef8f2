// Package dispatch implements typed field accessors over the version store.
//
// Every accessor is bound to one (generation, field) pair. The generation is
// resolved to a slot through the store's tag registry and the stored tag is
// checked again before use, so a relocated or missing generation surfaces as
// a VersionMismatch instead of a silently reinterpreted slot.
//
// Field table:
//
//	name, aux                            -> gen-1 (schema.V1)
//	favorite_color, favorite_musician    -> gen-2 (schema.V2)
//	account                              -> gen-3 (schema.V3)
//
// Writes go through stage/commit: a staged write resolves the slot, clones
// the stored record and applies the change to the clone. Nothing reaches the
// store until commit, which lets composite writes validate every target
// before the first replacement.
package dispatch

import (
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// Dispatcher binds typed accessors to a version store.
type Dispatcher struct {
	store *versions.Store
}

// New creates a dispatcher over s.
func New(s *versions.Store) *Dispatcher {
	return &Dispatcher{store: s}
}

// staged is a fully built replacement waiting to be committed.
type staged struct {
	index  int
	record schema.Record
}

func tagOf[R schema.Record]() schema.Tag {
	var zero R
	return zero.Tag()
}

// view resolves generation R and returns the stored record.
// The result shares state with the store and must not be mutated.
func view[R schema.Record](s *versions.Store) (R, error) {
	var zero R
	tag := tagOf[R]()
	idx, e, err := s.Lookup(tag)
	if err != nil {
		return zero, err
	}
	rec, ok := e.Record.(R)
	if !ok {
		return zero, fault.NewVersionMismatch(idx, uint8(tag), uint8(e.Record.Tag()))
	}
	return rec, nil
}

// stage resolves generation R, clones it and applies fn to the clone.
func stage[R schema.Record](s *versions.Store, fn func(*R) error) (staged, error) {
	tag := tagOf[R]()
	idx, e, err := s.Lookup(tag)
	if err != nil {
		return staged{}, err
	}
	rec, ok := e.Record.Clone().(R)
	if !ok {
		return staged{}, fault.NewVersionMismatch(idx, uint8(tag), uint8(e.Record.Tag()))
	}
	if err := fn(&rec); err != nil {
		return staged{}, err
	}
	return staged{index: idx, record: rec}, nil
}

func commit(s *versions.Store, writes ...staged) error {
	for _, w := range writes {
		if err := s.Replace(w.index, w.record); err != nil {
			return err
		}
	}
	return nil
}

// update is the single read-modify-replace path for one generation.
func update[R schema.Record](s *versions.Store, fn func(*R) error) error {
	w, err := stage(s, fn)
	if err != nil {
		return err
	}
	return commit(s, w)
}

// Name returns the gen-1 name.
func (d *Dispatcher) Name() (string, error) {
	r, err := view[schema.V1](d.store)
	return r.Name, err
}

// SetName overwrites the gen-1 name.
func (d *Dispatcher) SetName(name string) error {
	return update(d.store, func(r *schema.V1) error {
		r.Name = name
		return nil
	})
}

// FavoriteColor returns the gen-2 favorite color.
func (d *Dispatcher) FavoriteColor() (string, error) {
	r, err := view[schema.V2](d.store)
	return r.FavoriteColor, err
}

// SetFavoriteColor overwrites the gen-2 favorite color.
func (d *Dispatcher) SetFavoriteColor(color string) error {
	return update(d.store, func(r *schema.V2) error {
		r.FavoriteColor = color
		return nil
	})
}

// FavoriteMusician returns the gen-2 favorite musician.
func (d *Dispatcher) FavoriteMusician() (string, error) {
	r, err := view[schema.V2](d.store)
	return r.FavoriteMusician, err
}

// SetFavoriteMusician overwrites the gen-2 favorite musician.
func (d *Dispatcher) SetFavoriteMusician(musician string) error {
	return update(d.store, func(r *schema.V2) error {
		r.FavoriteMusician = musician
		return nil
	})
}

// Account returns the gen-3 account.
func (d *Dispatcher) Account() (schema.Account, error) {
	r, err := view[schema.V3](d.store)
	return r.Account, err
}

// SetPronoun overwrites the gen-3 account pronoun.
func (d *Dispatcher) SetPronoun(pronoun string) error {
	return update(d.store, func(r *schema.V3) error {
		r.Account.Pronoun = pronoun
		return nil
	})
}
