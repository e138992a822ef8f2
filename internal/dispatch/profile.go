package dispatch

import "github.com/roach88/genstore/internal/schema"

// Profile is the composite view across gen-1 and gen-2.
type Profile struct {
	Name             string `json:"name"`
	FavoriteColor    string `json:"favorite_color"`
	FavoriteMusician string `json:"favorite_musician"`
}

// All reads every Profile field. It fails without a partial result if any
// generation is missing.
func (d *Dispatcher) All() (Profile, error) {
	v1, err := view[schema.V1](d.store)
	if err != nil {
		return Profile{}, err
	}
	v2, err := view[schema.V2](d.store)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Name:             v1.Name,
		FavoriteColor:    v2.FavoriteColor,
		FavoriteMusician: v2.FavoriteMusician,
	}, nil
}

// SetAll writes every Profile field as one combined write: both generations
// are resolved and staged before either is replaced, so a missing generation
// leaves the store untouched.
func (d *Dispatcher) SetAll(p Profile) error {
	w1, err := stage(d.store, func(r *schema.V1) error {
		r.Name = p.Name
		return nil
	})
	if err != nil {
		return err
	}
	w2, err := stage(d.store, func(r *schema.V2) error {
		r.FavoriteColor = p.FavoriteColor
		r.FavoriteMusician = p.FavoriteMusician
		return nil
	})
	if err != nil {
		return err
	}
	return commit(d.store, w1, w2)
}
