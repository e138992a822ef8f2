package dispatch

import (
	"fmt"

	"github.com/roach88/genstore/internal/schema"
)

// Bulk-load payloads are padded so each entry occupies a realistic amount of
// storage.
const (
	bloatKeyFormat = "bulk-load principal padded to occupy a realistic amount of storage %d-%d"
	bloatValue     = "synthetic description written by the bulk loader, long enough to stand in for real data."
)

// AddMapEntry upserts key in the gen-1 auxiliary map.
func (d *Dispatcher) AddMapEntry(key schema.Principal, value string) error {
	return update(d.store, func(r *schema.V1) error {
		r.Aux.Insert(key, value)
		return nil
	})
}

// Map returns the gen-1 auxiliary map entries in insertion order.
func (d *Dispatcher) Map() ([]schema.Pair, error) {
	r, err := view[schema.V1](d.store)
	if err != nil {
		return nil, err
	}
	return r.Aux.Pairs(), nil
}

// MapLen returns the number of distinct keys in the gen-1 auxiliary map.
func (d *Dispatcher) MapLen() (int, error) {
	r, err := view[schema.V1](d.store)
	if err != nil {
		return 0, err
	}
	return r.Aux.Len(), nil
}

// BloatMap inserts n synthetic entries and returns the new map size.
//
// Keys combine the loop counter with the map size at that iteration, so
// repeated calls never collide with earlier batches.
func (d *Dispatcher) BloatMap(n int) (int, error) {
	var size int
	err := update(d.store, func(r *schema.V1) error {
		for i := 0; i < n; i++ {
			key := schema.Principal(fmt.Sprintf(bloatKeyFormat, i, r.Aux.Len()))
			r.Aux.Insert(key, bloatValue)
		}
		size = r.Aux.Len()
		return nil
	})
	return size, err
}
