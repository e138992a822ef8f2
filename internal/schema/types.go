package schema

import "fmt"

// Principal is an identity capable of invoking operations.
type Principal string

// Tag is the discriminant of a Record; one tag per schema generation.
type Tag uint8

// Deployed generations. Values are persisted; never renumber.
const (
	TagV1 Tag = 1
	TagV2 Tag = 2
	TagV3 Tag = 3
)

// Tags lists every known generation in deployment order.
var Tags = []Tag{TagV1, TagV2, TagV3}

// Label returns the version label reported by current_version.
func (t Tag) Label() string {
	return fmt.Sprintf("gen-%d", uint8(t))
}

// Valid reports whether t is a deployed generation.
func (t Tag) Valid() bool {
	return t >= TagV1 && t <= TagV3
}

// Record is one schema generation's payload.
//
// The interface is sealed: only the generation types in this package
// implement it, so a type switch over V1, V2, V3 is exhaustive.
type Record interface {
	// Tag returns the generation discriminant.
	Tag() Tag

	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Record

	record()
}

// V1 is the first generation, created at construction.
type V1 struct {
	Name string
	Aux  *AuxMap
}

// V2 is the second generation, added by the gen-2 migration.
type V2 struct {
	FavoriteColor    string
	FavoriteMusician string
}

// V3 is the third generation, derived from V1's name.
type V3 struct {
	Account Account
}

// Account is the structured identity carried by V3.
type Account struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Pronoun   string `json:"pronoun"`
}

func (V1) Tag() Tag { return TagV1 }
func (V2) Tag() Tag { return TagV2 }
func (V3) Tag() Tag { return TagV3 }

func (V1) record() {}
func (V2) record() {}
func (V3) record() {}

// Clone deep-copies the auxiliary map.
func (r V1) Clone() Record {
	return V1{Name: r.Name, Aux: r.Aux.Clone()}
}

func (r V2) Clone() Record { return r }
func (r V3) Clone() Record { return r }

// NewV1 returns a first-generation record with an empty auxiliary map.
func NewV1(name string) V1 {
	return V1{Name: name, Aux: NewAuxMap()}
}

// String renders the record for log_record output.
func (r V1) String() string {
	return fmt.Sprintf("V1 { name: %q, aux: %s }", r.Name, r.Aux)
}

func (r V2) String() string {
	return fmt.Sprintf("V2 { favorite_color: %q, favorite_musician: %q }", r.FavoriteColor, r.FavoriteMusician)
}

func (r V3) String() string {
	return fmt.Sprintf("V3 { account: { first_name: %q, last_name: %q, pronoun: %q } }",
		r.Account.FirstName, r.Account.LastName, r.Account.Pronoun)
}
