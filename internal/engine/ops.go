package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/genstore/internal/dispatch"
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
)

// OpConstruct names construction. It is not in the operation table because it
// runs without an existing Contract.
const OpConstruct = "construct"

// ErrUnknownOperation is returned by Invoke for names not in the table.
var ErrUnknownOperation = errors.New("unknown operation")

// Args carries the arguments of any operation. Each operation reads only the
// fields it needs.
type Args struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Color    string `yaml:"color,omitempty" json:"color,omitempty"`
	Musician string `yaml:"musician,omitempty" json:"musician,omitempty"`
	Pronoun  string `yaml:"pronoun,omitempty" json:"pronoun,omitempty"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
	Value    string `yaml:"value,omitempty" json:"value,omitempty"`
	Index    int    `yaml:"index,omitempty" json:"index,omitempty"`
}

// Operation is one externally invocable entry point.
type Operation struct {
	Name string

	// Mutating operations are owner-gated and their state is persisted on
	// success. Read-only calls never persist.
	Mutating bool

	// Short is a one-line description for command help.
	Short string

	// Params lists the Args fields the operation reads, by their yaml name.
	Params []string

	Call func(c *Contract, env Env, a Args) (any, error)
}

var operations = []Operation{
	{Name: "current_version", Short: "Label of the current schema generation",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.CurrentVersion()
		}},
	{Name: "log_record", Short: "Log the record at a slot", Params: []string{"index"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.LogRecord(env, a.Index)
		}},
	{Name: "get_name", Short: "Read the gen-1 name",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.Name()
		}},
	{Name: "set_name", Mutating: true, Short: "Replace the gen-1 name", Params: []string{"name"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.SetName(env, a.Name)
		}},
	{Name: "add_map_entry", Mutating: true, Short: "Insert or overwrite an auxiliary map entry", Params: []string{"key", "value"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.AddMapEntry(env, schema.Principal(a.Key), a.Value)
		}},
	{Name: "get_map", Short: "List auxiliary map entries in insertion order",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.Map()
		}},
	{Name: "map_len", Short: "Count auxiliary map entries",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.MapLen()
		}},
	{Name: "bloat_map", Mutating: true, Short: "Bulk-load the auxiliary map",
		Call: func(c *Contract, env Env, _ Args) (any, error) {
			return c.BloatMap(env)
		}},
	{Name: "add_generation_2", Mutating: true, Short: "Append a gen-2 record and make it current", Params: []string{"color"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return c.AddGeneration2(env, a.Color)
		}},
	{Name: "get_favorite_color", Short: "Read the gen-2 favorite color",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.FavoriteColor()
		}},
	{Name: "set_favorite_color", Mutating: true, Short: "Replace the gen-2 favorite color", Params: []string{"color"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.SetFavoriteColor(env, a.Color)
		}},
	{Name: "get_favorite_musician", Short: "Read the gen-2 favorite musician",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.FavoriteMusician()
		}},
	{Name: "set_favorite_musician", Mutating: true, Short: "Replace the gen-2 favorite musician", Params: []string{"musician"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.SetFavoriteMusician(env, a.Musician)
		}},
	{Name: "set_all", Mutating: true, Short: "Replace the name and both gen-2 fields together", Params: []string{"name", "color", "musician"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.SetAll(env, dispatch.Profile{Name: a.Name, FavoriteColor: a.Color, FavoriteMusician: a.Musician})
		}},
	{Name: "get_all", Short: "Read the name and both gen-2 fields",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.All()
		}},
	{Name: "add_generation_3_and_migrate", Mutating: true, Short: "Derive a gen-3 record from gen-1 and make it current",
		Call: func(c *Contract, env Env, _ Args) (any, error) {
			return c.AddGeneration3AndMigrate(env)
		}},
	{Name: "remove_generation_1", Mutating: true, Short: "Swap-remove the gen-1 record",
		Call: func(c *Contract, env Env, _ Args) (any, error) {
			return nil, c.RemoveGeneration1(env)
		}},
	{Name: "get_account", Short: "Read the gen-3 account",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.Account()
		}},
	{Name: "set_pronoun", Mutating: true, Short: "Replace the gen-3 pronoun", Params: []string{"pronoun"},
		Call: func(c *Contract, env Env, a Args) (any, error) {
			return nil, c.SetPronoun(env, a.Pronoun)
		}},
	{Name: "versions", Short: "List every slot with its record identity and generation",
		Call: func(c *Contract, _ Env, _ Args) (any, error) {
			return c.Versions(), nil
		}},
}

// Lookup returns the operation called name.
func Lookup(name string) (Operation, bool) {
	for _, op := range operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}

// Operations returns the operation table in declaration order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Invoke runs the operation called name. Contract failures are annotated with
// the operation name.
func (c *Contract) Invoke(env Env, name string, a Args) (any, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	res, err := op.Call(c, env, a)
	if err != nil {
		return nil, fault.Annotate(err, name)
	}
	return res, nil
}
