// Package guard implements the single-principal ownership check that gates
// every mutating contract operation.
package guard

import (
	"github.com/roach88/genstore/internal/fault"
	"github.com/roach88/genstore/internal/schema"
)

// Identity is the host's identity oracle.
type Identity interface {
	// Caller is the principal invoking the current call.
	Caller() schema.Principal

	// Self is the principal that controls the store.
	Self() schema.Principal
}

// Require fails with Unauthorized unless the caller is the store's owner.
// An empty owner never matches, so a misconfigured host rejects everyone.
func Require(id Identity) error {
	caller, self := id.Caller(), id.Self()
	if self == "" || caller != self {
		return fault.NewUnauthorized(string(caller), string(self))
	}
	return nil
}

// Static is a fixed Identity, used by the CLI and tests.
type Static struct {
	CallerPrincipal schema.Principal
	SelfPrincipal   schema.Principal
}

func (s Static) Caller() schema.Principal { return s.CallerPrincipal }
func (s Static) Self() schema.Principal   { return s.SelfPrincipal }
