package engine

import (
	"github.com/roach88/genstore/internal/guard"
	"github.com/roach88/genstore/internal/schema"
)

// Env is the host as seen by one call: who is calling, who owns the store,
// and where log lines go.
type Env interface {
	guard.Identity

	// Log records one formatted line.
	Log(msg string)
}

// CallEnv is an Env that buffers log lines for the host to flush after the
// call commits.
type CallEnv struct {
	guard.Static
	logs []string
}

// NewCallEnv creates an environment for caller against a store owned by self.
func NewCallEnv(caller, self schema.Principal) *CallEnv {
	return &CallEnv{Static: guard.Static{CallerPrincipal: caller, SelfPrincipal: self}}
}

// Log buffers msg.
func (e *CallEnv) Log(msg string) {
	e.logs = append(e.logs, msg)
}

// Logs returns the buffered lines in order.
func (e *CallEnv) Logs() []string {
	out := make([]string, len(e.logs))
	copy(out, e.logs)
	return out
}
