package migrate

import "slices"

// Ledger is the ordered list of applied migrations.
type Ledger struct {
	applied []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// LedgerFrom rebuilds a ledger from persisted names.
func LedgerFrom(names []string) *Ledger {
	return &Ledger{applied: slices.Clone(names)}
}

// Applied reports whether name has run.
func (l *Ledger) Applied(name string) bool {
	return slices.Contains(l.applied, name)
}

// Names returns the applied migrations in the order they ran.
func (l *Ledger) Names() []string {
	return slices.Clone(l.applied)
}

func (l *Ledger) record(name string) {
	l.applied = append(l.applied, name)
}
