package services

import (
	"errors"
	"math"
	"sync/atomic"
)

// DefaultPaymentIDBase is the first payment id handed out by a fresh ledger.
const DefaultPaymentIDBase = 1001

// ErrIDSpaceExhausted is returned once the id counter would overflow.
// Callers must treat it as fatal; ids are never reused or wrapped.
var ErrIDSpaceExhausted = errors.New("payment id space exhausted")

// IDGenerator issues strictly increasing payment ids. It is safe for
// concurrent use by multiple terminals sharing one instance: no two callers
// ever receive the same id.
type IDGenerator struct {
	// last holds the most recently issued id, so Next returns last+1.
	last atomic.Int64
}

// NewIDGenerator creates a generator whose first id is base. A base below
// DefaultPaymentIDBase is raised to it, so a restarted service seeded from an
// empty ledger still starts at the fixed base.
func NewIDGenerator(base int64) *IDGenerator {
	if base < DefaultPaymentIDBase {
		base = DefaultPaymentIDBase
	}
	g := &IDGenerator{}
	g.last.Store(base - 1)
	return g
}

// Next returns the next payment id. It never hands out duplicates under
// concurrency and never skips values on its own.
func (g *IDGenerator) Next() (int64, error) {
	id := g.last.Add(1)
	if id == math.MaxInt64 || id < DefaultPaymentIDBase {
		return 0, ErrIDSpaceExhausted
	}
	return id, nil
}
