// Package powertable implements the optional 16-bit precomputed power
// table: for every possible 16-bit input x, the vector (x^1, x^2, ...,
// x^T_MAX) mod p. It accelerates both tabled insertion (componentwise add
// into an accumulator's power sums, no multiplies) and tabled polynomial
// evaluation.
//
// The table is process-wide, lazily built on first use, and keyed by
// prime so that distinct 16-bit fields never share storage. Once built
// for a given prime, its T_MAX is fixed: a later request for a larger
// threshold fails rather than silently growing or rebuilding the table,
// matching the "advisory setter, detect already-initialized-smaller"
// rule for the global threshold config.
package powertable

import (
	"errors"
	"sync"

	"github.com/flashbots/quack/field"
)

// ErrThresholdExceedsMax is returned by Get when the table for this
// prime was already built with a smaller T_MAX than requested.
var ErrThresholdExceedsMax = errors.New("powertable: table already built with a smaller max threshold")

// Table is a 65536 x tMax matrix of field elements, entries[x][k-1] = x^k
// mod p, stored flat in row-major order.
type Table struct {
	tMax    int
	entries []uint16
}

// MaxThreshold returns the T_MAX the table was built with.
func (t *Table) MaxThreshold() int { return t.tMax }

// Row returns the precomputed powers (x^1, ..., x^tMax) for x. The
// returned slice is shared and must not be mutated.
func (t *Table) Row(x uint16) []uint16 {
	start := int(x) * t.tMax
	return t.entries[start : start+t.tMax]
}

// At returns x^k mod p for 1 <= k <= MaxThreshold().
func (t *Table) At(x uint16, k int) uint16 {
	return t.entries[int(x)*t.tMax+(k-1)]
}

type registryEntry struct {
	once  sync.Once
	table *Table
}

var (
	registryMu sync.Mutex
	registry   = map[uint16]*registryEntry{}
)

// Get returns the power table for f's prime, building it on the first
// call for that prime with the given tMax. Subsequent calls return the
// same table regardless of tMax, as long as tMax does not exceed the
// table's MaxThreshold; a larger tMax is rejected with
// ErrThresholdExceedsMax rather than triggering a rebuild.
func Get(f field.Field[uint16], tMax int) (*Table, error) {
	registryMu.Lock()
	entry, ok := registry[f.Modulus()]
	if !ok {
		entry = &registryEntry{}
		registry[f.Modulus()] = entry
	}
	registryMu.Unlock()

	entry.once.Do(func() {
		entry.table = build(f, tMax)
	})

	if tMax > entry.table.tMax {
		return nil, ErrThresholdExceedsMax
	}
	return entry.table, nil
}

func build(f field.Field[uint16], tMax int) *Table {
	entries := make([]uint16, 65536*tMax)
	for x := 0; x < 65536; x++ {
		base := uint16(x)
		value := f.New(1)
		row := entries[x*tMax : x*tMax+tMax]
		for k := 0; k < tMax; k++ {
			value = f.Mul(value, base)
			row[k] = value
		}
	}
	return &Table{tMax: tMax, entries: entries}
}
