// Package inverse precomputes the modular multiplicative inverses that
// Newton's identities consume: inv[k-1] = k^-1 mod p for k in [1, t].
package inverse

import "github.com/flashbots/quack/field"

// Table holds inv[i] = (i+1)^-1 mod p for i in [0, t).
type Table[T any] struct {
	values []T
}

// Build computes a fresh inverse table of length t using f.Inv. Callers
// that need this table repeatedly for the same (p, t) pair should cache
// the result themselves; Build does no caching of its own. See
// field/powertable for the process-wide, lazily built table used by the
// 16-bit tabled insertion/evaluation path.
func Build[T any](f field.Field[T], t int) Table[T] {
	values := make([]T, t)
	for i := range values {
		values[i] = f.Inv(f.FromUint64(uint64(i + 1)))
	}
	return Table[T]{values: values}
}

// At returns inv[k-1] for 1 <= k <= Len().
func (tbl Table[T]) At(k int) T {
	return tbl.values[k-1]
}

// Len returns the threshold the table was built for.
func (tbl Table[T]) Len() int {
	return len(tbl.values)
}
