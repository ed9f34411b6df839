package quack

import (
	"fmt"

	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/field/inverse"
	"github.com/flashbots/quack/field/powertable"
)

// Accumulator holds the first Threshold power sums of an inserted
// multiset of T values, in the field implemented by F. F is carried as a
// type parameter rather than a field so that empty-struct field
// implementations (field.Field16, field.Field32, field.Field64,
// montgomery.Montgomery64) need no allocation or indirection to use.
type Accumulator[T Narrow, F field.Field[T]] struct {
	threshold    int
	count        uint32
	lastValue    T
	hasLastValue bool
	sums         []T

	// invTable holds inv[k-1] = k^-1 mod p for k in [1, threshold], built
	// once (at New/Deserialize time, and shared by Clone, since threshold
	// is fixed for the accumulator's lifetime) so ToPolynomialCoefficientsPreallocated
	// never redoes the O(t) Fermat's-little-theorem exponentiations on
	// every call.
	invTable inverse.Table[T]
}

// New allocates an empty accumulator with the given threshold. t must be
// at least 1. If a process-wide max threshold has been configured via
// SetMaxThreshold, t must not exceed it.
func New[T Narrow, F field.Field[T]](t int) (*Accumulator[T, F], error) {
	if t < 1 {
		return nil, fmt.Errorf("quack: threshold must be >= 1, got %d", t)
	}
	if max := MaxThreshold(); max > 0 && t > max {
		return nil, ErrThresholdExceedsMax
	}

	var f F
	sums := make([]T, t)
	zero := f.Zero()
	for i := range sums {
		sums[i] = zero
	}

	return &Accumulator[T, F]{threshold: t, sums: sums, invTable: inverse.Build[T](f, t)}, nil
}

// Threshold returns t, the number of power sums tracked.
func (a *Accumulator[T, F]) Threshold() int { return a.threshold }

// Count returns the number of elements inserted minus the number removed.
func (a *Accumulator[T, F]) Count() uint32 { return a.count }

// LastValue returns the most recently inserted element and whether any
// element has ever been inserted. Removal, SubAssign and Sub never
// update it: a difference-accumulator's LastValue reflects whatever the
// minuend last had inserted, not anything about the difference itself.
func (a *Accumulator[T, F]) LastValue() (T, bool) {
	return a.lastValue, a.hasLastValue
}

// Insert folds v into every power sum: S[i] += v^(i+1) for i in
// [0, threshold). It runs in O(threshold) field multiplications using a
// running power rather than recomputing v^(i+1) from scratch each time.
func (a *Accumulator[T, F]) Insert(v T) {
	var f F
	nv := f.New(v)
	y := nv
	for i := 0; i < a.threshold; i++ {
		a.sums[i] = f.Add(a.sums[i], y)
		y = f.Mul(y, nv)
	}
	a.count++
	a.lastValue = nv
	a.hasLastValue = true
}

// Remove folds v out of every power sum, the inverse of Insert. It does
// not verify that v was ever inserted: callers that need the subset
// invariant (e.g. before Sub/SubAssign) must track membership themselves.
// LastValue is left untouched, matching Insert's asymmetry.
func (a *Accumulator[T, F]) Remove(v T) {
	var f F
	nv := f.New(v)
	y := nv
	for i := 0; i < a.threshold; i++ {
		a.sums[i] = f.Sub(a.sums[i], y)
		y = f.Mul(y, nv)
	}
	a.count--
}

// InsertTabled is the 16-bit tabled insertion path: it looks up the
// precomputed powers of v in the process-wide field/powertable table
// instead of computing them, trading t multiplications for t table
// reads. It returns ErrThresholdExceedsMax if the table was already
// built (by an earlier call, for this same prime, from any accumulator)
// with a smaller max threshold than this accumulator's.
func InsertTabled(a *Accumulator[uint16, field.Field16], v uint16) error {
	var f field.Field16
	nv := f.New(v)

	// Sized off the process-wide T_MAX at first build (spec.md §4.6), not
	// off this accumulator's own threshold, so every 16-bit accumulator
	// shares one table. Falls back to a.threshold if T_MAX was never set.
	tblSize := MaxThreshold()
	if tblSize < a.threshold {
		tblSize = a.threshold
	}

	tbl, err := powertable.Get(f, tblSize)
	if err != nil {
		return ErrThresholdExceedsMax
	}
	row := tbl.Row(nv)
	for i := 0; i < a.threshold; i++ {
		a.sums[i] = f.Add(a.sums[i], row[i])
	}
	a.count++
	a.lastValue = nv
	a.hasLastValue = true
	return nil
}

// SubAssign subtracts other's power sums and count from a in place.
// other must have the same threshold as a.
func (a *Accumulator[T, F]) SubAssign(other *Accumulator[T, F]) error {
	if a.threshold != other.threshold {
		return ErrThresholdMismatch
	}
	var f F
	for i := range a.sums {
		a.sums[i] = f.Sub(a.sums[i], other.sums[i])
	}
	a.count -= other.count
	return nil
}

// Clone returns an independent copy of a.
func (a *Accumulator[T, F]) Clone() *Accumulator[T, F] {
	sums := make([]T, len(a.sums))
	copy(sums, a.sums)
	return &Accumulator[T, F]{
		threshold:    a.threshold,
		count:        a.count,
		lastValue:    a.lastValue,
		hasLastValue: a.hasLastValue,
		sums:         sums,
		invTable:     a.invTable,
	}
}

// Sub returns a new accumulator equal to a with b's power sums and count
// subtracted, leaving both a and b unmodified. It requires a.threshold ==
// b.threshold.
func Sub[T Narrow, F field.Field[T]](a, b *Accumulator[T, F]) (*Accumulator[T, F], error) {
	if a.threshold != b.threshold {
		return nil, ErrThresholdMismatch
	}
	result := a.Clone()
	if err := result.SubAssign(b); err != nil {
		return nil, err
	}
	return result, nil
}
