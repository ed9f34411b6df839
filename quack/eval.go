package quack

import (
	"github.com/flashbots/quack/field"
	"github.com/flashbots/quack/field/powertable"
)

// Eval evaluates the monic polynomial with coefficients coeffs (as
// produced by ToPolynomialCoefficients) at x, via Horner's rule:
// r := x; for each c in coeffs[:len-1]: r = (r + c) * x; return r +
// coeffs[last].
func Eval[T Narrow, F field.Field[T]](coeffs []T, x T) T {
	var f F
	nx := f.New(x)
	r := nx
	for i := 0; i < len(coeffs)-1; i++ {
		r = f.Mul(f.Add(r, coeffs[i]), nx)
	}
	return f.Add(r, coeffs[len(coeffs)-1])
}

// EvalTabled is the 16-bit tabled evaluation path. Rather than t-1
// sequential multiplications it looks up the precomputed powers of x and
// sums coeffs[i]*x^(t-1-i) directly in a wide accumulator, reducing
// modulo p once at the end. It returns ErrThresholdExceedsMax under the
// same condition as InsertTabled.
func EvalTabled(coeffs []uint16, x uint16) (uint16, error) {
	var f field.Field16
	nx := f.New(x)
	t := len(coeffs)

	// The table is sized off the process-wide T_MAX at the time it is
	// first built (spec.md §4.6), not off this call's coefficient count,
	// so that every accumulator sharing this prime shares one table
	// regardless of its own threshold. Absent a configured T_MAX, fall
	// back to t so a first call still builds a usable table.
	tblSize := MaxThreshold()
	if tblSize < t {
		tblSize = t
	}

	tbl, err := powertable.Get(f, tblSize)
	if err != nil {
		return 0, ErrThresholdExceedsMax
	}
	row := tbl.Row(nx)

	var acc uint64
	for i := 0; i < t-1; i++ {
		acc += uint64(coeffs[i]) * uint64(row[t-2-i])
	}
	acc += uint64(coeffs[t-1])
	acc += uint64(row[t-1])

	return uint16(acc % uint64(field.Prime16)), nil
}
