package quack

import "github.com/flashbots/quack/field"

// countTrailingZeros returns the number of trailing zero coefficients in
// coeffs, which equals t minus the effective degree of the polynomial
// (see ToPolynomialCoefficientsPreallocated's doc comment).
func countTrailingZeros[T Narrow, F field.Field[T]](coeffs []T) int {
	var f F
	zero := f.Zero()
	n := 0
	for i := len(coeffs) - 1; i >= 0; i-- {
		if coeffs[i] != zero {
			break
		}
		n++
	}
	return n
}

// Decode returns the elements of log that are roots of a's difference
// polynomial, in log's original order and with log's multiplicity
// preserved (it does not deduplicate).
//
// If the accumulator represents a multiset of true size d (d =
// Threshold() - countTrailingZeros(coeffs)), every element of the
// multiset that also appears in log is guaranteed to be returned. An
// element not in the multiset may still evaluate to zero and be
// (falsely) returned, with probability approximately d/p. If d exceeds
// Threshold(), the result is meaningless but the function does not
// fail: callers detect this by comparing len(result) to Count().
func Decode[T Narrow, F field.Field[T]](a *Accumulator[T, F], log []T) []T {
	coeffs := a.ToPolynomialCoefficients()

	d := a.threshold - countTrailingZeros[T, F](coeffs)
	if d <= 0 {
		return nil
	}

	var f F
	zero := f.Zero()
	out := make([]T, 0, len(log))
	for _, x := range log {
		if Eval[T, F](coeffs, x) == zero {
			out = append(out, x)
		}
	}
	return out
}
