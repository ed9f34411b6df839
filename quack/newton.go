package quack

import "fmt"

// ToPolynomialCoefficients converts a's power sums into the coefficients
// of the monic degree-threshold polynomial whose roots are the elements
// of the multiset a represents (see ToPolynomialCoefficientsPreallocated
// for the algorithm). It allocates a fresh slice of length Threshold().
func (a *Accumulator[T, F]) ToPolynomialCoefficients() []T {
	buf := make([]T, a.threshold)
	// Error is impossible: buf is freshly allocated with the exact length.
	_ = a.ToPolynomialCoefficientsPreallocated(buf)
	return buf
}

// ToPolynomialCoefficientsPreallocated writes into buf (which must have
// length exactly Threshold()) the coefficients c[0..t-1] of the monic
// polynomial P(x) = x^t + c[0]*x^(t-1) + ... + c[t-1].
//
// It applies Newton's identities: the elementary symmetric polynomials
// e_0..e_t satisfy e_0 = 1 and, for k = 1..t,
//
//	k * e_k = sum_{i=1..k} (-1)^(i-1) * e_{k-i} * p_i
//
// where p_i is the i-th power sum (a.sums[i-1]). Dividing by k uses the
// precomputed inverse table. The monic coefficients are then
// c[i] = (-1)^(i+1) * e_{i+1}. If the inserted multiset's true size d is
// less than t, e_k for k > d is identically zero, so the trailing t-d
// coefficients come out zero with no special-casing.
//
// Cost is O(t^2) field multiplications, matching the reference
// implementation this recurrence is grounded on. The inverse table
// consumed here is built once at New/Deserialize time (Clone shares it)
// and cached on the accumulator (a.invTable), not rebuilt per call: reusing it is
// what keeps this preallocated entry point free of the allocation and
// the O(t*log p) of Fermat's-little-theorem inversions that building it
// fresh every call would cost.
func (a *Accumulator[T, F]) ToPolynomialCoefficientsPreallocated(buf []T) error {
	if len(buf) != a.threshold {
		return fmt.Errorf("quack: coefficient buffer must have length %d, got %d", a.threshold, len(buf))
	}

	var f F
	t := a.threshold

	e := make([]T, t+1)
	e[0] = f.FromUint64(1)
	for k := 1; k <= t; k++ {
		sum := f.Zero()
		for i := 1; i <= k; i++ {
			term := f.Mul(e[k-i], a.sums[i-1])
			if i%2 == 1 {
				sum = f.Add(sum, term)
			} else {
				sum = f.Sub(sum, term)
			}
		}
		e[k] = f.Mul(sum, a.invTable.At(k))
	}

	for i := 0; i < t; i++ {
		if (i+1)%2 == 1 {
			buf[i] = f.Neg(e[i+1])
		} else {
			buf[i] = e[i+1]
		}
	}
	return nil
}
