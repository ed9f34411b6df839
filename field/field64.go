package field

import "math/bits"

// Prime64 is the recommended 64-bit field modulus: the largest prime below
// 2^64 (2^64 - 59).
const Prime64 uint64 = 18446744073709551557

// Field64 implements Field[uint64] over GF(Prime64). There is no native
// 128-bit integer type to hold (Prime64-1)^2, so Mul computes the full
// 128-bit product with math/bits.Mul64 and reduces it with a single
// math/bits.Div64, and Add/Sub use math/bits.Add64 to detect the carry a
// native uint64 addition would silently drop.
type Field64 struct{}

var _ Field[uint64] = Field64{}

func (Field64) Zero() uint64 { return 0 }

func (Field64) Modulus() uint64 { return Prime64 }

// New normalizes n, assumed to be in [0, 2*Prime64), into [0, Prime64).
func (Field64) New(n uint64) uint64 {
	if n >= Prime64 {
		return n - Prime64
	}
	return n
}

// FromUint64 converts n, assumed < Prime64, into a field element.
func (Field64) FromUint64(n uint64) uint64 {
	return n
}

func (Field64) Add(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry == 1 || sum >= Prime64 {
		sum -= Prime64
	}
	return sum
}

func (Field64) Sub(a, b uint64) uint64 {
	negB := Prime64 - b
	sum, carry := bits.Add64(a, negB, 0)
	if carry == 1 || sum >= Prime64 {
		sum -= Prime64
	}
	return sum
}

func (Field64) Neg(a uint64) uint64 {
	if a == 0 {
		return 0
	}
	return Prime64 - a
}

// Mul computes the full 128-bit product of a and b and reduces it modulo
// Prime64 with a single hardware division. Since a, b < Prime64 < 2^64,
// the high limb of the product is always strictly less than Prime64, so
// bits.Div64 never overflows.
func (Field64) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, rem := bits.Div64(hi, lo, Prime64)
	return rem
}

func (f Field64) Pow(a uint64, k uint64) uint64 {
	result := uint64(1)
	base := a
	for k > 0 {
		if k&1 == 1 {
			result = f.Mul(result, base)
		}
		base = f.Mul(base, base)
		k >>= 1
	}
	return result
}

// Inv returns a^(Prime64-2) mod Prime64 via Fermat's little theorem.
// Undefined for a == 0.
func (f Field64) Inv(a uint64) uint64 {
	return f.Pow(a, Prime64-2)
}
