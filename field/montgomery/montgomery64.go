// Package montgomery implements the optional 64-bit Montgomery-form field,
// an alternate representation of the same GF(field.Prime64) used by
// field.Field64 but optimized for multiplication-heavy workloads (REDC
// trades a mod-reduction for a shift, at the cost of an explicit
// conversion in and out of the representation).
package montgomery

import (
	"math/bits"

	"github.com/flashbots/quack/field"
)

// Montgomery64 implements field.Field[uint64]. Values are stored as
// a*R mod p for the field element a, where R = 2^64.
//
// New performs the full conversion (n*R mod p) from an ordinary integer,
// matching the interface contract shared with field.Field64 and
// field.Field32: a generic caller inserting a raw packet identifier can
// call f.New(v) uniformly regardless of which Field implementation it
// holds. NewRaw is the lower-level constructor that assumes its argument
// is already a Montgomery residue (n in [0, 2p)), for callers that already
// hold one (e.g. deserializing a previously-converted value).
type Montgomery64 struct{}

var _ field.Field[uint64] = Montgomery64{}

const (
	// rModP is R mod p = 2^64 mod (2^64 - 59) = 59.
	rModP uint64 = 59
	// rSquaredModP is R^2 mod p = 59^2, used to convert an ordinary
	// integer into Montgomery form via a single REDC multiplication.
	rSquaredModP uint64 = 3481
)

// pPrime is p' = -p^-1 mod 2^64, computed once via Newton-Raphson
// iteration for the multiplicative inverse modulo a power of two: each
// iteration x := x*(2 - p*x) doubles the number of correct low bits,
// starting from the trivial one-bit inverse of an odd p (p itself).
// Six iterations are enough to converge a single 64-bit word.
var pPrime = computePPrime(field.Prime64)

func computePPrime(p uint64) uint64 {
	x := p
	for range 6 {
		x *= 2 - p*x
	}
	return -x
}

func (Montgomery64) Zero() uint64 { return 0 }

func (Montgomery64) Modulus() uint64 { return field.Prime64 }

// New converts an ordinary field element into Montgomery form.
func (m Montgomery64) New(n uint64) uint64 {
	return m.Mul(field.Field64{}.New(n), rSquaredModP)
}

// NewRaw assumes n is already a Montgomery residue in [0, 2p) and only
// normalizes it into [0, p).
func (Montgomery64) NewRaw(n uint64) uint64 {
	return field.Field64{}.New(n)
}

// FromUint64 converts a small ordinary integer (n < p) into its
// Montgomery residue.
func (m Montgomery64) FromUint64(n uint64) uint64 {
	return m.New(n)
}

// Add, Sub and Neg coincide bitwise with field.Field64's, because
// (aR) +/- (bR) = (a +/- b)R mod p: the Montgomery scaling factor is
// invariant under addition and negation.
func (Montgomery64) Add(a, b uint64) uint64 { return field.Field64{}.Add(a, b) }
func (Montgomery64) Sub(a, b uint64) uint64 { return field.Field64{}.Sub(a, b) }
func (Montgomery64) Neg(a uint64) uint64    { return field.Field64{}.Neg(a) }

// Mul performs Montgomery multiplication (REDC): computes the full
// 128-bit product T = a*b, then reduces T/R mod p without a division by
// p, using only the precomputed p' and one 128-bit multiply by p.
func (Montgomery64) Mul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	m := lo * pPrime
	mHi, mLo := bits.Mul64(m, field.Prime64)

	_, carry0 := bits.Add64(lo, mLo, 0)
	sum, carry1 := bits.Add64(hi, mHi, carry0)

	return reduceWithCarry(sum, carry1)
}

// reduceWithCarry reduces sum + carry*2^64 modulo p, given sum < 2^64 and
// carry in {0, 1}. Since 2^64 = p + 59, a carry contributes exactly 59
// mod p rather than requiring a second full-width subtraction.
func reduceWithCarry(sum, carry uint64) uint64 {
	if sum >= field.Prime64 {
		sum -= field.Prime64
	}
	if carry == 1 {
		sum += rModP
		if sum >= field.Prime64 {
			sum -= field.Prime64
		}
	}
	return sum
}

// Pow computes a^k via square-and-multiply, seeded with the Montgomery
// representation of 1 (R mod p) rather than the literal 1, so that every
// intermediate result stays a valid Montgomery residue throughout.
func (m Montgomery64) Pow(a uint64, k uint64) uint64 {
	result := rModP
	base := a
	for k > 0 {
		if k&1 == 1 {
			result = m.Mul(result, base)
		}
		base = m.Mul(base, base)
		k >>= 1
	}
	return result
}

// Inv returns the Montgomery residue of a^-1, computed as a^(p-2) via Pow.
// Because Pow already preserves the Montgomery scaling invariant at every
// step (see Pow's doc comment), this needs no separate correction factor:
// Pow(a, p-2) already equals (a^-1)*R mod p.
func (m Montgomery64) Inv(a uint64) uint64 {
	return m.Pow(a, field.Prime64-2)
}
