package field

import (
	"math/rand"
	"testing"
)

// fieldLaws exercises the universal field-axiom properties every Field
// implementation must satisfy: commutativity and associativity of + and
// *, distributivity, additive inverses, and multiplicative inverses for
// nonzero elements.
func fieldLaws[T ~uint16 | ~uint32 | ~uint64](t *testing.T, f Field[T], samples []T) {
	t.Helper()

	for _, a := range samples {
		for _, b := range samples {
			if f.Add(a, b) != f.Add(b, a) {
				t.Fatalf("add not commutative: %v + %v", a, b)
			}
			if f.Mul(a, b) != f.Mul(b, a) {
				t.Fatalf("mul not commutative: %v * %v", a, b)
			}
		}
	}

	for _, a := range samples {
		for _, b := range samples {
			for _, c := range samples {
				lhs := f.Add(f.Add(a, b), c)
				rhs := f.Add(a, f.Add(b, c))
				if lhs != rhs {
					t.Fatalf("add not associative: (%v+%v)+%v = %v, %v+(%v+%v) = %v", a, b, c, lhs, a, b, c, rhs)
				}

				lhsMul := f.Mul(f.Mul(a, b), c)
				rhsMul := f.Mul(a, f.Mul(b, c))
				if lhsMul != rhsMul {
					t.Fatalf("mul not associative: (%v*%v)*%v = %v, %v*(%v*%v) = %v", a, b, c, lhsMul, a, b, c, rhsMul)
				}

				lhsDist := f.Mul(a, f.Add(b, c))
				rhsDist := f.Add(f.Mul(a, b), f.Mul(a, c))
				if lhsDist != rhsDist {
					t.Fatalf("distributivity failed: %v*(%v+%v) = %v, %v*%v+%v*%v = %v", a, b, c, lhsDist, a, b, a, c, rhsDist)
				}
			}
		}
	}

	for _, a := range samples {
		if f.Add(a, f.Neg(a)) != f.Zero() {
			t.Fatalf("a + (-a) != 0 for a=%v", a)
		}
		if a == f.Zero() {
			continue
		}
		if f.Mul(a, f.Inv(a)) != f.FromUint64(1) {
			t.Fatalf("a * inv(a) != 1 for a=%v", a)
		}
	}
}

func samples16() []uint16 {
	return []uint16{0, 1, 2, 3, 65519, 65520, 32760, 12345}
}

func samples32() []uint32 {
	return []uint32{0, 1, 2, 3, 4294967289, 4294967290, 2147483645, 123456789}
}

func samples64() []uint64 {
	return []uint64{0, 1, 2, 3, Prime64 - 2, Prime64 - 1, 9223372036854775807, 123456789012345}
}

func TestField16Laws(t *testing.T) { fieldLaws[uint16](t, Field16{}, samples16()) }
func TestField32Laws(t *testing.T) { fieldLaws[uint32](t, Field32{}, samples32()) }
func TestField64Laws(t *testing.T) { fieldLaws[uint64](t, Field64{}, samples64()) }

func TestField16New(t *testing.T) {
	f := Field16{}
	if got := f.New(Prime16); got != 0 {
		t.Fatalf("New(p) = %v, want 0", got)
	}
	if got := f.New(Prime16 + 5); got != 5 {
		t.Fatalf("New(p+5) = %v, want 5", got)
	}
	if got := f.New(100); got != 100 {
		t.Fatalf("New(100) = %v, want 100 (already reduced)", got)
	}
}

func TestField32PowMatchesRepeatedMul(t *testing.T) {
	f := Field32{}
	a := uint32(12345)
	expected := f.FromUint64(1)
	for i := 0; i < 17; i++ {
		expected = f.Mul(expected, a)
	}
	if got := f.Pow(a, 17); got != expected {
		t.Fatalf("Pow(a, 17) = %v, want %v", got, expected)
	}
}

func TestField64MulNoOverflow(t *testing.T) {
	f := Field64{}
	a := Prime64 - 1
	b := Prime64 - 1
	got := f.Mul(a, b)
	if got >= Prime64 {
		t.Fatalf("Mul result %v not reduced mod p", got)
	}
	// (p-1)*(p-1) mod p == 1
	if got != 1 {
		t.Fatalf("(p-1)*(p-1) mod p = %v, want 1", got)
	}
}

func FuzzField32Add(f *testing.F) {
	f.Add(uint32(0), uint32(0))
	f.Add(Prime32-1, Prime32-1)
	f.Add(uint32(1), Prime32-1)

	field := Field32{}
	f.Fuzz(func(t *testing.T, a, b uint32) {
		na := field.New(uint32(uint64(a) % (2 * uint64(Prime32))))
		nb := field.New(uint32(uint64(b) % (2 * uint64(Prime32))))

		sum := field.Add(na, nb)
		if sum >= Prime32 {
			t.Fatalf("Add result %v not reduced", sum)
		}
		if field.Add(na, nb) != field.Add(nb, na) {
			t.Fatalf("Add not commutative for %v, %v", na, nb)
		}
	})
}

func FuzzField32MulInvIdentity(f *testing.F) {
	f.Add(uint32(1))
	f.Add(uint32(12345))

	field := Field32{}
	f.Fuzz(func(t *testing.T, a uint32) {
		na := field.New(a % Prime32)
		if na == 0 {
			return
		}
		if got := field.Mul(na, field.Inv(na)); got != 1 {
			t.Fatalf("a * inv(a) = %v for a=%v, want 1", got, na)
		}
	})
}

func FuzzField64RoundTripsThroughSubAndAdd(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(Prime64-1, uint64(1))

	field := Field64{}
	f.Fuzz(func(t *testing.T, a, b uint64) {
		na := field.New(a % Prime64)
		nb := field.New(b % Prime64)

		sum := field.Add(na, nb)
		back := field.Sub(sum, nb)
		if back != na {
			t.Fatalf("(a+b)-b = %v, want %v", back, na)
		}
	})
}

func TestFieldSamplesCoverRandomValues(t *testing.T) {
	// Supplement the fixed corpora above with a handful of random values,
	// matching the teacher's practice of mixing golden and randomized
	// coverage in the same package.
	rng := rand.New(rand.NewSource(1))

	f16 := Field16{}
	r16 := make([]uint16, 0, 8)
	for i := 0; i < 8; i++ {
		r16 = append(r16, uint16(rng.Intn(int(Prime16))))
	}
	fieldLaws[uint16](t, f16, r16)

	f32 := Field32{}
	r32 := make([]uint32, 0, 8)
	for i := 0; i < 8; i++ {
		r32 = append(r32, uint32(rng.Int63n(int64(Prime32))))
	}
	fieldLaws[uint32](t, f32, r32)
}
