package field

// Prime32 is the recommended 32-bit field modulus: the largest prime below
// 2^32.
const Prime32 uint32 = 4294967291

// Field32 implements Field[uint32] over GF(Prime32), with uint64 as the
// wide accumulator type.
type Field32 struct{}

var _ Field[uint32] = Field32{}

func (Field32) Zero() uint32 { return 0 }

func (Field32) Modulus() uint32 { return Prime32 }

// New normalizes n, assumed to be in [0, 2*Prime32), into [0, Prime32).
func (Field32) New(n uint32) uint32 {
	if n >= Prime32 {
		return n - Prime32
	}
	return n
}

// FromUint64 converts n, assumed < Prime32, into a field element.
func (Field32) FromUint64(n uint64) uint32 {
	return uint32(n)
}

func (Field32) Add(a, b uint32) uint32 {
	sum := uint64(a) + uint64(b)
	if sum >= uint64(Prime32) {
		sum -= uint64(Prime32)
	}
	return uint32(sum)
}

func (Field32) Sub(a, b uint32) uint32 {
	diff := uint64(Prime32) - uint64(b) + uint64(a)
	if diff >= uint64(Prime32) {
		diff -= uint64(Prime32)
	}
	return uint32(diff)
}

func (Field32) Neg(a uint32) uint32 {
	if a == 0 {
		return 0
	}
	return Prime32 - a
}

func (Field32) Mul(a, b uint32) uint32 {
	return uint32((uint64(a) * uint64(b)) % uint64(Prime32))
}

func (f Field32) Pow(a uint32, k uint64) uint32 {
	result := uint32(1)
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

// Inv returns a^(Prime32-2) mod Prime32 via Fermat's little theorem.
// Undefined for a == 0.
func (f Field32) Inv(a uint32) uint32 {
	return f.Pow(a, uint64(Prime32-2))
}
