package quack

import (
	"math/rand"
	"testing"

	"github.com/flashbots/quack/field"
)

func insertAll(a *Accumulator[uint32, field.Field32], vs []uint32) {
	for _, v := range vs {
		a.Insert(v)
	}
}

func mustNew32(t *testing.T, threshold int) *Accumulator[uint32, field.Field32] {
	t.Helper()
	a, err := New[uint32, field.Field32](threshold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

// TestInsertRemoveInverse is property 1 from spec.md §8: inserting then
// removing the same value leaves every power sum and the count
// unchanged.
func TestInsertRemoveInverse(t *testing.T) {
	a := mustNew32(t, 10)
	before := a.ToPolynomialCoefficients()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := uint32(rng.Int63())
		a.Insert(v)
		a.Remove(v)
	}

	after := a.ToPolynomialCoefficients()
	if a.Count() != 0 {
		t.Fatalf("count = %d after equal insert/remove pairs, want 0", a.Count())
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("coefficient %d changed: %v -> %v", i, before[i], after[i])
		}
	}
}

// TestInsertCommutative is property 2: insertion order does not affect
// the resulting power sums.
func TestInsertCommutative(t *testing.T) {
	values := []uint32{7, 42, 1000001, 3, 99999999}

	a := mustNew32(t, 5)
	insertAll(a, values)

	permuted := []uint32{3, 1000001, 7, 99999999, 42}
	b := mustNew32(t, 5)
	insertAll(b, permuted)

	ca := a.ToPolynomialCoefficients()
	cb := b.ToPolynomialCoefficients()
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("coefficients differ under permutation at %d: %v vs %v", i, ca[i], cb[i])
		}
	}
}

func setDiff(a, b []uint32) []uint32 {
	counts := map[uint32]int{}
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
	}
	var out []uint32
	for v, c := range counts {
		for i := 0; i < c; i++ {
			out = append(out, v)
		}
	}
	return out
}

func containsSameMultiset(t *testing.T, got, want []uint32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v (len %d), want %v (len %d)", got, len(got), want, len(want))
	}
	gotCounts := map[uint32]int{}
	for _, v := range got {
		gotCounts[v]++
	}
	for _, v := range want {
		gotCounts[v]--
	}
	for v, c := range gotCounts {
		if c != 0 {
			t.Fatalf("multiset mismatch at %d: got %v, want %v", v, got, want)
		}
	}
}

// TestS1BasicDifference is scenario S1 from spec.md §8.
func TestS1BasicDifference(t *testing.T) {
	const threshold = 10
	aAcc := mustNew32(t, threshold)
	insertAll(aAcc, []uint32{1, 2, 3, 4, 5})

	bAcc := mustNew32(t, threshold)
	insertAll(bAcc, []uint32{2, 5})

	diff, err := Sub[uint32, field.Field32](aAcc, bAcc)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	decoded := Decode[uint32, field.Field32](diff, []uint32{1, 2, 3, 4, 5})
	containsSameMultiset(t, decoded, []uint32{1, 3, 4})
}

// TestS2EqualSetsDecodeEmpty is scenario S2.
func TestS2EqualSetsDecodeEmpty(t *testing.T) {
	const threshold = 10
	values := []uint32{10, 20, 30}

	aAcc := mustNew32(t, threshold)
	insertAll(aAcc, values)
	bAcc := mustNew32(t, threshold)
	insertAll(bAcc, values)

	diff, err := Sub[uint32, field.Field32](aAcc, bAcc)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	decoded := Decode[uint32, field.Field32](diff, values)
	if len(decoded) != 0 {
		t.Fatalf("decoded = %v, want empty", decoded)
	}

	coeffs := diff.ToPolynomialCoefficients()
	for i, c := range coeffs {
		if c != 0 {
			t.Fatalf("coefficient %d = %d, want 0 for an empty difference", i, c)
		}
	}
}

// TestS3FullThresholdDifference is scenario S3: a difference of exactly
// t elements decodes completely.
func TestS3FullThresholdDifference(t *testing.T) {
	const threshold = 10
	rng := rand.New(rand.NewSource(3))

	aVals := make([]uint32, 0, threshold)
	seen := map[uint32]bool{}
	for len(aVals) < threshold {
		v := uint32(rng.Int63())
		if seen[v] {
			continue
		}
		seen[v] = true
		aVals = append(aVals, v)
	}

	aAcc := mustNew32(t, threshold)
	insertAll(aAcc, aVals)
	bAcc := mustNew32(t, threshold)

	diff, err := Sub[uint32, field.Field32](aAcc, bAcc)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	decoded := Decode[uint32, field.Field32](diff, aVals)
	if len(decoded) != threshold {
		t.Fatalf("decoded len = %d, want %d", len(decoded), threshold)
	}
	containsSameMultiset(t, decoded, aVals)
}

// TestS4OverflowDoesNotCrash is scenario S4: a difference larger than the
// threshold produces meaningless but non-fatal output.
func TestS4OverflowDoesNotCrash(t *testing.T) {
	const threshold = 10
	rng := rand.New(rand.NewSource(4))

	aVals := make([]uint32, 0, threshold+1)
	seen := map[uint32]bool{}
	for len(aVals) < threshold+1 {
		v := uint32(rng.Int63())
		if seen[v] {
			continue
		}
		seen[v] = true
		aVals = append(aVals, v)
	}

	aAcc := mustNew32(t, threshold)
	insertAll(aAcc, aVals)
	bAcc := mustNew32(t, threshold)

	diff, err := Sub[uint32, field.Field32](aAcc, bAcc)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	// Must not panic; the result is allowed to be meaningless.
	decoded := Decode[uint32, field.Field32](diff, aVals)
	if len(decoded) == threshold+1 {
		t.Fatalf("decoded size %d unexpectedly equals the true (overflowing) difference size", len(decoded))
	}
}

// TestS5RepeatedInsertRemoveLeavesEmptyAccumulator is scenario S5.
func TestS5RepeatedInsertRemoveLeavesEmptyAccumulator(t *testing.T) {
	const threshold = 10
	a := mustNew32(t, threshold)

	for i := uint32(0); i < 1000; i++ {
		a.Insert(i)
		a.Remove(i)
	}

	empty := mustNew32(t, threshold)
	diff, err := Sub[uint32, field.Field32](a, empty)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if diff.Count() != 0 {
		t.Fatalf("count = %d, want 0", diff.Count())
	}

	decoded := Decode[uint32, field.Field32](diff, []uint32{0, 1, 2, 500, 999})
	if len(decoded) != 0 {
		t.Fatalf("decoded = %v, want empty", decoded)
	}
}

// TestS6SerializationRoundTrip is scenario S6.
func TestS6SerializationRoundTrip(t *testing.T) {
	const threshold = 32
	a := mustNew32(t, threshold)

	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 500; i++ {
		a.Insert(uint32(rng.Int63()))
	}

	data := Serialize[uint32, field.Field32](a)
	back, err := Deserialize[uint32, field.Field32](data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if back.Threshold() != a.Threshold() {
		t.Fatalf("threshold mismatch: %d vs %d", back.Threshold(), a.Threshold())
	}
	if back.Count() != a.Count() {
		t.Fatalf("count mismatch: %d vs %d", back.Count(), a.Count())
	}
	lv1, ok1 := a.LastValue()
	lv2, ok2 := back.LastValue()
	if lv1 != lv2 || ok1 != ok2 {
		t.Fatalf("last value mismatch: (%v,%v) vs (%v,%v)", lv1, ok1, lv2, ok2)
	}

	ca := a.ToPolynomialCoefficients()
	cb := back.ToPolynomialCoefficients()
	for i := range ca {
		if ca[i] != cb[i] {
			t.Fatalf("coefficient %d mismatch after round trip: %v vs %v", i, ca[i], cb[i])
		}
	}
}

func TestDeserializeRejectsMalformedInput(t *testing.T) {
	if _, err := Deserialize[uint32, field.Field32]([]byte{1, 2, 3}); err != ErrSerializationFormat {
		t.Fatalf("got %v, want ErrSerializationFormat for a too-short header", err)
	}

	a := mustNew32(t, 4)
	insertAll(a, []uint32{1, 2})
	data := Serialize[uint32, field.Field32](a)

	truncated := data[:len(data)-1]
	if _, err := Deserialize[uint32, field.Field32](truncated); err != ErrSerializationFormat {
		t.Fatalf("got %v, want ErrSerializationFormat for truncated payload", err)
	}
}

func TestTrailingZerosEqualSlack(t *testing.T) {
	const threshold = 8
	aAcc := mustNew32(t, threshold)
	insertAll(aAcc, []uint32{11, 22, 33})
	bAcc := mustNew32(t, threshold)

	diff, err := Sub[uint32, field.Field32](aAcc, bAcc)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}

	coeffs := diff.ToPolynomialCoefficients()
	tz := countTrailingZeros[uint32, field.Field32](coeffs)
	if want := threshold - 3; tz != want {
		t.Fatalf("trailing zeros = %d, want %d", tz, want)
	}
}

func TestSubAssignIsAdditive(t *testing.T) {
	// Property 10 from spec.md §8: a.SubAssign(b); a.SubAssign(c) equals
	// a.SubAssign(b (+) c), componentwise field addition of power sums.
	const threshold = 6

	a1 := mustNew32(t, threshold)
	insertAll(a1, []uint32{100, 200, 300, 400})
	a2 := a1.Clone()

	b := mustNew32(t, threshold)
	insertAll(b, []uint32{100, 200})
	c := mustNew32(t, threshold)
	insertAll(c, []uint32{300})

	if err := a1.SubAssign(b); err != nil {
		t.Fatalf("SubAssign(b): %v", err)
	}
	if err := a1.SubAssign(c); err != nil {
		t.Fatalf("SubAssign(c): %v", err)
	}

	bc := b.Clone()
	insertAll(bc, []uint32{300})
	if err := a2.SubAssign(bc); err != nil {
		t.Fatalf("SubAssign(b+c): %v", err)
	}

	c1 := a1.ToPolynomialCoefficients()
	c2 := a2.ToPolynomialCoefficients()
	for i := range c1 {
		if c1[i] != c2[i] {
			t.Fatalf("coefficient %d differs: %v vs %v", i, c1[i], c2[i])
		}
	}
}

func TestSubAssignThresholdMismatch(t *testing.T) {
	a := mustNew32(t, 4)
	b := mustNew32(t, 5)
	if err := a.SubAssign(b); err != ErrThresholdMismatch {
		t.Fatalf("got %v, want ErrThresholdMismatch", err)
	}
	if _, err := Sub[uint32, field.Field32](a, b); err != ErrThresholdMismatch {
		t.Fatalf("got %v, want ErrThresholdMismatch", err)
	}
}

func TestNewRejectsThresholdBelowOne(t *testing.T) {
	if _, err := New[uint32, field.Field32](0); err == nil {
		t.Fatal("New(0) succeeded, want an error")
	}
}

func TestNewRejectsThresholdAboveMax(t *testing.T) {
	SetMaxThreshold(4)
	defer SetMaxThreshold(0)

	if _, err := New[uint32, field.Field32](5); err != ErrThresholdExceedsMax {
		t.Fatalf("got %v, want ErrThresholdExceedsMax", err)
	}
	if _, err := New[uint32, field.Field32](4); err != nil {
		t.Fatalf("New(4) with max=4: %v", err)
	}
}

func TestInsertTabledMatchesDirect(t *testing.T) {
	// Property 9 from spec.md §8: tabled insertion yields identical power
	// sums to direct insertion for every 16-bit input.
	const threshold = 5

	direct, err := New[uint16, field.Field16](threshold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tabled, err := New[uint16, field.Field16](threshold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 200; i++ {
		v := uint16(rng.Intn(1 << 16))
		direct.Insert(v)
		if err := InsertTabled(tabled, v); err != nil {
			t.Fatalf("InsertTabled: %v", err)
		}
	}

	cd := direct.ToPolynomialCoefficients()
	ct := tabled.ToPolynomialCoefficients()
	for i := range cd {
		if cd[i] != ct[i] {
			t.Fatalf("coefficient %d differs between direct and tabled insertion: %v vs %v", i, cd[i], ct[i])
		}
	}
}

func TestEvalTabledMatchesDirect(t *testing.T) {
	const threshold = 6
	a, err := New[uint16, field.Field16](threshold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	insertAllU16 := func(vs []uint16) {
		for _, v := range vs {
			a.Insert(v)
		}
	}
	insertAllU16([]uint16{10, 20, 30})

	coeffs := a.ToPolynomialCoefficients()
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		x := uint16(rng.Intn(1 << 16))
		want := Eval[uint16, field.Field16](coeffs, x)
		got, err := EvalTabled(coeffs, x)
		if err != nil {
			t.Fatalf("EvalTabled: %v", err)
		}
		if got != want {
			t.Fatalf("EvalTabled(%d) = %v, want %v", x, got, want)
		}
	}
}

func TestLastValueUnsetOnFreshAccumulator(t *testing.T) {
	a := mustNew32(t, 4)
	v, ok := a.LastValue()
	if ok {
		t.Fatalf("LastValue() ok = true on a fresh accumulator")
	}
	if v != 0 {
		t.Fatalf("LastValue() = %v on a fresh accumulator, want 0", v)
	}
}

func TestRemoveDoesNotTouchLastValue(t *testing.T) {
	a := mustNew32(t, 4)
	a.Insert(42)
	a.Remove(42)
	v, ok := a.LastValue()
	if !ok || v != 42 {
		t.Fatalf("LastValue() = (%v, %v), want (42, true) after remove", v, ok)
	}
}
