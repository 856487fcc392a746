package family

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestFamily_MinimumDistanceInvariant verifies every registered family's
// codeword table satisfies its own minimum pairwise Hamming distance.
func TestFamily_MinimumDistanceInvariant(t *testing.T) {
	for _, name := range Names() {
		f, err := Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		minDist := 2*f.H + 1
		for i := range f.Codes {
			for j := i + 1; j < len(f.Codes); j++ {
				d := HammingDistance(f.Codes[i], f.Codes[j])
				if d < minDist {
					t.Errorf("%s: codes %d and %d are %d apart, want >= %d", name, i, j, d, minDist)
				}
			}
		}
	}
}

// TestRotateCode_IsInvolutionOfOrderFour verifies rotating any bit
// pattern four times returns it unchanged, for every grid size in use.
func TestRotateCode_IsInvolutionOfOrderFour(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("four rotations return the original code", prop.ForAll(
		func(d int, seed uint64) bool {
			mask := uint64(1)<<uint(d*d) - 1
			code := seed & mask
			r := code
			for range 4 {
				r = RotateCode(r, d)
			}
			return r == code
		},
		gen.IntRange(1, 8),
		gen.UInt64Range(0, ^uint64(0)),
	))

	properties.TestingRun(t)
}

// TestRotateCode_PreservesBitCount verifies rotation is a bijection on
// bit positions: it never changes how many bits are set.
func TestRotateCode_PreservesBitCount(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rotation preserves popcount", prop.ForAll(
		func(d int, seed uint64) bool {
			mask := uint64(1)<<uint(d*d) - 1
			code := seed & mask
			rotated := RotateCode(code, d)
			return HammingDistance(rotated, 0) == HammingDistance(code, 0)
		},
		gen.IntRange(1, 8),
		gen.UInt64Range(0, ^uint64(0)),
	))

	properties.TestingRun(t)
}
