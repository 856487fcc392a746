// Package family implements the tag family registry: immutable records
// describing a codeword space (grid size, correction radius, border
// width) plus the codeword table itself, matched against during
// decoding.
package family

import "math/bits"

// Family is an immutable tag family definition. Construct one via New or
// a registry lookup; do not mutate Codes after construction (Border is
// the sole post-construction-mutable field, matching upstream's
// runtime-adjustable border width).
type Family struct {
	Name   string
	D      int      // bits per side of the payload grid
	H      int      // correction radius: accept matches with hamming <= H
	Border int      // border width in bit-cells, mutable post-construction
	NCodes int
	Codes  []uint64 // each code packs D*D bits, row-major, MSB first
}

// New constructs a Family, panicking if the codeword table violates the
// family's minimum pairwise Hamming distance invariant (2H+1). Intended
// to be called once at package init from the registry's generated
// tables, not from request-time code.
func New(name string, d, h, border int, codes []uint64) *Family {
	f := &Family{Name: name, D: d, H: h, Border: border, NCodes: len(codes), Codes: append([]uint64(nil), codes...)}
	minDist := 2*h + 1
	for i := range f.Codes {
		for j := i + 1; j < len(f.Codes); j++ {
			if HammingDistance(f.Codes[i], f.Codes[j]) < minDist {
				panic("family: codeword table violates minimum Hamming distance invariant: " + name)
			}
		}
	}
	return f
}

// HammingDistance returns the number of differing bits between two
// codewords.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Bits returns the number of payload bits in the family's grid (D*D).
func (f *Family) Bits() int { return f.D * f.D }

// RotateCode returns the codeword obtained by rotating the D×D bit grid
// 90 degrees clockwise. Calling it 4 times returns the original code.
func RotateCode(code uint64, d int) uint64 {
	var out uint64
	for i := range d {
		for j := range d {
			// source cell (i,j) moves to destination cell (j, d-1-i)
			bit := (code >> uint((d*d-1)-(i*d+j))) & 1
			di, dj := j, d-1-i
			destPos := uint((d*d - 1) - (di*d + dj))
			out |= bit << destPos
		}
	}
	return out
}

// BestMatch searches the family's codeword table across all 4 rotations
// of the sampled code, returning the matched codeword's index, the
// winning rotation (0-3, number of 90-degree clockwise turns), and the
// minimum Hamming distance found. ok is false if no codeword is within
// the family's correction radius.
func (f *Family) BestMatch(sampled uint64) (index, rotation, hamming int, ok bool) {
	best := f.D*f.D + 1
	bestIdx, bestRot := -1, 0
	rotated := sampled
	for rot := range 4 {
		for idx, code := range f.Codes {
			d := HammingDistance(rotated, code)
			if d < best {
				best = d
				bestIdx = idx
				bestRot = rot
			}
		}
		rotated = RotateCode(rotated, f.D)
	}
	if bestIdx < 0 || best > f.H {
		return 0, 0, best, false
	}
	return bestIdx, bestRot, best, true
}
