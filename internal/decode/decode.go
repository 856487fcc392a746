// Package decode samples a candidate quad's interior bit grid through its
// homography, matches the sampled codeword against a tag family's
// codebook, and scores the match with a soft-decision margin.
package decode

import (
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
)

// MinBorderMatchFrac is the minimum fraction of sampled border bits that
// must agree with the expected (all-dark) polarity for a quad to be
// considered for decoding.
const MinBorderMatchFrac = 0.75

// Result is the outcome of decoding one quad against one family.
type Result struct {
	Family         *family.Family
	ID             int // index into Family.Codes
	Hamming        int
	Goodness       float64
	DecisionMargin float64
	Rotation       int // winning rotation, 0-3, number of 90-degree CW turns
	Corners        [4]geom.Point // reordered so Corners[0] is canonical top-left
	H              geom.Homography
}

// cellCenter returns the canonical-space coordinates of payload cell
// (i,j) for a family with grid size d and border width border, per the
// detector's bit-sampling layout.
func cellCenter(i, j, d, border int) (float64, float64) {
	denom := float64(d + 2*border)
	x := (2*float64(i) - float64(d) + 1) / denom
	y := (2*float64(j) - float64(d) + 1) / denom
	return x, y
}

// sampleBit projects canonical point (cx,cy) through h into image space,
// bilinearly samples img, and classifies against the local threshold mid
// (the average of the tile's dark/light extremes, or a caller-supplied
// global midpoint).
func sampleBit(img *imagebuf.Image8, h geom.Homography, cx, cy, mid float64) (value bool, intensity float64) {
	p := h.Apply(geom.Point{X: cx, Y: cy})
	v := img.BilinearSample(p.X, p.Y)
	return v > mid, v
}

// Decode samples q's payload and border bits, matches the payload
// against fam's codebook across all 4 rotations, and returns the best
// match. ok is false if the border polarity check fails or no codeword
// is within the family's Hamming radius.
func Decode(img *imagebuf.Image8, q quad.Quad, fam *family.Family, mid float64) (Result, bool) {
	d, border := fam.D, fam.Border

	borderMatches, borderTotal := sampleBorder(img, q.H, d, border, mid)
	if borderTotal == 0 || float64(borderMatches)/float64(borderTotal) < MinBorderMatchFrac {
		return Result{}, false
	}

	code, intensities := sampleGrid(img, q.H, d, border, mid)

	idx, rot, hamming, ok := fam.BestMatch(code)
	if !ok {
		return Result{}, false
	}

	margin := decisionMargin(fam, code, intensities, mid)
	goodness := 1.0 - float64(hamming)/float64(fam.Bits())

	corners := rotateCorners(q.Corners, rot)

	return Result{
		Family:         fam,
		ID:             idx,
		Hamming:        hamming,
		Goodness:       goodness,
		DecisionMargin: margin,
		Rotation:       rot,
		Corners:        corners,
		H:              q.H,
	}, true
}

// sampleGrid samples the d*d payload grid and packs it MSB-first into a
// codeword, row-major as family.RotateCode expects.
func sampleGrid(img *imagebuf.Image8, h geom.Homography, d, border int, mid float64) (code uint64, intensities []float64) {
	intensities = make([]float64, 0, d*d)
	for j := range d {
		for i := range d {
			cx, cy := cellCenter(i, j, d, border)
			bit, v := sampleBit(img, h, cx, cy, mid)
			code <<= 1
			if bit {
				code |= 1
			}
			intensities = append(intensities, v)
		}
	}
	return code, intensities
}

// sampleBorder samples the border ring (d*d border cells, conceptually
// surrounding the payload) and counts how many match the expected dark
// polarity.
func sampleBorder(img *imagebuf.Image8, h geom.Homography, d, border int, mid float64) (matches, total int) {
	denom := float64(d + 2*border)
	for ring := 0; ring < border; ring++ {
		size := d + 2*(ring+1)
		lo := -(d/2 + ring + 1)
		for k := range size {
			for _, pos := range [][2]int{{lo, lo + k}, {lo + size - 1, lo + k}, {lo + k, lo}, {lo + k, lo + size - 1}} {
				cx := (2*float64(pos[0]) + 1) / denom
				cy := (2*float64(pos[1]) + 1) / denom
				bit, _ := sampleBit(img, h, cx, cy, mid)
				total++
				if !bit { // expected polarity is dark (bit == false)
					matches++
				}
			}
		}
	}
	return matches, total
}

// decisionMargin scores the best matching codeword against the best
// non-matching codeword using a soft-decision metric: each sampled bit
// contributes |intensity - mid|, signed by agreement with the candidate
// codeword's expected bit.
func decisionMargin(fam *family.Family, code uint64, intensities []float64, mid float64) float64 {
	score := func(candidate uint64) float64 {
		var s float64
		n := len(intensities)
		for k, v := range intensities {
			bitPos := n - 1 - k
			expect := (candidate >> uint(bitPos)) & 1
			diff := v - mid
			if expect == 1 {
				s += diff
			} else {
				s -= diff
			}
		}
		return s
	}

	bestMatch := -1.0
	bestNonMatch := -1.0
	haveMatch := false
	haveNonMatch := false

	rotated := code
	for range 4 {
		for _, c := range fam.Codes {
			s := score(c)
			if family.HammingDistance(rotated, c) <= fam.H {
				if !haveMatch || s > bestMatch {
					bestMatch = s
					haveMatch = true
				}
			} else {
				if !haveNonMatch || s > bestNonMatch {
					bestNonMatch = s
					haveNonMatch = true
				}
			}
		}
		rotated = family.RotateCode(rotated, fam.D)
	}

	if !haveMatch || !haveNonMatch {
		return 0
	}
	return bestNonMatch - bestMatch
}

// rotateCorners cyclically shifts the quad's corner order so that
// corner[0] becomes the canonical top-left after accounting for the
// winning decode rotation.
func rotateCorners(corners [4]geom.Point, rot int) [4]geom.Point {
	var out [4]geom.Point
	for i := range 4 {
		out[i] = corners[(i+rot)%4]
	}
	return out
}
