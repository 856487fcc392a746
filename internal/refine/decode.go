package refine

import (
	"github.com/aprilgo/apriltag/internal/decode"
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
)

// perturbations searched per bit, in canonical-space units proportional
// to one payload-cell width.
var bitPerturbations = [3]float64{-1, 0, 1}

// Decode retries decoding when the initial match required bit
// correction: it perturbs the quad's homography by a small jitter at the
// pixel scale and re-decodes, keeping whichever attempt has the lowest
// Hamming distance. Only invoked when the initial result's Hamming > 0.
func Decode(img *imagebuf.Image8, q quad.Quad, fam *family.Family, mid float64, initial decode.Result) decode.Result {
	if initial.Hamming == 0 {
		return initial
	}

	best := initial
	cellFrac := 1.0 / float64(fam.D+2*fam.Border)

	for _, dx := range bitPerturbations {
		for _, dy := range bitPerturbations {
			if dx == 0 && dy == 0 {
				continue
			}
			jittered := jitterHomography(q.H, dx*cellFrac, dy*cellFrac)
			jq := q
			jq.H = jittered
			res, ok := decode.Decode(img, jq, fam, mid)
			if !ok {
				continue
			}
			if res.Hamming < best.Hamming {
				best = res
			}
		}
	}
	return best
}

// jitterHomography composes h with a small canonical-space translation,
// approximating a ±1-pixel perturbation of the sampling grid.
func jitterHomography(h geom.Homography, dx, dy float64) geom.Homography {
	shift := geom.Homography{
		{1, 0, dx},
		{0, 1, dy},
		{0, 0, 1},
	}
	var out geom.Homography
	for r := range 3 {
		for c := range 3 {
			var sum float64
			for k := range 3 {
				sum += h[r][k] * shift[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}
