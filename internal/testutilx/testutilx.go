// Package testutilx renders synthetic tag images for end-to-end pipeline
// tests. It mirrors the bit-sampling geometry in internal/decode (same
// cellCenter/border-ring layout) so a rendered tag is read back exactly
// as the decoder expects, without requiring a real printed-tag corpus.
package testutilx

import (
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
)

const (
	light uint8 = 255
	dark  uint8 = 0
)

// NewBlankImage allocates a canvas filled with fill.
func NewBlankImage(w, h int, fill uint8) *imagebuf.Image8 {
	img := imagebuf.NewImage8(w, h)
	for i := range img.Pix {
		img.Pix[i] = fill
	}
	return img
}

// bitAt returns the payload bit for grid cell (i,j), matching the packing
// order in decode.sampleGrid: outer loop over j, inner over i, MSB first.
func bitAt(fam *family.Family, codeIndex, i, j int) bool {
	code := fam.Codes[codeIndex]
	d := fam.D
	order := j*d + i
	shift := uint(d*d - 1 - order)
	return (code>>shift)&1 == 1
}

// cellIndex maps a canonical coordinate in [-1,1] to its bit-cell index
// in [0,denom), clamping out-of-range values to the nearest edge cell.
func cellIndex(c float64, denom int) int {
	idx := int((c + 1) * float64(denom) / 2)
	if idx < 0 {
		idx = 0
	}
	if idx >= denom {
		idx = denom - 1
	}
	return idx
}

// cellColor returns the pixel value for bit-cell (cellX,cellY) of fam's
// codeIndex-th codeword: dark border ring, bit-dependent payload.
func cellColor(fam *family.Family, codeIndex, cellX, cellY int) uint8 {
	border := fam.Border
	if cellX < border || cellX >= border+fam.D || cellY < border || cellY >= border+fam.D {
		return dark
	}
	if bitAt(fam, codeIndex, cellX-border, cellY-border) {
		return light
	}
	return dark
}

// RenderCenteredTag draws fam's codeIndex-th codeword axis-aligned and
// centered in a canvasSize x canvasSize white canvas, each bit-cell
// cellPixels wide. It returns the canvas and the tag's four pixel-space
// corners (top-left, top-right, bottom-right, bottom-left).
func RenderCenteredTag(fam *family.Family, codeIndex, canvasSize, cellPixels int) (*imagebuf.Image8, [4]geom.Point) {
	denom := fam.D + 2*fam.Border
	tagSide := denom * cellPixels
	origin := (canvasSize - tagSide) / 2

	img := NewBlankImage(canvasSize, canvasSize, light)
	for y := range tagSide {
		cellY := y / cellPixels
		for x := range tagSide {
			cellX := x / cellPixels
			img.Set(origin+x, origin+y, cellColor(fam, codeIndex, cellX, cellY))
		}
	}

	corners := [4]geom.Point{
		{X: float64(origin), Y: float64(origin)},
		{X: float64(origin + tagSide), Y: float64(origin)},
		{X: float64(origin + tagSide), Y: float64(origin + tagSide)},
		{X: float64(origin), Y: float64(origin + tagSide)},
	}
	return img, corners
}

// PasteTagPerspective draws fam's codeIndex-th codeword into an existing
// canvas, projected through the homography mapping the canonical
// [-1,1]^2 square to corners (CCW, same order FitSquareToQuad expects).
// Pixels outside the tag's footprint are left untouched, so multiple
// tags or a textured background can share one canvas.
func PasteTagPerspective(canvas *imagebuf.Image8, fam *family.Family, codeIndex int, corners [4]geom.Point) {
	h := geom.FitSquareToQuad(corners).Invert()
	denom := fam.D + 2*fam.Border

	minX, minY, maxX, maxY := geom.BoundingBox(corners[:])
	x0, y0 := max(0, int(minX)-1), max(0, int(minY)-1)
	x1, y1 := min(canvas.Width-1, int(maxX)+1), min(canvas.Height-1, int(maxY)+1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			c := h.Apply(geom.Point{X: float64(x), Y: float64(y)})
			if c.X < -1 || c.X > 1 || c.Y < -1 || c.Y > 1 {
				continue
			}
			cellX := cellIndex(c.X, denom)
			cellY := cellIndex(c.Y, denom)
			canvas.Set(x, y, cellColor(fam, codeIndex, cellX, cellY))
		}
	}
}

// RotateImage90CW returns a new image rotated 90 degrees clockwise.
func RotateImage90CW(img *imagebuf.Image8) *imagebuf.Image8 {
	out := imagebuf.NewImage8(img.Height, img.Width)
	for ny := range out.Height {
		for nx := range out.Width {
			out.Set(nx, ny, img.At(ny, img.Height-1-nx))
		}
	}
	return out
}

// AddGaussianNoise adds zero-mean Gaussian noise with the given sigma to
// every pixel, clamping to [0,255]. rng supplies the noise samples so
// callers get reproducible images across runs.
func AddGaussianNoise(img *imagebuf.Image8, sigma float64, next func() float64) {
	for i, v := range img.Pix {
		n := float64(v) + sigma*next()
		switch {
		case n < 0:
			n = 0
		case n > 255:
			n = 255
		}
		img.Pix[i] = uint8(n)
	}
}
