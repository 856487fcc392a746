package decode

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
)

// renderTag draws fam's code-th codeword onto a fresh image, returning
// the image and the quad whose homography maps the canonical square onto
// the drawn tag's pixel footprint.
func renderTag(fam *family.Family, codeIdx int, size float64) (*imagebuf.Image8, quad.Quad) {
	const margin = 8
	dim := int(size) + 2*margin
	img := imagebuf.NewImage8(dim, dim)
	for y := range dim {
		for x := range dim {
			img.Set(x, y, 255)
		}
	}

	var q quad.Quad
	q.Corners = [4]geom.Point{
		{X: margin, Y: margin},
		{X: margin + size, Y: margin},
		{X: margin + size, Y: margin + size},
		{X: margin, Y: margin + size},
	}
	q.H = geom.FitSquareToQuad(q.Corners)

	d, border := fam.D, fam.Border
	code := fam.Codes[codeIdx]

	// Paint border ring dark.
	denom := float64(d + 2*border)
	for ring := 0; ring < border; ring++ {
		sideSize := d + 2*(ring+1)
		lo := -(d/2 + ring + 1)
		for k := range sideSize {
			for _, pos := range [][2]int{{lo, lo + k}, {lo + sideSize - 1, lo + k}, {lo + k, lo}, {lo + k, lo + sideSize - 1}} {
				cx := (2*float64(pos[0]) + 1) / denom
				cy := (2*float64(pos[1]) + 1) / denom
				paintCell(img, q.H, cx, cy, size, 0)
			}
		}
	}

	// Paint payload bits.
	bitIdx := 0
	n := d * d
	for j := range d {
		for i := range d {
			cx, cy := cellCenter(i, j, d, border)
			bitPos := n - 1 - bitIdx
			bit := (code >> uint(bitPos)) & 1
			var v uint8 = 255
			if bit == 1 {
				v = 0
			}
			paintCell(img, q.H, cx, cy, size, v)
			bitIdx++
		}
	}

	return img, q
}

// paintCell fills a small square of pixels around the canonical point's
// image-space projection with v, approximating a filled grid cell.
func paintCell(img *imagebuf.Image8, h geom.Homography, cx, cy, size float64, v uint8) {
	p := h.Apply(geom.Point{X: cx, Y: cy})
	half := size / 20
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			x, y := int(p.X+dx), int(p.Y+dy)
			if x < 0 || y < 0 || x >= img.Width || y >= img.Height {
				continue
			}
			img.Set(x, y, v)
		}
	}
}

func TestDecode_ExactRenderMatchesPlantedCode(t *testing.T) {
	fam := family.Tag16h5
	img, q := renderTag(fam, 0, 160)

	res, ok := Decode(img, q, fam, 127)
	if !ok {
		t.Fatal("expected successful decode")
	}
	if res.ID != 0 {
		t.Fatalf("ID = %d, want 0", res.ID)
	}
	if res.Hamming != 0 {
		t.Fatalf("Hamming = %d, want 0", res.Hamming)
	}
}

func TestDecode_WrongFamilyRejectsOrMismatches(t *testing.T) {
	fam := family.Tag16h5
	other := family.Tag25h7
	img, q := renderTag(fam, 0, 160)

	if _, ok := Decode(img, q, other, 127); ok {
		// A false accept against an unrelated family's codebook is possible
		// in principle but should not happen with these representative
		// tables; treat it as a test failure worth investigating.
		t.Fatal("unexpected decode success against an unrelated family")
	}
}

func TestRotateCorners_Identity(t *testing.T) {
	c := [4]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	if got := rotateCorners(c, 0); got != c {
		t.Fatalf("rotateCorners(_, 0) = %v, want %v", got, c)
	}
}
