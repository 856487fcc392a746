package detector

import (
	"math/rand"
	"testing"

	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/testutilx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, d.AddFamily(family.Tag36h11))
	t.Cleanup(func() { d.Close() })
	return d
}

// TestDetect_CenteredTag covers a single centered tag36h11 code with no
// noise: exactly one detection, id 0, exact decode, comfortable margin.
func TestDetect_CenteredTag(t *testing.T) {
	d := newTestDetector(t)

	img, _ := testutilx.RenderCenteredTag(family.Tag36h11, 0, 512, 8)
	t.Cleanup(img.Release)

	dets, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	got := dets[0]
	assert.Equal(t, "tag36h11", got.Family)
	assert.Equal(t, 0, got.ID)
	assert.Equal(t, 0, got.Hamming)
	assert.Greater(t, got.DecisionMargin, 50.0)
}

// TestDetect_DecoyQuadProducesNoDetections covers a quadrilateral-shaped
// dark frame whose interior is not a valid codeword for any registered
// family: it may form a candidate quad, but decoding must reject it.
func TestDetect_DecoyQuadProducesNoDetections(t *testing.T) {
	d := newTestDetector(t)

	img := testutilx.NewBlankImage(256, 256, 255)
	t.Cleanup(img.Release)
	// A dark square frame with a uniformly light interior: plausible as a
	// quad candidate, but its interior carries none of tag36h11's
	// codewords (an all-light payload has no registered match).
	const (
		outer = 60
		inner = 120
	)
	for y := outer; y < outer+inner; y++ {
		for x := outer; x < outer+inner; x++ {
			onBorder := x < outer+16 || x >= outer+inner-16 || y < outer+16 || y >= outer+inner-16
			if onBorder {
				img.Set(x, y, 0)
			}
		}
	}

	dets, err := d.Detect(img)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

// TestDetect_RotatedTagTracksCorner covers a tag rotated 90 degrees
// clockwise from the centered layout: the tag must still decode to the
// same id, with its first corner landing in the upper-right quadrant.
func TestDetect_RotatedTagTracksCorner(t *testing.T) {
	d := newTestDetector(t)

	base, _ := testutilx.RenderCenteredTag(family.Tag36h11, 0, 512, 8)
	t.Cleanup(base.Release)
	rotated := testutilx.RotateImage90CW(base)
	t.Cleanup(rotated.Release)

	dets, err := d.Detect(rotated)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	got := dets[0]
	assert.Equal(t, 0, got.ID)

	mid := float64(rotated.Width) / 2
	p0 := got.Corners[0]
	assert.Greater(t, p0.X, mid, "expected corner[0] in the right half after a 90deg CW rotation")
	assert.Less(t, p0.Y, mid, "expected corner[0] in the upper half after a 90deg CW rotation")
}

// TestDetect_CenteredTagWithGaussianNoise covers a centered tag36h11
// code corrupted by additive Gaussian noise (sigma=10 on the 0-255
// scale): the detection must survive, decoding exactly (hamming 0),
// though its decision margin will be lower than the noiseless case.
func TestDetect_CenteredTagWithGaussianNoise(t *testing.T) {
	d := newTestDetector(t)

	img, _ := testutilx.RenderCenteredTag(family.Tag36h11, 0, 512, 8)
	t.Cleanup(img.Release)

	rng := rand.New(rand.NewSource(1))
	testutilx.AddGaussianNoise(img, 10, rng.NormFloat64)

	dets, err := d.Detect(img)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	got := dets[0]
	assert.Equal(t, 0, got.ID)
	assert.Equal(t, 0, got.Hamming)
}

// TestDetect_PerspectiveWarpedTagLocalisesCorners covers a tag warped
// by an off-axis homography approximating a 30 degree perspective tilt:
// the detector must still decode the tag's id and localise its corners
// within 1 pixel of the ground-truth corners PasteTagPerspective was
// given (matched nearest-neighbour, since perspective warp can rotate
// which stored corner lands at array index 0).
func TestDetect_PerspectiveWarpedTagLocalisesCorners(t *testing.T) {
	d := newTestDetector(t)

	canvas := testutilx.NewBlankImage(512, 512, 255)
	t.Cleanup(canvas.Release)

	// A 30-degree-tilt-shaped quadrilateral: the near edge (bottom) is
	// foreshortened relative to the far edge (top), as a surface rotated
	// back from the viewer by about 30 degrees would project.
	groundTruth := [4]geom.Point{
		{X: 140, Y: 120},
		{X: 372, Y: 120},
		{X: 340, Y: 360},
		{X: 172, Y: 360},
	}
	testutilx.PasteTagPerspective(canvas, family.Tag36h11, 7, groundTruth)

	dets, err := d.Detect(canvas)
	require.NoError(t, err)
	require.Len(t, dets, 1)

	got := dets[0]
	assert.Equal(t, 7, got.ID)

	for _, p := range got.Corners {
		best := -1.0
		for _, gt := range groundTruth {
			if d := geom.Dist(p, gt); best < 0 || d < best {
				best = d
			}
		}
		assert.LessOrEqual(t, best, 1.0, "corner %v should localise within 1px of a ground-truth corner", p)
	}
}

// TestDetect_TwoOverlappingTagsAtDifferentScales covers two distinct tag
// ids pasted onto one canvas with overlapping bounding boxes and a 20%
// scale difference: both must be detected, and deduplication (which
// only merges near-identical corner sets) must not collapse them into
// one. The larger tag is rendered as a 45-degree diamond so its
// bounding box overlaps the smaller tag's corner while the inked
// regions themselves stay well apart.
func TestDetect_TwoOverlappingTagsAtDifferentScales(t *testing.T) {
	d := newTestDetector(t)

	canvas := testutilx.NewBlankImage(640, 640, 255)
	t.Cleanup(canvas.Release)

	small := [4]geom.Point{
		{X: 80, Y: 80}, {X: 280, Y: 80}, {X: 280, Y: 280}, {X: 80, Y: 280},
	}
	// A diamond enclosing a 240-unit square (20% larger than small's 200),
	// centered so its bounding box overlaps small's by about 10 pixels at
	// one corner, without either tag's actual border/payload ink touching.
	const (
		cx, cy = 440.0, 440.0
		r      = 240.0 * 0.70710678 // half-diagonal of a 240-side square
	)
	large := [4]geom.Point{
		{X: cx, Y: cy - r},
		{X: cx + r, Y: cy},
		{X: cx, Y: cy + r},
		{X: cx - r, Y: cy},
	}

	testutilx.PasteTagPerspective(canvas, family.Tag36h11, 3, small)
	testutilx.PasteTagPerspective(canvas, family.Tag36h11, 15, large)

	dets, err := d.Detect(canvas)
	require.NoError(t, err)
	require.Len(t, dets, 2)

	ids := map[int]bool{dets[0].ID: true, dets[1].ID: true}
	assert.True(t, ids[3], "expected id 3 among the detections")
	assert.True(t, ids[15], "expected id 15 among the detections")
}
