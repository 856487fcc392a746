package geom

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// canonicalCorners mirrors the (-1,-1),(+1,-1),(+1,+1),(-1,+1) CCW order
// FitSquareToQuad expects.
var canonicalCorners = [4]Point{
	{X: -1, Y: -1},
	{X: 1, Y: -1},
	{X: 1, Y: 1},
	{X: -1, Y: 1},
}

// TestFitSquareToQuad_MapsCanonicalCornersExactly verifies the fitted
// homography sends each canonical corner to the matching image-space
// corner it was built from.
func TestFitSquareToQuad_MapsCanonicalCornersExactly(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("H.Apply(canonical corner) == the corner it was fit from", prop.ForAll(
		func(cx, cy, size, rot float64) bool {
			corners := perspectiveQuad(cx, cy, size, rot)
			h := FitSquareToQuad(corners)
			for i, c := range canonicalCorners {
				got := h.Apply(c)
				if Dist(got, corners[i]) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-200, 200), gen.Float64Range(-200, 200),
		gen.Float64Range(10, 300), gen.Float64Range(0, 2*math.Pi),
	))

	properties.TestingRun(t)
}

// TestHomography_InvertIsInverse verifies Invert composed with the
// original homography acts as the identity on canonical corners.
func TestHomography_InvertIsInverse(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("H.Invert().Apply(H.Apply(p)) == p", prop.ForAll(
		func(cx, cy, size, rot float64) bool {
			corners := perspectiveQuad(cx, cy, size, rot)
			h := FitSquareToQuad(corners)
			inv := h.Invert()
			for _, c := range canonicalCorners {
				roundTrip := inv.Apply(h.Apply(c))
				if Dist(roundTrip, c) > 1e-6 {
					return false
				}
			}
			return true
		},
		gen.Float64Range(-200, 200), gen.Float64Range(-200, 200),
		gen.Float64Range(10, 300), gen.Float64Range(0, 2*math.Pi),
	))

	properties.TestingRun(t)
}

// TestFitSquareToQuad_CenterMapsNearQuadCentroid verifies the canonical
// origin maps close to the average of the four fitted corners, as a
// sanity check that the fit isn't wildly skewed for an axis-aligned
// square (where the two should coincide exactly).
func TestFitSquareToQuad_CenterMapsNearQuadCentroid(t *testing.T) {
	corners := [4]Point{
		{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 50}, {X: 10, Y: 50},
	}
	h := FitSquareToQuad(corners)
	center := h.Apply(Point{X: 0, Y: 0})

	var cx, cy float64
	for _, c := range corners {
		cx += c.X
		cy += c.Y
	}
	cx /= 4
	cy /= 4

	if Dist(center, Point{X: cx, Y: cy}) > 1e-6 {
		t.Fatalf("center mapped to %v, want %v", center, Point{X: cx, Y: cy})
	}
}

// perspectiveQuad builds a CCW quad by rotating and scaling the
// canonical square about an arbitrary center, giving FitSquareToQuad a
// perspective-free but arbitrarily placed/rotated/scaled target.
func perspectiveQuad(cx, cy, size, rot float64) [4]Point {
	var out [4]Point
	sinr, cosr := math.Sincos(rot)
	for i, c := range canonicalCorners {
		x := c.X * size / 2
		y := c.Y * size / 2
		out[i] = Point{
			X: cx + x*cosr - y*sinr,
			Y: cy + x*sinr + y*cosr,
		}
	}
	return out
}
