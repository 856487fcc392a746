// Package quad assembles candidate quadrilaterals from fitted line
// segments (or, via the contour package, from traced boundaries),
// enforces orientation and plausibility filters, and fits the
// homography mapping the canonical tag square into image space.
package quad

import "github.com/aprilgo/apriltag/internal/geom"

// Quad is a candidate tag boundary: four corners in CCW order plus the
// homography mapping the canonical unit square [-1,+1]^2 onto them.
type Quad struct {
	Corners        [4]geom.Point
	H              geom.Homography
	ReversedBorder bool
}

// Center returns the quad's corner centroid.
func (q *Quad) Center() geom.Point {
	var c geom.Point
	for _, p := range q.Corners {
		c = c.Add(p)
	}
	return c.Scale(0.25)
}

// Perimeter returns the sum of the quad's four edge lengths.
func (q *Quad) Perimeter() float64 {
	var p float64
	for i := range 4 {
		p += geom.Dist(q.Corners[i], q.Corners[(i+1)%4])
	}
	return p
}

// Area returns the signed area of the quad's corners (positive for CCW).
func (q *Quad) Area() float64 {
	return geom.SignedArea(q.Corners[:])
}

// Config holds the geometric acceptance thresholds applied during quad
// assembly.
type Config struct {
	EpsilonJoin    float64 // max gap between a segment's end and the next's start
	MinTurnDeg     float64 // minimum CCW turn angle between joined segments
	MaxTurnDeg     float64 // maximum CCW turn angle between joined segments
	MinArea        float64
	MinPerimeter   float64
	MaxPerimeter   float64
	MaxAspect      float64 // longest edge / shortest edge
	DedupEpsilon   float64 // corner-set dedup distance
}

// DefaultConfig returns the detector's default quad-assembly thresholds.
func DefaultConfig() Config {
	return Config{
		EpsilonJoin:  3.0,
		MinTurnDeg:   45,
		MaxTurnDeg:   135,
		MinArea:      24 * 24 / 2,
		MinPerimeter: 4 * 8,
		MaxPerimeter: 1e7,
		MaxAspect:    10,
		DedupEpsilon: 1.0,
	}
}
