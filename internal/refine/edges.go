// Package refine implements the detector's optional post-decode
// refinement passes: sub-pixel edge re-fitting, bit-perturbation decode
// retry, and reprojection-driven pose polishing.
package refine

import (
	"math"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
)

// edgeSamplePoints is the number of points sampled along each edge's
// normal while searching for the sub-pixel gradient zero-crossing.
const edgeSamplePoints = 10

// Edges re-fits each of q's 4 edges by sampling the image gradient along
// the normal at edgeSamplePoints locations and relocating the edge to
// the sub-pixel zero-crossing of the normal derivative, then
// re-intersects adjacent edges for refined corners and refits the
// homography.
func Edges(img *imagebuf.Image8, q quad.Quad) quad.Quad {
	type line struct{ a, b geom.Point }
	lines := make([]line, 4)
	for i := range 4 {
		a, b := q.Corners[i], q.Corners[(i+1)%4]
		lines[i] = line{a: refitEdge(img, a, b), b: refitEdge(img, b, a)}
	}

	var out quad.Quad
	for i := range 4 {
		prev := lines[(i+3)%4]
		cur := lines[i]
		p, ok := intersect(prev.a, prev.b, cur.a, cur.b)
		if !ok {
			return q
		}
		out.Corners[i] = p
	}
	out.H = geom.FitSquareToQuad(out.Corners)
	return out
}

// refitEdge nudges endpoint p perpendicular to the line p->other by
// searching for the image-gradient zero-crossing along that normal, at
// edgeSamplePoints locations spanning a few pixels either side of p.
func refitEdge(img *imagebuf.Image8, p, other geom.Point) geom.Point {
	dx, dy := other.X-p.X, other.Y-p.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return p
	}
	nx, ny := -dy/length, dx/length

	const span = 3.0
	best := 0.0
	bestDeriv := -1.0
	for k := 0; k < edgeSamplePoints; k++ {
		t := -span + 2*span*float64(k)/float64(edgeSamplePoints-1)
		v0 := img.BilinearSample(p.X+nx*(t-0.5), p.Y+ny*(t-0.5))
		v1 := img.BilinearSample(p.X+nx*(t+0.5), p.Y+ny*(t+0.5))
		deriv := math.Abs(v1 - v0)
		if deriv > bestDeriv {
			bestDeriv = deriv
			best = t
		}
	}
	return geom.Point{X: p.X + nx*best, Y: p.Y + ny*best}
}

func intersect(a, b, c, d geom.Point) (geom.Point, bool) {
	x1, y1, x2, y2 := a.X, a.Y, b.X, b.Y
	x3, y3, x4, y4 := c.X, c.Y, d.X, d.Y
	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-9 {
		return geom.Point{}, false
	}
	px := ((x1*y2-y1*x2)*(x3-x4) - (x1-x2)*(x3*y4-y3*x4)) / denom
	py := ((x1*y2-y1*x2)*(y3-y4) - (y1-y2)*(x3*y4-y3*x4)) / denom
	return geom.Point{X: px, Y: py}, true
}
