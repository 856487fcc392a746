package contour

import (
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/mempool"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/aprilgo/apriltag/internal/threshold"
)

// Config controls the contour variant's acceptance thresholds.
type Config struct {
	SimplifyEpsilon   float64 // Douglas-Peucker tolerance before corner reduction
	MaxResidualFrac   float64 // max perpendicular residual as a fraction of quad diameter
	MinComponentPixels int
}

// DefaultConfig returns the detector's default contour-variant thresholds.
func DefaultConfig() Config {
	return Config{SimplifyEpsilon: 2.0, MaxResidualFrac: 0.05, MinComponentPixels: 24}
}

// ExtractQuads labels connected dark regions in th, traces each region's
// boundary, simplifies it, reduces it to exactly 4 corners, and keeps the
// candidates whose maximum perpendicular residual against the simplified
// boundary is small relative to the quad's diameter. Accepted quads have
// their homography already fit.
func ExtractQuads(th *threshold.Result, cfg Config) []quad.Quad {
	labels, comps := labelDarkComponents(th)
	defer mempool.PutInt(labels)

	var quads []quad.Quad
	for i, c := range comps {
		if c.count < cfg.MinComponentPixels {
			continue
		}
		label := i + 1
		boundary := traceMoore(labels, th.Width, th.Height, label, c)
		if len(boundary) < 4 {
			continue
		}
		hull := geom.ConvexHull(boundary)
		if len(hull) < 4 {
			continue
		}
		simplified := geom.SimplifyPolygon(hull, cfg.SimplifyEpsilon)
		corners := geom.ReduceToNCorners(simplified, 4)
		if len(corners) != 4 {
			continue
		}
		if !accept(boundary, corners, cfg.MaxResidualFrac) {
			continue
		}
		var q quad.Quad
		q.Corners = [4]geom.Point{corners[0], corners[1], corners[2], corners[3]}
		if q.Area() < 0 {
			q.Corners[1], q.Corners[3] = q.Corners[3], q.Corners[1]
		}
		q.H = geom.FitSquareToQuad(q.Corners)
		quads = append(quads, q)
	}
	return quads
}

// accept reports whether the traced boundary hugs the reduced 4-corner
// polygon closely enough, relative to the quad's diagonal, to be treated
// as a genuine quadrilateral rather than a rounded or irregular blob.
func accept(boundary, corners []geom.Point, maxFrac float64) bool {
	diameter := 0.0
	for i := range corners {
		for j := i + 1; j < len(corners); j++ {
			if d := geom.Dist(corners[i], corners[j]); d > diameter {
				diameter = d
			}
		}
	}
	if diameter == 0 {
		return false
	}

	maxResidual := 0.0
	n := len(corners)
	for _, p := range boundary {
		best := -1.0
		for i := range n {
			a, b := corners[i], corners[(i+1)%n]
			d := residualToSegment(p, a, b)
			if best < 0 || d < best {
				best = d
			}
		}
		if best > maxResidual {
			maxResidual = best
		}
	}
	return maxResidual/diameter <= maxFrac
}

func residualToSegment(p, a, b geom.Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	lenSq := vx*vx + vy*vy
	if lenSq == 0 {
		return geom.Dist(p, a)
	}
	t := ((p.X-a.X)*vx + (p.Y-a.Y)*vy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := geom.Point{X: a.X + t*vx, Y: a.Y + t*vy}
	return geom.Dist(p, proj)
}
