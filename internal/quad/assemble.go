package quad

import (
	"math"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/segment"
)

// AssembleQuads builds a directed continuation graph over segs (A -> B
// when B's start lies within EpsilonJoin of A's end and the turn from A
// to B is a CCW turn within [MinTurnDeg, MaxTurnDeg]), searches every
// segment for bounded-depth 4-cycles, and returns the accepted, deduped
// candidate quads with corners refined by analytic line intersection.
func AssembleQuads(segs []segment.Segment, cfg Config) []Quad {
	adj := buildGraph(segs, cfg)

	var candidates []Quad
	for start := range segs {
		cycles := findFourCycles(segs, adj, start)
		for _, cyc := range cycles {
			q, ok := quadFromCycle(segs, cyc)
			if !ok {
				continue
			}
			if q.Area() < 0 {
				q.Corners[1], q.Corners[3] = q.Corners[3], q.Corners[1]
			}
			if !passesFilters(q, cfg) {
				continue
			}
			q.H = geom.FitSquareToQuad(q.Corners)
			candidates = append(candidates, q)
		}
	}
	return dedupQuads(candidates, cfg.DedupEpsilon)
}

// buildGraph returns, for each segment index, the indices of segments it
// may continue into.
func buildGraph(segs []segment.Segment, cfg Config) [][]int {
	adj := make([][]int, len(segs))
	for i := range segs {
		end := segs[i].End()
		for j := range segs {
			if i == j {
				continue
			}
			start := segs[j].Start()
			if geom.Dist(end, start) > cfg.EpsilonJoin {
				continue
			}
			turn := turnAngleDeg(segs[i], segs[j])
			if turn < cfg.MinTurnDeg || turn > cfg.MaxTurnDeg {
				continue
			}
			adj[i] = append(adj[i], j)
		}
	}
	return adj
}

// turnAngleDeg returns the CCW turn angle in degrees from segment a's
// direction to segment b's direction, in [0, 360).
func turnAngleDeg(a, b segment.Segment) float64 {
	da := math.Atan2(a.Y1-a.Y0, a.X1-a.X0)
	db := math.Atan2(b.Y1-b.Y0, b.X1-b.X0)
	d := (db - da) * 180 / math.Pi
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	return d
}

// findFourCycles performs a bounded depth-first search from start,
// returning every sequence of exactly 4 segment indices that returns to
// start.
func findFourCycles(segs []segment.Segment, adj [][]int, start int) [][4]int {
	var out [][4]int
	var path [3]int
	var dfs func(depth, cur int)
	dfs = func(depth, cur int) {
		if depth == 3 {
			for _, next := range adj[cur] {
				if next == start {
					out = append(out, [4]int{start, path[0], path[1], path[2]})
				}
			}
			return
		}
		for _, next := range adj[cur] {
			if next == start {
				continue
			}
			path[depth] = next
			dfs(depth+1, next)
		}
	}
	dfs(0, start)
	return out
}

// quadFromCycle builds a Quad from 4 oriented segments by intersecting
// consecutive segment lines analytically for sub-pixel corners.
func quadFromCycle(segs []segment.Segment, cyc [4]int) (Quad, bool) {
	var q Quad
	for i := range 4 {
		a := segs[cyc[i]]
		b := segs[cyc[(i+1)%4]]
		p, ok := intersectLines(a, b)
		if !ok {
			return Quad{}, false
		}
		q.Corners[(i+1)%4] = p
	}
	return q, true
}

// intersectLines computes the intersection of the infinite lines
// carrying segments a and b.
func intersectLines(a, b segment.Segment) (geom.Point, bool) {
	x1, y1, x2, y2 := a.X0, a.Y0, a.X1, a.Y1
	x3, y3, x4, y4 := b.X0, b.Y0, b.X1, b.Y1

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-9 {
		return geom.Point{}, false
	}
	px := ((x1*y2-y1*x2)*(x3-x4) - (x1-x2)*(x3*y4-y3*x4)) / denom
	py := ((x1*y2-y1*x2)*(y3-y4) - (y1-y2)*(x3*y4-y3*x4)) / denom
	return geom.Point{X: px, Y: py}, true
}

func passesFilters(q Quad, cfg Config) bool {
	if isCollinear(q.Corners[:]) {
		return false
	}
	if q.Area() < cfg.MinArea {
		return false
	}
	perim := q.Perimeter()
	if perim < cfg.MinPerimeter || perim > cfg.MaxPerimeter {
		return false
	}
	if !isConvex(q.Corners[:]) {
		return false
	}
	if aspectRatio(q.Corners[:]) > cfg.MaxAspect {
		return false
	}
	return true
}

func isCollinear(pts []geom.Point) bool {
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		c := pts[(i+2)%len(pts)]
		if math.Abs(geom.Cross(a, b, c)) > 1e-6 {
			return false
		}
	}
	return true
}

func isConvex(pts []geom.Point) bool {
	n := len(pts)
	sign := 0.0
	for i := range n {
		a := pts[i]
		b := pts[(i+1)%n]
		c := pts[(i+2)%n]
		cr := geom.Cross(a, b, c)
		if cr == 0 {
			continue
		}
		if sign == 0 {
			sign = cr
		} else if (cr > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func aspectRatio(pts []geom.Point) float64 {
	minLen, maxLen := math.Inf(1), 0.0
	for i := range pts {
		l := geom.Dist(pts[i], pts[(i+1)%len(pts)])
		if l < minLen {
			minLen = l
		}
		if l > maxLen {
			maxLen = l
		}
	}
	if minLen <= 0 {
		return math.Inf(1)
	}
	return maxLen / minLen
}

// dedupQuads removes quads whose corner sets are within epsilon of an
// already-kept quad's corners.
func dedupQuads(quads []Quad, epsilon float64) []Quad {
	var kept []Quad
	for _, q := range quads {
		dup := false
		for _, k := range kept {
			if cornersClose(q, k, epsilon) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, q)
		}
	}
	return kept
}

func cornersClose(a, b Quad, epsilon float64) bool {
	for i := range 4 {
		if geom.Dist(a.Corners[i], b.Corners[i]) > epsilon {
			return false
		}
	}
	return true
}
