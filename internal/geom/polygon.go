package geom

import "math"

// SimplifyPolygon reduces the number of points in a polygon using the
// Douglas-Peucker algorithm with the given tolerance epsilon. Endpoints
// of the input sequence are always kept.
func SimplifyPolygon(pts []Point, epsilon float64) []Point {
	if len(pts) <= 3 || epsilon <= 0 {
		return append([]Point(nil), pts...)
	}
	open := append([]Point(nil), pts...)
	keep := make([]bool, len(open))
	dpSimplify(open, 0, len(open)-1, epsilon, keep)
	keep[0] = true
	keep[len(open)-1] = true
	out := make([]Point, 0, len(open))
	for i, k := range keep {
		if k {
			out = append(out, open[i])
		}
	}
	return out
}

func dpSimplify(pts []Point, start, end int, eps float64, keep []bool) {
	if end <= start+1 {
		return
	}
	maxDist := -1.0
	index := -1
	a := pts[start]
	b := pts[end]
	for i := start + 1; i < end; i++ {
		d := perpendicularDistance(pts[i], a, b)
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > eps {
		dpSimplify(pts, start, index, eps, keep)
		keep[index] = true
		dpSimplify(pts, index, end, eps, keep)
	}
}

func perpendicularDistance(p, a, b Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return Dist(p, a)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}

// ReduceToNCorners iteratively reduces a closed polygon to exactly n
// corners using the farthest-point insertion algorithm described for the
// contour quad extractor: start from the two points farthest apart, then
// repeatedly insert the boundary point with the largest perpendicular
// residual against the current polyline until n corners remain.
//
// Returns nil if pts has fewer than n points.
func ReduceToNCorners(pts []Point, n int) []Point {
	if len(pts) < n {
		return nil
	}
	if len(pts) == n {
		return append([]Point(nil), pts...)
	}

	i0, i1 := farthestPair(pts)
	order := []int{i0, i1}

	for len(order) < n {
		bestIdx, bestPos, bestDist := -1, -1, -1.0
		for edge := range order {
			a := pts[order[edge]]
			b := pts[order[(edge+1)%len(order)]]
			start, end := order[edge], order[(edge+1)%len(order)]
			for _, k := range boundaryIndicesBetween(len(pts), start, end) {
				d := perpendicularDistance(pts[k], a, b)
				if d > bestDist {
					bestDist = d
					bestIdx = k
					bestPos = edge + 1
				}
			}
		}
		if bestIdx < 0 {
			break
		}
		order = insertAt(order, bestPos, bestIdx)
	}

	out := make([]Point, len(order))
	for i, idx := range order {
		out[i] = pts[idx]
	}
	return out
}

func insertAt(order []int, pos, val int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, val)
	out = append(out, order[pos:]...)
	return out
}

// boundaryIndicesBetween returns the indices strictly between start and end
// when walking forward around a closed ring of size n.
func boundaryIndicesBetween(n, start, end int) []int {
	var out []int
	i := (start + 1) % n
	for i != end {
		out = append(out, i)
		i = (i + 1) % n
	}
	return out
}

func farthestPair(pts []Point) (int, int) {
	bi, bj, best := 0, 1, -1.0
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			d := Dist(pts[i], pts[j])
			if d > best {
				best = d
				bi, bj = i, j
			}
		}
	}
	return bi, bj
}

// ConvexHull computes the convex hull of a set of points using the
// monotone-chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	n = len(p)
	if n <= 1 {
		return append([]Point(nil), p...)
	}
	lower := buildLowerHull(p)
	upper := buildUpperHull(p)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func removeDuplicatePoints(p []Point) []Point {
	q := p[:0]
	var last Point
	hasLast := false
	for _, pt := range p {
		if !hasLast || pt.X != last.X || pt.Y != last.Y {
			q = append(q, pt)
			last = pt
			hasLast = true
		}
	}
	return q
}

func buildLowerHull(p []Point) []Point {
	lower := make([]Point, 0, len(p))
	for _, pt := range p {
		for len(lower) >= 2 && Cross(lower[len(lower)-2], lower[len(lower)-1], pt) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, pt)
	}
	return lower
}

func buildUpperHull(p []Point) []Point {
	upper := make([]Point, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		pt := p[i]
		for len(upper) >= 2 && Cross(upper[len(upper)-2], upper[len(upper)-1], pt) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, pt)
	}
	return upper
}

func sortPoints(p []Point) {
	for i := 1; i < len(p); i++ {
		v := p[i]
		j := i - 1
		for j >= 0 && (p[j].X > v.X || (p[j].X == v.X && p[j].Y > v.Y)) {
			p[j+1] = p[j]
			j--
		}
		p[j+1] = v
	}
}
