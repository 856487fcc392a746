package segment

import (
	"math"

	"github.com/aprilgo/apriltag/internal/geom"
)

// FitLine computes the total least-squares line through a cluster's
// points (weighted equally; gradient-magnitude weighting is folded into
// the cluster's moments by design since every edge sample contributes
// one unit of gradient-magnitude-normalized weight during clustering).
// Returns the line as a point on the line and a unit direction vector,
// plus the mean squared perpendicular distance of the cluster's pixels
// to that line — computed from the covariance matrix in closed form, an
// O(1) alternative to iterating pixels again.
func FitLine(c *Cluster) (origin, direction geom.Point, mse float64) {
	origin = c.Mean()
	xx, yy, xy := c.Covariance()

	// Principal axis of the 2x2 covariance matrix via the closed-form
	// eigenvector for a symmetric 2x2 matrix.
	theta := 0.5 * math.Atan2(2*xy, xx-yy)
	direction = geom.Point{X: math.Cos(theta), Y: math.Sin(theta)}

	// Eigenvalues of the covariance matrix: variance along the major and
	// minor axes. The minor-axis variance is the mean squared
	// perpendicular residual to the fitted line.
	trace := xx + yy
	det := xx*yy - xy*xy
	disc := math.Sqrt(math.Max(trace*trace/4-det, 0))
	lambda1 := trace/2 + disc
	lambda2 := trace/2 - disc
	if lambda1 < lambda2 {
		lambda1, lambda2 = lambda2, lambda1
	}
	mse = math.Max(lambda2, 0)
	_ = lambda1
	return origin, direction, mse
}

// FitSegments runs line fitting and splitting over every cluster,
// returning the flattened segment arena.
func FitSegments(clusters []Cluster, cfg Config) []Segment {
	segs := make([]Segment, 0, len(clusters)*2)
	nextIndex := 0
	for ci := range clusters {
		clusterSegs := SplitCluster(clusters[ci].Points, cfg, ci, &nextIndex)
		gx, gy := clusters[ci].GradX, clusters[ci].GradY
		for i := range clusterSegs {
			assignGradientSide(&clusterSegs[i], gx, gy)
		}
		segs = append(segs, clusterSegs...)
	}
	return segs
}

// assignGradientSide orients the segment's stored gradient direction to
// match the cluster's net dark-to-light direction, normalized.
func assignGradientSide(s *Segment, gx, gy float64) {
	n := math.Hypot(gx, gy)
	if n == 0 {
		s.GradX, s.GradY = 0, 0
		return
	}
	s.GradX, s.GradY = gx/n, gy/n
}

// SplitCluster converts a cluster into up to 4 line segments. If the
// cluster's line fit has acceptable MSE, it is emitted as a single
// segment. Otherwise its member points are approximated by a polyline
// via recursive maximum-deviation splitting (Douglas-Peucker-like) and
// capped at 4 segments, matching the detector's segment budget per tag
// edge.
func SplitCluster(pts []geom.Point, cfg Config, clusterIdx int, nextIndex *int) []Segment {
	if len(pts) < 2 {
		return nil
	}
	ordered := orderAlongPrincipalAxis(pts)

	a, b := ordered[0], ordered[len(ordered)-1]
	mse := maxSquaredDeviation(ordered, a, b)
	if mse <= cfg.MaxLineMSE {
		return []Segment{newSegment(a, b, clusterIdx, nextIndex, mse)}
	}

	splitIdx, _ := farthestFromLine(ordered, a, b)
	segs := make([]Segment, 0, 4)
	segs = append(segs, splitRange(ordered, 0, splitIdx, clusterIdx, nextIndex)...)
	segs = append(segs, splitRange(ordered, splitIdx, len(ordered)-1, clusterIdx, nextIndex)...)
	if len(segs) > 4 {
		segs = segs[:4]
	}
	return segs
}

func splitRange(pts []geom.Point, start, end int, clusterIdx int, nextIndex *int) []Segment {
	a, b := pts[start], pts[end]
	sub := pts[start : end+1]
	mse := maxSquaredDeviation(sub, a, b)
	if mse <= 1.0 || end-start < 2 {
		return []Segment{newSegment(a, b, clusterIdx, nextIndex, mse)}
	}
	splitIdx, _ := farthestFromLine(sub, a, b)
	splitIdx += start
	out := make([]Segment, 0, 2)
	out = append(out, newSegment(a, pts[splitIdx], clusterIdx, nextIndex, mse))
	out = append(out, newSegment(pts[splitIdx], b, clusterIdx, nextIndex, mse))
	return out
}

func newSegment(a, b geom.Point, clusterIdx int, nextIndex *int, mse float64) Segment {
	idx := *nextIndex
	*nextIndex++
	return Segment{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y, ClusterIdx: clusterIdx, Index: idx, MSE: mse}
}

// orderAlongPrincipalAxis sorts points by their projection onto the
// cluster's principal axis, giving a stable traversal order for
// polyline simplification.
func orderAlongPrincipalAxis(pts []geom.Point) []geom.Point {
	var c Cluster
	for _, p := range pts {
		c.add(p, 0, 0)
	}
	_, dir, _ := FitLine(&c)
	type scored struct {
		p geom.Point
		t float64
	}
	scoredPts := make([]scored, len(pts))
	for i, p := range pts {
		scoredPts[i] = scored{p: p, t: p.X*dir.X + p.Y*dir.Y}
	}
	for i := 1; i < len(scoredPts); i++ {
		v := scoredPts[i]
		j := i - 1
		for j >= 0 && scoredPts[j].t > v.t {
			scoredPts[j+1] = scoredPts[j]
			j--
		}
		scoredPts[j+1] = v
	}
	out := make([]geom.Point, len(scoredPts))
	for i, s := range scoredPts {
		out[i] = s.p
	}
	return out
}

func maxSquaredDeviation(pts []geom.Point, a, b geom.Point) float64 {
	if len(pts) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pts {
		d := perpDist(p, a, b)
		sum += d * d
	}
	return sum / float64(len(pts))
}

func farthestFromLine(pts []geom.Point, a, b geom.Point) (int, float64) {
	best, bestDist := 0, -1.0
	for i, p := range pts {
		d := perpDist(p, a, b)
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best, bestDist
}

func perpDist(p, a, b geom.Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	if vx == 0 && vy == 0 {
		return geom.Dist(p, a)
	}
	num := math.Abs((p.X-a.X)*vy - (p.Y-a.Y)*vx)
	den := math.Hypot(vx, vy)
	return num / den
}
