// Package segment implements the gradient-clustering connected-component
// and line-segment-fitting variant of the detector's segmentation stage:
// edge pixels are clustered by union-find keyed on the pair of regions
// they separate, then each cluster is fit to one or more line segments.
package segment

import "github.com/aprilgo/apriltag/internal/geom"

// Cluster aggregates statistics over the pixels assigned to one edge
// equivalence class: mean position, covariance, summed gradient, and
// bounding box. Produced by clustering, consumed by line fitting.
type Cluster struct {
	Count      int
	SumX, SumY float64
	SumXX, SumYY, SumXY float64
	GradX, GradY        float64 // summed gradient vector (dark->light)
	MinX, MinY           int
	MaxX, MaxY           int
	Points               []geom.Point // member edge-sample positions, for segment fitting
}

// Mean returns the cluster's centroid.
func (c *Cluster) Mean() geom.Point {
	if c.Count == 0 {
		return geom.Point{}
	}
	return geom.Point{X: c.SumX / float64(c.Count), Y: c.SumY / float64(c.Count)}
}

// Covariance returns the (xx, yy, xy) second central moments.
func (c *Cluster) Covariance() (xx, yy, xy float64) {
	if c.Count == 0 {
		return 0, 0, 0
	}
	n := float64(c.Count)
	mx, my := c.SumX/n, c.SumY/n
	xx = c.SumXX/n - mx*mx
	yy = c.SumYY/n - my*my
	xy = c.SumXY/n - mx*my
	return xx, yy, xy
}

// add folds one weighted edge sample into the cluster's running moments.
func (c *Cluster) add(p geom.Point, gx, gy float64) {
	c.Points = append(c.Points, p)
	c.Count++
	c.SumX += p.X
	c.SumY += p.Y
	c.SumXX += p.X * p.X
	c.SumYY += p.Y * p.Y
	c.SumXY += p.X * p.Y
	c.GradX += gx
	c.GradY += gy
	xi, yi := int(p.X), int(p.Y)
	if c.Count == 1 {
		c.MinX, c.MaxX = xi, xi
		c.MinY, c.MaxY = yi, yi
		return
	}
	if xi < c.MinX {
		c.MinX = xi
	}
	if xi > c.MaxX {
		c.MaxX = xi
	}
	if yi < c.MinY {
		c.MinY = yi
	}
	if yi > c.MaxY {
		c.MaxY = yi
	}
}

// Segment is a fitted line segment: two endpoints, the gradient side
// (the direction from dark to light across the edge), and bookkeeping
// for quad assembly.
type Segment struct {
	X0, Y0, X1, Y1 float64
	GradX, GradY   float64 // unit-ish dark->light direction
	ClusterIdx     int
	Index          int
	Children       []int // candidate continuations, indices into the segment arena
	MSE            float64
}

// Length returns the Euclidean length of the segment.
func (s *Segment) Length() float64 {
	return geom.Dist(geom.Point{X: s.X0, Y: s.Y0}, geom.Point{X: s.X1, Y: s.Y1})
}

// Start returns the segment's starting endpoint.
func (s *Segment) Start() geom.Point { return geom.Point{X: s.X0, Y: s.Y0} }

// End returns the segment's ending endpoint.
func (s *Segment) End() geom.Point { return geom.Point{X: s.X1, Y: s.Y1} }
