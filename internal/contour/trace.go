package contour

import "github.com/aprilgo/apriltag/internal/geom"

// traceMoore extracts the outer boundary polygon of a labeled component
// using Moore-neighbourhood tracing, restricted to the component's
// bounding box. Returned points are pixel-center coordinates; collinear
// points are dropped as they're found.
func traceMoore(labels []int, w, h, label int, c component) []geom.Point {
	sx, sy := findStartingBoundaryPixel(labels, w, h, label, c)
	if sx == -1 {
		return nil
	}

	pts := make([]geom.Point, 0, 64)
	cx, cy := sx, sy
	bx, by := sx-1, sy

	addPoint := func(x, y int) {
		p := geom.Point{X: float64(x), Y: float64(y)}
		n := len(pts)
		if n >= 2 {
			a := pts[n-2]
			b := pts[n-1]
			if geom.Cross(a, b, p) == 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}
	addPoint(cx, cy)

	startCx, startCy, startBx, startBy := cx, cy, bx, by
	maxSteps := w*h*4 + 8

	for steps := 0; steps < maxSteps; steps++ {
		nx, ny, nbx, nby, found := findNextBoundaryPixel(labels, w, h, label, cx, cy, bx, by)
		if !found {
			break
		}
		bx, by = nbx, nby
		cx, cy = nx, ny

		if len(pts) == 0 || pts[len(pts)-1].X != float64(cx) || pts[len(pts)-1].Y != float64(cy) {
			addPoint(cx, cy)
		}
		if cx == startCx && cy == startCy && bx == startBx && by == startBy {
			break
		}
	}

	if len(pts) >= 2 && pts[0].X == pts[len(pts)-1].X && pts[0].Y == pts[len(pts)-1].Y {
		pts = pts[:len(pts)-1]
	}
	return pts
}

func findStartingBoundaryPixel(labels []int, w, h, label int, c component) (int, int) {
	for y := c.minY; y <= c.maxY; y++ {
		for x := c.minX; x <= c.maxX; x++ {
			if isBoundaryPixel(labels, w, h, label, x, y) {
				return x, y
			}
		}
	}
	return -1, -1
}

func isBoundaryPixel(labels []int, w, h, label, x, y int) bool {
	if !isLabelPixel(labels, w, h, label, x, y) {
		return false
	}
	return !isLabelPixel(labels, w, h, label, x+1, y) ||
		!isLabelPixel(labels, w, h, label, x-1, y) ||
		!isLabelPixel(labels, w, h, label, x, y+1) ||
		!isLabelPixel(labels, w, h, label, x, y-1)
}

func isLabelPixel(labels []int, w, h, label, x, y int) bool {
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	return labels[y*w+x] == label
}

// findNextBoundaryPixel searches the 8-neighbourhood of (cx,cy), starting
// just past the backtrack direction (bx,by), in clockwise order.
func findNextBoundaryPixel(labels []int, w, h, label, cx, cy, bx, by int) (int, int, int, int, bool) {
	isLabel := func(x, y int) bool { return isLabelPixel(labels, w, h, label, x, y) }

	ndx := [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ndy := [8]int{0, 1, 1, 1, 0, -1, -1, -1}

	dirIndex := func(dx, dy int) int {
		for i := range 8 {
			if ndx[i] == dx && ndy[i] == dy {
				return i
			}
		}
		return 0
	}

	dx, dy := bx-cx, by-cy
	start := (dirIndex(dx, dy) + 1) % 8

	for k := range 8 {
		i := (start + k) % 8
		tx, ty := cx+ndx[i], cy+ndy[i]
		if isLabel(tx, ty) {
			return tx, ty, cx, cy, true
		}
		bx, by = tx, ty
	}
	return 0, 0, bx, by, false
}
