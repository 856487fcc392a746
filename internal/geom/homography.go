package geom

// Homography is a 3x3 projective transform stored row-major, mapping the
// canonical unit square [-1,+1]^2 to image pixel coordinates (or vice
// versa, depending on construction).
type Homography [3][3]float64

// FitSquareToQuad computes the homography mapping the canonical corners
// (-1,-1), (+1,-1), (+1,+1), (-1,+1) to the four image-space corners
// given in the same CCW order. Uses the adjugate/closed-form
// quadrilateral-to-quadrilateral construction (normalized DLT is
// equivalent for four exact point correspondences).
func FitSquareToQuad(corners [4]Point) Homography {
	return squareToQuad(
		-1, -1, corners[0].X, corners[0].Y,
		+1, -1, corners[1].X, corners[1].Y,
		+1, +1, corners[2].X, corners[2].Y,
		-1, +1, corners[3].X, corners[3].Y,
	)
}

// squareToQuad computes the transform mapping the unit square corners
// (x0,y0)..(x3,y3) to an arbitrary quadrilateral (x0p,y0p)..(x3p,y3p),
// following the square-to-quadrilateral decomposition used by projective
// barcode rectification: first map the square to the quad's shape, then
// compose if the source wasn't literally [0,1]^2 (here it already is the
// canonical domain, so only squareToQuadrilateral is needed, generalized
// to accept the canonical square's own four corners as source).
func squareToQuad(x0, y0, x0p, y0p, x1, y1, x1p, y1p, x2, y2, x2p, y2p, x3, y3, x3p, y3p float64) Homography {
	unitToQuad := unitSquareToQuadrilateral(x0p, y0p, x1p, y1p, x2p, y2p, x3p, y3p)
	// The canonical domain here is already the unit-square shape (-1..1), so
	// build the transform straight from the 4 correspondences via the
	// quad-to-quad composition: canonical -> unit square -> target quad.
	canonicalToUnit := Homography{
		{0.5, 0, 0.5},
		{0, 0.5, 0.5},
		{0, 0, 1},
	}
	return multiply(unitToQuad, canonicalToUnit)
}

// unitSquareToQuadrilateral computes the projective transform from the
// unit square (0,0),(1,0),(1,1),(0,1) to an arbitrary quadrilateral.
func unitSquareToQuadrilateral(x0, y0, x1, y1, x2, y2, x3, y3 float64) Homography {
	dx3 := x0 - x1 + x2 - x3
	dy3 := y0 - y1 + y2 - y3
	if dx3 == 0 && dy3 == 0 {
		return Homography{
			{x1 - x0, x2 - x1, x0},
			{y1 - y0, y2 - y1, y0},
			{0, 0, 1},
		}
	}
	dx1 := x1 - x2
	dx2 := x3 - x2
	dy1 := y1 - y2
	dy2 := y3 - y2
	denom := dx1*dy2 - dx2*dy1
	a13 := (dx3*dy2 - dx2*dy3) / denom
	a23 := (dx1*dy3 - dx3*dy1) / denom
	return Homography{
		{x1 - x0 + a13*x1, x3 - x0 + a23*x3, x0},
		{y1 - y0 + a13*y1, y3 - y0 + a23*y3, y0},
		{a13, a23, 1},
	}
}

func multiply(a, b Homography) Homography {
	var out Homography
	for r := range 3 {
		for c := range 3 {
			var sum float64
			for k := range 3 {
				sum += a[r][k] * b[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

// Apply projects a canonical-space point through H into image space.
func (h Homography) Apply(p Point) Point {
	x := h[0][0]*p.X + h[0][1]*p.Y + h[0][2]
	y := h[1][0]*p.X + h[1][1]*p.Y + h[1][2]
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	return Point{X: x / w, Y: y / w}
}

// Invert returns the inverse homography. The input is assumed invertible;
// callers should reject degenerate quads before fitting a homography.
func (h Homography) Invert() Homography {
	a, b, c := h[0][0], h[0][1], h[0][2]
	d, e, f := h[1][0], h[1][1], h[1][2]
	g, i, j := h[2][0], h[2][1], h[2][2]

	det := a*(e*j-f*i) - b*(d*j-f*g) + c*(d*i-e*g)
	if det == 0 {
		return Homography{}
	}
	invDet := 1 / det

	return Homography{
		{(e*j - f*i) * invDet, (c*i - b*j) * invDet, (b*f - c*e) * invDet},
		{(f*g - d*j) * invDet, (a*j - c*g) * invDet, (c*d - a*f) * invDet},
		{(d*i - e*g) * invDet, (b*g - a*i) * invDet, (a*e - b*d) * invDet},
	}
}
