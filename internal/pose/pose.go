// Package pose recovers a tag's camera-relative rotation and translation
// from its homography via orthogonal iteration (Lu-Hager-Mjolsness),
// seeded by a closed-form decomposition of the homography.
package pose

import (
	"math"

	"github.com/aprilgo/apriltag/internal/geom"
)

// Transform is a 4x4 homogeneous transform: rows [0..2] hold rotation
// (columns 0-2) and translation (column 3); row 3 is (0,0,0,1).
type Transform [4][4]float64

// Intrinsics holds a pinhole camera's focal lengths and principal point.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
}

// Result is the pose solver's output: the recovered transform plus
// whether the iteration converged before the step cap.
type Result struct {
	Transform  Transform
	Converged  bool
	Iterations int
}

const (
	maxIterations  = 50
	convergenceEps = 1e-9
)

// Solve recovers (R,t) from the homography h mapping the canonical
// tag square [-1,+1]^2 (tag plane, z=0) to image pixels, given the
// camera intrinsics and the tag's physical edge length in world units.
func Solve(h geom.Homography, intr Intrinsics, tagSize float64) Result {
	r0, t0 := seedFromHomography(h, intr, tagSize)

	corners := canonicalCorners(tagSize)
	los := observedLinesOfSight(h, intr)

	r := r0
	t := t0
	converged := false
	iter := 0
	for ; iter < maxIterations; iter++ {
		newR, newT := orthogonalIterationStep(r, t, corners, los)
		delta := frobeniusDelta(r, newR)
		r, t = newR, newT
		if delta < convergenceEps {
			converged = true
			iter++
			break
		}
	}

	var tr Transform
	for i := range 3 {
		for j := range 3 {
			tr[i][j] = r[i][j]
		}
		tr[i][3] = t[i]
	}
	tr[3] = [4]float64{0, 0, 0, 1}

	return Result{Transform: tr, Converged: converged, Iterations: iter}
}

// seedFromHomography produces an initial (R,t) estimate via the
// classical closed-form homography decomposition: H = K[r1 r2 t] up to
// scale, with r3 = r1 x r2 restoring orthonormality.
func seedFromHomography(h geom.Homography, intr Intrinsics, tagSize float64) ([3][3]float64, [3]float64) {
	kInv := [3][3]float64{
		{1 / intr.Fx, 0, -intr.Cx / intr.Fx},
		{0, 1 / intr.Fy, -intr.Cy / intr.Fy},
		{0, 0, 1},
	}

	var m [3][3]float64
	for i := range 3 {
		for j := range 3 {
			var sum float64
			for k := range 3 {
				sum += kInv[i][k] * h[k][j]
			}
			m[i][j] = sum
		}
	}

	col := func(j int) [3]float64 { return [3]float64{m[0][j], m[1][j], m[2][j]} }
	h1, h2, h3 := col(0), col(1), col(2)

	norm1 := vecNorm(h1)
	norm2 := vecNorm(h2)
	scale := 2.0 / (norm1 + norm2)
	if scale == 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		scale = 1
	}

	r1 := vecScale(h1, 1/norm1)
	r2 := vecScale(h2, 1/norm2)
	r2 = orthogonalizeAgainst(r2, r1)
	r3 := vecCross(r1, r2)

	t := vecScale(h3, scale*tagSize/2)

	var r [3][3]float64
	for i := range 3 {
		r[i][0] = r1[i]
		r[i][1] = r2[i]
		r[i][2] = r3[i]
	}
	r = orthonormalize(r)
	return r, t
}

// observedLinesOfSight returns the fixed camera-ray direction through
// each canonical corner's detected image position, derived once from h.
// These rays are the actual measurements the iteration below refines
// (R,t) against; unlike the world points, they never change between
// iterations.
func observedLinesOfSight(h geom.Homography, intr Intrinsics) [4][3]float64 {
	canon := [4]geom.Point{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	var out [4][3]float64
	for i, c := range canon {
		px := h.Apply(c)
		x := (px.X - intr.Cx) / intr.Fx
		y := (px.Y - intr.Cy) / intr.Fy
		n := math.Sqrt(x*x + y*y + 1)
		out[i] = [3]float64{x / n, y / n, 1 / n}
	}
	return out
}

// orthogonalIterationStep performs one Lu-Hager-Mjolsness update: for
// each corner, project the current (R,t) estimate onto its fixed
// observed line of sight to get a target point q_i, then refine R by
// solving the orthogonal Procrustes problem between the canonical
// corners and the q_i (a polar decomposition of their cross-covariance,
// computed via Newton's iteration rather than a general SVD), and
// finally recover t from the centroids.
func orthogonalIterationStep(r [3][3]float64, t [3]float64, corners, los [4][3]float64) ([3][3]float64, [3]float64) {
	var targets [4][3]float64
	for i, p := range corners {
		world := applyRT(r, t, p)
		depth := vecDot(world, los[i])
		targets[i] = vecScale(los[i], depth)
	}

	pBar := meanVec(corners[:])
	qBar := meanVec(targets[:])

	var cov [3][3]float64
	for i := range corners {
		pc := vecSub(corners[i], pBar)
		qc := vecSub(targets[i], qBar)
		for a := range 3 {
			for b := range 3 {
				cov[a][b] += qc[a] * pc[b]
			}
		}
	}

	newR := polarFactor(cov)
	if mat3Det(newR) < 0 {
		for i := range 3 {
			newR[i][2] = -newR[i][2]
		}
	}
	newT := vecSub(qBar, matVec(newR, pBar))
	return newR, newT
}

// polarFactor returns the orthogonal factor of m's polar decomposition
// (the nearest orthogonal matrix to m), which is exactly the rotation
// that maximizes trace(R^T m) — the solution the orthogonal Procrustes
// problem needs. It is computed by Newton's iteration on the matrix
// square root, a closed-form-only alternative to a general 3x3 SVD that
// needs nothing beyond the 3x3 inverse below.
func polarFactor(m [3][3]float64) [3][3]float64 {
	y := m
	for i := 0; i < 20; i++ {
		inv, ok := mat3Inverse(y)
		if !ok {
			return orthonormalize(m)
		}
		next := mat3Scale(mat3Add(y, mat3Transpose(inv)), 0.5)
		delta := frobeniusDelta(y, next)
		y = next
		if delta < 1e-12 {
			break
		}
	}
	return y
}

func canonicalCorners(tagSize float64) [4][3]float64 {
	s := tagSize / 2
	return [4][3]float64{
		{-s, -s, 0},
		{s, -s, 0},
		{s, s, 0},
		{-s, s, 0},
	}
}

func applyRT(r [3][3]float64, t [3]float64, p [3]float64) [3]float64 {
	var out [3]float64
	for i := range 3 {
		out[i] = r[i][0]*p[0] + r[i][1]*p[1] + r[i][2]*p[2] + t[i]
	}
	return out
}

// orthonormalize projects r onto the nearest proper rotation via
// Gram-Schmidt on its columns (a lightweight stand-in for SVD-based
// polar decomposition, adequate for the small per-iteration drift this
// solver accumulates).
func orthonormalize(r [3][3]float64) [3][3]float64 {
	col := func(j int) [3]float64 { return [3]float64{r[0][j], r[1][j], r[2][j]} }
	c0 := vecNormalize(col(0))
	c1 := orthogonalizeAgainst(col(1), c0)
	c1 = vecNormalize(c1)
	c2 := vecCross(c0, c1)

	var out [3][3]float64
	for i := range 3 {
		out[i][0] = c0[i]
		out[i][1] = c1[i]
		out[i][2] = c2[i]
	}
	return out
}

func frobeniusDelta(a, b [3][3]float64) float64 {
	var sum float64
	for i := range 3 {
		for j := range 3 {
			d := a[i][j] - b[i][j]
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

func vecNorm(v [3]float64) float64 { return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2]) }

func vecNormalize(v [3]float64) [3]float64 {
	n := vecNorm(v)
	if n == 0 {
		return v
	}
	return vecScale(v, 1/n)
}

func vecScale(v [3]float64, s float64) [3]float64 {
	return [3]float64{v[0] * s, v[1] * s, v[2] * s}
}

func vecAdd(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func vecSub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func vecDot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func vecCross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func orthogonalizeAgainst(v, against [3]float64) [3]float64 {
	proj := vecDot(v, against)
	return vecSub(v, vecScale(against, proj))
}

func meanVec(vs [][3]float64) [3]float64 {
	var sum [3]float64
	for _, v := range vs {
		sum = vecAdd(sum, v)
	}
	return vecScale(sum, 1/float64(len(vs)))
}

func matVec(m [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := range 3 {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func mat3Transpose(m [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			out[j][i] = m[i][j]
		}
	}
	return out
}

func mat3Add(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func mat3Scale(m [3][3]float64, s float64) [3][3]float64 {
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			out[i][j] = m[i][j] * s
		}
	}
	return out
}

func mat3Det(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// mat3Inverse returns m's inverse via the adjugate/determinant formula,
// and false if m is singular.
func mat3Inverse(m [3][3]float64) ([3][3]float64, bool) {
	det := mat3Det(m)
	if det == 0 {
		return [3][3]float64{}, false
	}
	invDet := 1 / det
	var out [3][3]float64
	out[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	out[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	out[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	out[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	out[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	out[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	out[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	out[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	out[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return out, true
}
