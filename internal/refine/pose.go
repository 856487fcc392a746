package refine

import (
	"math"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/pose"
)

const (
	poseMaxIterations  = 50
	poseConvergenceEps = 1e-9
)

// Pose re-projects the tag's 4 canonical corners through seed's
// transform and compares them against the quad's detected image-space
// corners, running Gauss-Newton updates on (R,t) until the summed
// reprojection error stops improving or the iteration cap is hit.
func Pose(seed pose.Result, intr pose.Intrinsics, tagSize float64, detectedCorners [4]geom.Point) pose.Result {
	r, t := toRT(seed.Transform)
	corners := tagCorners(tagSize)

	prevErr := reprojectionError(r, t, intr, corners, detectedCorners)
	converged := false
	iter := seed.Iterations

	for i := 0; i < poseMaxIterations; i++ {
		r, t = gaussNewtonStep(r, t, intr, corners, detectedCorners)
		curErr := reprojectionError(r, t, intr, corners, detectedCorners)
		iter++
		if math.Abs(prevErr-curErr) < poseConvergenceEps {
			converged = true
			prevErr = curErr
			break
		}
		prevErr = curErr
	}

	return pose.Result{Transform: fromRT(r, t), Converged: converged, Iterations: iter}
}

func tagCorners(tagSize float64) [4][3]float64 {
	s := tagSize / 2
	return [4][3]float64{{-s, -s, 0}, {s, -s, 0}, {s, s, 0}, {-s, s, 0}}
}

func project(r [3][3]float64, t [3]float64, p [3]float64, intr pose.Intrinsics) geom.Point {
	x := r[0][0]*p[0] + r[0][1]*p[1] + r[0][2]*p[2] + t[0]
	y := r[1][0]*p[0] + r[1][1]*p[1] + r[1][2]*p[2] + t[1]
	z := r[2][0]*p[0] + r[2][1]*p[1] + r[2][2]*p[2] + t[2]
	if z == 0 {
		z = 1e-9
	}
	return geom.Point{X: intr.Fx*x/z + intr.Cx, Y: intr.Fy*y/z + intr.Cy}
}

func reprojectionError(r [3][3]float64, t [3]float64, intr pose.Intrinsics, world [4][3]float64, detected [4]geom.Point) float64 {
	var sum float64
	for i := range 4 {
		p := project(r, t, world[i], intr)
		sum += geom.Dist(p, detected[i])
	}
	return sum
}

// gaussNewtonStep numerically linearizes the reprojection residual in
// the 6 pose parameters (3 small-angle rotation increments, 3
// translation increments) and takes a damped Gauss-Newton step.
func gaussNewtonStep(r [3][3]float64, t [3]float64, intr pose.Intrinsics, world [4][3]float64, detected [4]geom.Point) ([3][3]float64, [3]float64) {
	const h = 1e-6
	const damping = 0.5

	residual := func(rr [3][3]float64, tt [3]float64) []float64 {
		res := make([]float64, 0, 8)
		for i := range 4 {
			p := project(rr, tt, world[i], intr)
			res = append(res, p.X-detected[i].X, p.Y-detected[i].Y)
		}
		return res
	}

	params := [6]float64{0, 0, 0, t[0], t[1], t[2]}
	apply := func(p [6]float64) ([3][3]float64, [3]float64) {
		rr := applySmallRotation(r, p[0], p[1], p[2])
		tt := [3]float64{p[3], p[4], p[5]}
		return rr, tt
	}

	base := residual(apply(params))
	var jac [8][6]float64
	for k := range 6 {
		pk := params
		pk[k] += h
		rk := residual(apply(pk))
		for row := range base {
			jac[row][k] = (rk[row] - base[row]) / h
		}
	}

	// Normal equations: (J^T J + damping*I) delta = -J^T r
	var jtj [6][6]float64
	var jtr [6]float64
	for row := range base {
		for a := range 6 {
			jtr[a] += jac[row][a] * base[row]
			for b := range 6 {
				jtj[a][b] += jac[row][a] * jac[row][b]
			}
		}
	}
	for i := range 6 {
		jtj[i][i] += damping
	}

	delta := solve6(jtj, jtr)
	var next [6]float64
	for i := range 6 {
		next[i] = params[i] - delta[i]
	}
	return apply(next)
}

func applySmallRotation(r [3][3]float64, ax, ay, az float64) [3][3]float64 {
	// First-order rotation increment exp([ax,ay,az]_x) ~= I + skew(a).
	skew := [3][3]float64{
		{0, -az, ay},
		{az, 0, -ax},
		{-ay, ax, 0},
	}
	var delta [3][3]float64
	for i := range 3 {
		for j := range 3 {
			delta[i][j] = skew[i][j]
			if i == j {
				delta[i][j] += 1
			}
		}
	}
	var out [3][3]float64
	for i := range 3 {
		for j := range 3 {
			var sum float64
			for k := range 3 {
				sum += delta[i][k] * r[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// solve6 solves a 6x6 linear system via Gaussian elimination with
// partial pivoting.
func solve6(a [6][6]float64, b [6]float64) [6]float64 {
	var m [6][7]float64
	for i := range 6 {
		copy(m[i][:6], a[i][:])
		m[i][6] = b[i]
	}
	for col := range 6 {
		pivot := col
		best := math.Abs(m[col][col])
		for r := col + 1; r < 6; r++ {
			if v := math.Abs(m[r][col]); v > best {
				best = v
				pivot = r
			}
		}
		if best < 1e-15 {
			continue
		}
		m[col], m[pivot] = m[pivot], m[col]
		pv := m[col][col]
		for c := col; c < 7; c++ {
			m[col][c] /= pv
		}
		for r := range 6 {
			if r == col {
				continue
			}
			factor := m[r][col]
			for c := col; c < 7; c++ {
				m[r][c] -= factor * m[col][c]
			}
		}
	}
	var x [6]float64
	for i := range 6 {
		x[i] = m[i][6]
	}
	return x
}

func toRT(t pose.Transform) ([3][3]float64, [3]float64) {
	var r [3][3]float64
	var tr [3]float64
	for i := range 3 {
		for j := range 3 {
			r[i][j] = t[i][j]
		}
		tr[i] = t[i][3]
	}
	return r, tr
}

func fromRT(r [3][3]float64, t [3]float64) pose.Transform {
	var out pose.Transform
	for i := range 3 {
		for j := range 3 {
			out[i][j] = r[i][j]
		}
		out[i][3] = t[i]
	}
	out[3] = [4]float64{0, 0, 0, 1}
	return out
}
