package refine

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/pose"
	"github.com/stretchr/testify/assert"
)

func TestPose_ExactSeedReprojectsWithNearZeroError(t *testing.T) {
	intr := pose.Intrinsics{Fx: 500, Fy: 500, Cx: 320, Cy: 240}
	r := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tr := [3]float64{0, 0, 1.5}

	corners := tagCorners(0.16)
	detected := [4]geom.Point{}
	for i, c := range corners {
		detected[i] = project(r, tr, c, intr)
	}

	seed := pose.Result{Transform: fromRT(r, tr), Converged: true, Iterations: 0}
	out := Pose(seed, intr, 0.16, detected)

	gotR, gotT := toRT(out.Transform)
	err := reprojectionError(gotR, gotT, intr, corners, detected)
	assert.Less(t, err, 0.5)
}

func TestSolve6_SolvesKnownLinearSystem(t *testing.T) {
	// x + y = 3, y + z = 5, x + z = 4 -> x=1, y=2, z=3
	var a [6][6]float64
	a[0][0], a[0][1] = 1, 1
	a[1][1], a[1][2] = 1, 1
	a[2][0], a[2][2] = 1, 1
	for i := 3; i < 6; i++ {
		a[i][i] = 1
	}
	b := [6]float64{3, 5, 4, 0, 0, 0}

	x := solve6(a, b)
	assert.InDelta(t, 1, x[0], 1e-6)
	assert.InDelta(t, 2, x[1], 1e-6)
	assert.InDelta(t, 3, x[2], 1e-6)
}
