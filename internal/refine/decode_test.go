package refine

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/decode"
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/stretchr/testify/assert"
)

func TestDecode_SkipsRetryWhenInitialIsExactMatch(t *testing.T) {
	img := imagebuf.NewImage8(4, 4)
	defer img.Release()
	var q quad.Quad
	q.Corners = [4]geom.Point{{X: 0, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 3}}
	q.H = geom.FitSquareToQuad(q.Corners)

	initial := decode.Result{Family: family.Tag16h5, Hamming: 0, ID: 5}

	got := Decode(img, q, family.Tag16h5, 127, initial)
	assert.Equal(t, initial, got)
}

func TestJitterHomography_ZeroShiftIsIdentityComposition(t *testing.T) {
	h := geom.Homography{{2, 0, 5}, {0, 2, 5}, {0, 0, 1}}
	got := jitterHomography(h, 0, 0)
	assert.Equal(t, h, got)
}
