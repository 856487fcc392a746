package refine

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/stretchr/testify/assert"
)

// renderSquare paints a size x size dark square centered in a light
// background image, with the given top-left corner offset.
func renderSquare(dim int, x0, y0, size int) *imagebuf.Image8 {
	img := imagebuf.NewImage8(dim, dim)
	for y := range dim {
		for x := range dim {
			img.Set(x, y, 255)
		}
	}
	for y := y0; y < y0+size; y++ {
		for x := x0; x < x0+size; x++ {
			img.Set(x, y, 0)
		}
	}
	return img
}

func TestEdges_RefitStaysNearOriginalQuadOnCleanEdge(t *testing.T) {
	img := renderSquare(200, 50, 50, 100)
	var q quad.Quad
	q.Corners = [4]geom.Point{
		{X: 50, Y: 50}, {X: 150, Y: 50}, {X: 150, Y: 150}, {X: 50, Y: 150},
	}
	q.H = geom.FitSquareToQuad(q.Corners)

	refined := Edges(img, q)

	for i := range 4 {
		assert.InDelta(t, q.Corners[i].X, refined.Corners[i].X, 5, "corner %d x", i)
		assert.InDelta(t, q.Corners[i].Y, refined.Corners[i].Y, 5, "corner %d y", i)
	}
}

func TestEdges_RefitHomographyStillInvertible(t *testing.T) {
	img := renderSquare(200, 50, 50, 100)
	var q quad.Quad
	q.Corners = [4]geom.Point{
		{X: 50, Y: 50}, {X: 150, Y: 50}, {X: 150, Y: 150}, {X: 50, Y: 150},
	}
	q.H = geom.FitSquareToQuad(q.Corners)

	refined := Edges(img, q)
	center := refined.H.Apply(geom.Point{X: 0, Y: 0})
	assert.InDelta(t, 100, center.X, 5)
	assert.InDelta(t, 100, center.Y, 5)
}
