package detector

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/stretchr/testify/assert"
)

func det(id int, cx, cy, margin float64) Detection {
	return Detection{ID: id, Center: geom.Point{X: cx, Y: cy}, DecisionMargin: margin}
}

func TestDeduplicate_KeepsHigherMarginOnCollision(t *testing.T) {
	dets := []Detection{
		det(3, 10, 10, 5.0),
		det(3, 10.2, 10.1, 8.0),
	}
	out := Deduplicate(dets, 1.0)
	assert.Len(t, out, 1)
	assert.Equal(t, 8.0, out[0].DecisionMargin)
}

func TestDeduplicate_DistinctIDsBothSurvive(t *testing.T) {
	dets := []Detection{
		det(1, 10, 10, 5.0),
		det(2, 10.1, 10.1, 8.0),
	}
	out := Deduplicate(dets, 1.0)
	assert.Len(t, out, 2)
}

func TestDeduplicate_FarApartSameIDBothSurvive(t *testing.T) {
	dets := []Detection{
		det(7, 0, 0, 5.0),
		det(7, 500, 500, 8.0),
	}
	out := Deduplicate(dets, 1.0)
	assert.Len(t, out, 2)
}

func TestSortDeterministic_OrdersByIDThenYThenX(t *testing.T) {
	dets := []Detection{
		det(2, 5, 5, 0),
		det(1, 3, 9, 0),
		det(1, 1, 2, 0),
		det(1, 4, 2, 0),
	}
	SortDeterministic(dets)
	assert.Equal(t, []int{1, 1, 1, 2}, []int{dets[0].ID, dets[1].ID, dets[2].ID, dets[3].ID})
	assert.Equal(t, 1.0, dets[0].Center.X)
	assert.Equal(t, 4.0, dets[1].Center.X)
	assert.Equal(t, 3.0, dets[2].Center.X)
}
