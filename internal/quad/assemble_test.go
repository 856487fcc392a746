package quad

import (
	"testing"

	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/segment"
)

func seg(x0, y0, x1, y1 float64) segment.Segment {
	return segment.Segment{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// squareSegments returns 4 CCW segments tracing a size x size square
// with its bottom-left corner at the origin — each consecutive pair
// turns 90 degrees CCW, well within AssembleQuads' default turn window.
func squareSegments(size float64) []segment.Segment {
	return []segment.Segment{
		seg(0, 0, size, 0),
		seg(size, 0, size, size),
		seg(size, size, 0, size),
		seg(0, size, 0, 0),
	}
}

// TestAssembleQuads_FindsAQuadInASquare verifies a clean 4-segment
// square assembles into at least one accepted, properly-oriented quad
// matching the square's own perimeter.
func TestAssembleQuads_FindsAQuadInASquare(t *testing.T) {
	segs := squareSegments(30)
	quads := AssembleQuads(segs, DefaultConfig())

	if len(quads) == 0 {
		t.Fatal("expected at least 1 quad from a clean square")
	}
	for _, q := range quads {
		if q.Area() <= 0 {
			t.Errorf("expected a CCW (positive-area) quad, got area %v", q.Area())
		}
		if perim := q.Perimeter(); perim < 4*30-1e-6 {
			t.Errorf("expected perimeter close to the 30-unit square's 120, got %v", perim)
		}
	}
}

// TestAssembleQuads_RejectsTooSmallQuads verifies the MinArea filter
// actually screens out undersized cycles rather than accepting anything
// that closes.
func TestAssembleQuads_RejectsTooSmallQuads(t *testing.T) {
	segs := squareSegments(2) // area 4, far under any reasonable MinArea
	quads := AssembleQuads(segs, DefaultConfig())

	if len(quads) != 0 {
		t.Fatalf("expected 0 quads for an undersized square, got %d", len(quads))
	}
}

// TestAssembleQuads_RejectsTurnsOutsideWindow verifies segments that
// don't turn within [MinTurnDeg, MaxTurnDeg] never get joined into a
// cycle at all.
func TestAssembleQuads_RejectsTurnsOutsideWindow(t *testing.T) {
	// A near-straight chain: consecutive segments turn ~10 degrees,
	// outside the default [45, 135] window, so no edges join and no
	// cycle can be found.
	segs := []segment.Segment{
		seg(0, 0, 10, 0),
		seg(10, 0, 20, 1),
		seg(20, 1, 30, 3),
		seg(30, 3, 40, 6),
	}
	quads := AssembleQuads(segs, DefaultConfig())
	if len(quads) != 0 {
		t.Fatalf("expected 0 quads when no turn falls in [MinTurnDeg, MaxTurnDeg], got %d", len(quads))
	}
}

func TestPassesFilters_RejectsCollinearCorners(t *testing.T) {
	q := Quad{Corners: [4]geom.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 1},
	}}
	if passesFilters(q, DefaultConfig()) {
		t.Error("expected a quad with 3 collinear corners to be rejected")
	}
}

func TestPassesFilters_RejectsNonConvexCorners(t *testing.T) {
	// A dart / arrowhead shape: reflex at one corner.
	q := Quad{Corners: [4]geom.Point{
		{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 10, Y: 5}, {X: 20, Y: 20},
	}}
	if passesFilters(q, DefaultConfig()) {
		t.Error("expected a non-convex quad to be rejected")
	}
}

func TestPassesFilters_RejectsExtremeAspectRatio(t *testing.T) {
	cfg := DefaultConfig()
	q := Quad{Corners: [4]geom.Point{
		{X: 0, Y: 0}, {X: 1000, Y: 0}, {X: 1000, Y: 1}, {X: 0, Y: 1},
	}}
	if passesFilters(q, cfg) {
		t.Error("expected an extremely elongated quad to fail the aspect ratio filter")
	}
}

func TestPassesFilters_AcceptsARegularSquare(t *testing.T) {
	q := Quad{Corners: [4]geom.Point{
		{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 30}, {X: 0, Y: 30},
	}}
	if !passesFilters(q, DefaultConfig()) {
		t.Error("expected a regular square to pass all filters")
	}
}

func TestIntersectLines_ParallelSegmentsReportNoIntersection(t *testing.T) {
	a := seg(0, 0, 10, 0)
	b := seg(0, 5, 10, 5)
	if _, ok := intersectLines(a, b); ok {
		t.Error("expected parallel segments to report no intersection")
	}
}

func TestIntersectLines_PerpendicularSegmentsMeetAtCorner(t *testing.T) {
	a := seg(0, 0, 10, 0)
	b := seg(10, -5, 10, 5)
	p, ok := intersectLines(a, b)
	if !ok {
		t.Fatal("expected perpendicular segments to intersect")
	}
	if geom.Dist(p, geom.Point{X: 10, Y: 0}) > 1e-9 {
		t.Errorf("expected intersection at (10,0), got %v", p)
	}
}

func TestDedupQuads_MergesCloseCorners(t *testing.T) {
	a := Quad{Corners: [4]geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}}
	b := Quad{Corners: [4]geom.Point{{X: 0.1, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}}
	c := Quad{Corners: [4]geom.Point{{X: 50, Y: 50}, {X: 60, Y: 50}, {X: 60, Y: 60}, {X: 50, Y: 60}}}

	kept := dedupQuads([]Quad{a, b, c}, 1.0)
	if len(kept) != 2 {
		t.Fatalf("expected near-duplicate a/b to merge to 1 and c to remain distinct, got %d", len(kept))
	}
}
