package detector

import (
	"sort"

	"github.com/aprilgo/apriltag/internal/geom"
)

// sortByDecisionMargin returns indices of dets sorted by decision margin
// descending, the order greedy deduplication processes them in.
func sortByDecisionMargin(dets []Detection) []int {
	indices := make([]int, len(dets))
	for i := range indices {
		indices[i] = i
	}
	sort.Slice(indices, func(i, j int) bool {
		return dets[indices[i]].DecisionMargin > dets[indices[j]].DecisionMargin
	})
	return indices
}

// Deduplicate keeps the higher-decision_margin detection whenever two
// detections share an id and their centers lie within dedupEpsilon of
// each other, discarding the other. Greedy suppression by descending
// margin, same structure as a standard NMS sweep but keyed on (id,
// center distance) instead of box IoU.
func Deduplicate(dets []Detection, dedupEpsilon float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}

	order := sortByDecisionMargin(dets)
	suppressed := make([]bool, len(dets))
	kept := make([]Detection, 0, len(dets))

	for _, a := range order {
		if suppressed[a] {
			continue
		}
		kept = append(kept, dets[a])
		for _, b := range order {
			if suppressed[b] || a == b {
				continue
			}
			if dets[a].ID != dets[b].ID {
				continue
			}
			if geom.Dist(dets[a].Center, dets[b].Center) <= dedupEpsilon {
				suppressed[b] = true
			}
		}
	}
	return kept
}

// SortDeterministic orders dets by (id ascending, center.y ascending,
// center.x ascending) so the emitted list is stable under thread-count
// changes, per the ordering guarantee.
func SortDeterministic(dets []Detection) {
	sort.Slice(dets, func(i, j int) bool {
		a, b := dets[i], dets[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Center.Y != b.Center.Y {
			return a.Center.Y < b.Center.Y
		}
		return a.Center.X < b.Center.X
	})
}
