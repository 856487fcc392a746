package segment

import (
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/threshold"
	"github.com/aprilgo/apriltag/internal/unionfind"
)

// Config controls cluster acceptance.
type Config struct {
	MinClusterPixels int     // reject clusters smaller than this (default 24)
	MaxLineMSE       float64 // MSE above which a cluster is split into segments
}

// DefaultConfig returns the detector's default segmentation thresholds.
func DefaultConfig() Config {
	return Config{MinClusterPixels: 24, MaxLineMSE: 1.0}
}

type edgeSample struct {
	pos    geom.Point
	gx, gy float64
}

// BuildClusters scans the thresholded image for 4-connected same-label
// regions, forms edge samples where a DARK pixel is adjacent to a LIGHT
// pixel, and clusters those edge samples by the pair of regions they
// separate. Clusters below MinClusterPixels are dropped.
func BuildClusters(th *threshold.Result, cfg Config) []Cluster {
	w, h := th.Width, th.Height
	regions := unionfind.New(w * h)
	defer regions.Release()

	idx := func(x, y int) int { return y*w + x }

	// First pass: union same-label 4-connected neighbours (right and down
	// to visit each edge once).
	for y := range h {
		for x := range w {
			lbl := th.LabelAt(x, y)
			if lbl == threshold.Skip {
				continue
			}
			if x+1 < w && th.LabelAt(x+1, y) == lbl {
				regions.Union(idx(x, y), idx(x+1, y))
			}
			if y+1 < h && th.LabelAt(x, y+1) == lbl {
				regions.Union(idx(x, y), idx(x, y+1))
			}
		}
	}

	// Second pass: collect edge samples and bucket them by the
	// (darkRoot, lightRoot) key. Two edge samples separating the same pair
	// of regions belong to the same tag-border fragment by construction,
	// so the key itself defines the union-find equivalence class.
	type key struct{ a, b int }
	samples := make([]edgeSample, 0, w*h/8)
	sampleKey := make([]key, 0, w*h/8)

	visitPair := func(darkX, darkY, lightX, lightY int) {
		dr := regions.Find(idx(darkX, darkY))
		lr := regions.Find(idx(lightX, lightY))
		mx := (float64(darkX) + float64(lightX)) / 2
		my := (float64(darkY) + float64(lightY)) / 2
		gx := float64(lightX - darkX)
		gy := float64(lightY - darkY)
		samples = append(samples, edgeSample{pos: geom.Point{X: mx, Y: my}, gx: gx, gy: gy})
		sampleKey = append(sampleKey, key{dr, lr})
	}

	for y := range h {
		for x := range w {
			lbl := th.LabelAt(x, y)
			if lbl == threshold.Skip {
				continue
			}
			if x+1 < w {
				rl := th.LabelAt(x+1, y)
				if rl != threshold.Skip && rl != lbl {
					if lbl == threshold.Dark {
						visitPair(x, y, x+1, y)
					} else {
						visitPair(x+1, y, x, y)
					}
				}
			}
			if y+1 < h {
				dl := th.LabelAt(x, y+1)
				if dl != threshold.Skip && dl != lbl {
					if lbl == threshold.Dark {
						visitPair(x, y, x, y+1)
					} else {
						visitPair(x, y+1, x, y)
					}
				}
			}
		}
	}

	// Group samples by their separating-region-pair key.
	byKey := make(map[key][]int)
	for i, k := range sampleKey {
		byKey[k] = append(byKey[k], i)
	}

	clusters := make([]Cluster, 0, len(byKey))
	for _, members := range byKey {
		if len(members) < cfg.MinClusterPixels {
			continue
		}
		var c Cluster
		for _, si := range members {
			s := samples[si]
			c.add(s.pos, s.gx, s.gy)
		}
		clusters = append(clusters, c)
	}
	return clusters
}
