// Package threshold implements the adaptive tile-based thresholder
// described in the detector's adaptive-threshold stage: per-tile
// min/max intensity, smoothed across a 3x3 tile neighbourhood, yielding
// a three-valued DARK/LIGHT/SKIP classification at full resolution.
package threshold

import "github.com/aprilgo/apriltag/internal/imagebuf"

// Label is the three-valued classification of a pixel.
type Label uint8

const (
	// Skip marks a pixel whose tile has too little contrast to classify;
	// it acts as a wildcard that neither starts nor breaks edges.
	Skip Label = iota
	Dark
	Light
)

// Config controls tiling and the minimum contrast required to classify a
// tile's pixels instead of skipping them.
type Config struct {
	TileSize    int   // tile edge length in pixels, post-decimation (default 4)
	MinContrast uint8 // minimum (max-min) tile contrast to avoid SKIP (default 5)
}

// DefaultConfig returns the detector's default thresholding parameters.
func DefaultConfig() Config {
	return Config{TileSize: 4, MinContrast: 5}
}

// Result holds the per-pixel labels plus the smoothed per-tile min/max,
// which the decoder reuses to classify sampled bit centers against the
// same local threshold used during segmentation.
type Result struct {
	Width, Height int
	TileSize      int
	TilesX, TilesY int
	Labels        []Label  // Width*Height, row-major
	TileMin       []uint8  // TilesX*TilesY, smoothed
	TileMax       []uint8  // TilesX*TilesY, smoothed
}

// LabelAt returns the classification for pixel (x,y).
func (r *Result) LabelAt(x, y int) Label {
	return r.Labels[y*r.Width+x]
}

// ThresholdAt returns the local binarization threshold ((min+max)/2) for
// the tile containing pixel (x,y), used by the decoder to classify bit
// samples taken at arbitrary (possibly non-integer-tile) image locations.
func (r *Result) ThresholdAt(x, y int) float64 {
	tx := clampTile(x/r.TileSize, r.TilesX)
	ty := clampTile(y/r.TileSize, r.TilesY)
	idx := ty*r.TilesX + tx
	return (float64(r.TileMin[idx]) + float64(r.TileMax[idx])) / 2
}

// ContrastAt returns the smoothed (max-min) contrast for the tile
// containing pixel (x,y).
func (r *Result) ContrastAt(x, y int) uint8 {
	tx := clampTile(x/r.TileSize, r.TilesX)
	ty := clampTile(y/r.TileSize, r.TilesY)
	idx := ty*r.TilesX + tx
	return r.TileMax[idx] - r.TileMin[idx]
}

func clampTile(t, n int) int {
	if t < 0 {
		return 0
	}
	if t >= n {
		return n - 1
	}
	return t
}

// Compute runs the adaptive thresholder over img with the given config.
func Compute(img *imagebuf.Image8, cfg Config) *Result {
	if cfg.TileSize < 1 {
		cfg.TileSize = 4
	}
	tilesX := (img.Width + cfg.TileSize - 1) / cfg.TileSize
	tilesY := (img.Height + cfg.TileSize - 1) / cfg.TileSize

	rawMin := make([]uint8, tilesX*tilesY)
	rawMax := make([]uint8, tilesX*tilesY)
	for i := range rawMin {
		rawMin[i] = 255
		rawMax[i] = 0
	}

	for y := range img.Height {
		ty := y / cfg.TileSize
		for x := range img.Width {
			tx := x / cfg.TileSize
			idx := ty*tilesX + tx
			v := img.At(x, y)
			if v < rawMin[idx] {
				rawMin[idx] = v
			}
			if v > rawMax[idx] {
				rawMax[idx] = v
			}
		}
	}

	smin := smoothTiles(rawMin, tilesX, tilesY, true)
	smax := smoothTiles(rawMax, tilesX, tilesY, false)

	res := &Result{
		Width: img.Width, Height: img.Height,
		TileSize: cfg.TileSize,
		TilesX:   tilesX, TilesY: tilesY,
		Labels:  make([]Label, img.Width*img.Height),
		TileMin: smin, TileMax: smax,
	}

	for y := range img.Height {
		ty := y / cfg.TileSize
		for x := range img.Width {
			tx := x / cfg.TileSize
			idx := ty*tilesX + tx
			minV, maxV := smin[idx], smax[idx]
			var label Label
			switch {
			case maxV-minV < cfg.MinContrast:
				label = Skip
			case float64(img.At(x, y)) > (float64(minV)+float64(maxV))/2:
				label = Light
			default:
				label = Dark
			}
			res.Labels[y*img.Width+x] = label
		}
	}

	return res
}

// smoothTiles takes the min (or max) of each tile's 3x3 neighbourhood,
// per the detector's "smooth the per-tile min and max" step.
func smoothTiles(vals []uint8, tilesX, tilesY int, isMin bool) []uint8 {
	out := make([]uint8, len(vals))
	for ty := range tilesY {
		for tx := range tilesX {
			best := vals[ty*tilesX+tx]
			for dy := -1; dy <= 1; dy++ {
				ny := ty + dy
				if ny < 0 || ny >= tilesY {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := tx + dx
					if nx < 0 || nx >= tilesX {
						continue
					}
					v := vals[ny*tilesX+nx]
					if isMin {
						if v < best {
							best = v
						}
					} else if v > best {
						best = v
					}
				}
			}
			out[ty*tilesX+tx] = best
		}
	}
	return out
}
