// Package detector wires the thresholding, segmentation, quad assembly,
// decoding, refinement, and pose stages into a single Detect call,
// dispatching per-stripe segmentation and per-quad decoding across a
// worker pool owned by the Detector for its lifetime.
package detector

import (
	"log/slog"
	"sync"

	"github.com/aprilgo/apriltag/internal/aterrors"
	"github.com/aprilgo/apriltag/internal/contour"
	"github.com/aprilgo/apriltag/internal/decode"
	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/geom"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/pose"
	"github.com/aprilgo/apriltag/internal/profiler"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/aprilgo/apriltag/internal/refine"
	"github.com/aprilgo/apriltag/internal/segment"
	"github.com/aprilgo/apriltag/internal/threshold"
	"github.com/aprilgo/apriltag/internal/workpool"
)

// Detector holds the configuration, registered tag families, and worker
// pool for repeated Detect calls against a fixed configuration.
type Detector struct {
	cfg      Config
	pool     *workpool.Pool
	mu       sync.RWMutex
	families []*family.Family
}

// NewDetector validates cfg and constructs a Detector with a worker pool
// sized to cfg.NThreads.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("constructing detector", "nthreads", cfg.NThreads, "quad_decimate", cfg.QuadDecimate, "use_contours", cfg.UseContours)
	return &Detector{
		cfg:  cfg,
		pool: workpool.New(cfg.NThreads),
	}, nil
}

// AddFamily registers fam for decoding. Safe to call concurrently with
// Detect.
func (d *Detector) AddFamily(fam *family.Family) error {
	if fam == nil {
		return aterrors.NewConfigError("family", "must not be nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.families = append(d.families, fam)
	return nil
}

// Close releases the Detector's worker pool. The Detector must not be
// used afterward.
func (d *Detector) Close() error {
	d.pool.Close()
	return nil
}

// stripeCount picks how many horizontal stripes to split segmentation
// across, bounded by the configured thread count and the image height.
func stripeCount(nthreads, height int) int {
	if nthreads < 1 {
		nthreads = 1
	}
	if nthreads > height {
		nthreads = height
	}
	if nthreads < 1 {
		nthreads = 1
	}
	return nthreads
}

// Detect runs the full pipeline against img and returns the accepted,
// deduplicated, deterministically-sorted detections.
func (d *Detector) Detect(img *imagebuf.Image8) ([]Detection, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, aterrors.NewInputError("image must be non-nil with positive dimensions")
	}

	d.mu.RLock()
	families := append([]*family.Family(nil), d.families...)
	d.mu.RUnlock()
	if len(families) == 0 {
		return nil, aterrors.NewConfigError("families", "at least one family must be registered before Detect")
	}

	prof := profiler.New()

	working, decimateFactor := d.prepareImage(img, prof)
	defer func() {
		if working != img {
			working.Release()
		}
	}()

	stopThresh := prof.Start("threshold")
	th := threshold.Compute(working, d.cfg.Threshold)
	stopThresh()

	candidates := d.findQuads(th, working, prof)

	dets := d.decodeQuads(working, candidates, families, th, prof)

	scale := imagebuf.UndecimateScale(decimateFactor)
	if scale != 1 {
		undecimateInPlace(dets, scale)
	}

	dets = Deduplicate(dets, d.cfg.Quad.DedupEpsilon)
	SortDeterministic(dets)

	if d.cfg.Debug {
		slog.Debug("detect complete", "detections", len(dets), "profile", prof.String())
	}

	return dets, nil
}

// prepareImage applies decimation and the blur/sharpen knob, returning
// the image Detect should run the rest of the pipeline against and the
// decimation factor actually used (1 if none).
func (d *Detector) prepareImage(img *imagebuf.Image8, prof *profiler.Profile) (*imagebuf.Image8, int) {
	working := img
	factor := 1
	if d.cfg.QuadDecimate > 1 {
		factor = int(d.cfg.QuadDecimate)
		stop := prof.Start("decimate")
		working = imagebuf.Decimate(img, factor)
		stop()
	}

	switch {
	case d.cfg.QuadSigma > 0:
		stop := prof.Start("blur")
		blurred := imagebuf.GaussianBlur(working, d.cfg.QuadSigma)
		if working != img {
			working.Release()
		}
		working = blurred
		stop()
	case d.cfg.QuadSigma < 0:
		stop := prof.Start("sharpen")
		sharpened := imagebuf.Sharpen(working, -d.cfg.QuadSigma, 0.5)
		if working != img {
			working.Release()
		}
		working = sharpened
		stop()
	}

	return working, factor
}

// findQuads runs the configured segmentation variant and returns the
// assembled candidate quads. The gradient-clustering variant's
// segmentation stage is split into horizontal stripes and dispatched
// across the worker pool; quad assembly itself runs single-threaded
// against the merged segment arena, since cycle search needs the whole
// graph at once.
func (d *Detector) findQuads(th *threshold.Result, working *imagebuf.Image8, prof *profiler.Profile) []quad.Quad {
	if d.cfg.UseContours {
		stop := prof.Start("contour_extract")
		quads := contour.ExtractQuads(th, d.cfg.Contour)
		stop()
		return quads
	}

	stop := prof.Start("segment")
	clusters := d.buildClustersStriped(th, prof)
	segs := segment.FitSegments(clusters, d.cfg.Segment)
	stop()

	stopAssemble := prof.Start("quad_assemble")
	quads := quad.AssembleQuads(segs, d.cfg.Quad)
	stopAssemble()
	return quads
}

// buildClustersStriped splits th into roughly equal horizontal bands,
// runs segment.BuildClusters on each band in parallel (each band gets
// its own union-find), and merges the resulting cluster lists. Clusters
// never span a stripe boundary in this scheme: a tag whose border
// crosses a boundary is covered by the 1-row overlap between adjacent
// bands, matching the detector's single-pass connectivity within a
// band while keeping the union-find itself un-shared across goroutines.
func (d *Detector) buildClustersStriped(th *threshold.Result, prof *profiler.Profile) []segment.Cluster {
	n := stripeCount(d.cfg.NThreads, th.Height)
	if n <= 1 {
		return segment.BuildClusters(th, d.cfg.Segment)
	}

	bandHeight := (th.Height + n - 1) / n
	results := make([][]segment.Cluster, n)
	profiles := make([]*profiler.Profile, n)

	workpool.Parallel(d.pool, n, func(i int) {
		y0 := i * bandHeight
		y1 := min(y0+bandHeight, th.Height)
		if y0 >= y1 {
			return
		}
		overlapEnd := min(y1+1, th.Height)
		band := subThreshold(th, y0, overlapEnd)
		bandProf := profiler.New()
		results[i] = segment.BuildClusters(band, d.cfg.Segment)
		profiles[i] = bandProf
	})

	var merged []segment.Cluster
	for i, r := range results {
		merged = append(merged, r...)
		prof.Merge(profiles[i])
	}
	return merged
}

// subThreshold extracts the rows [y0,y1) of th as a standalone
// threshold.Result sharing the same tile grid, so per-band clustering
// sees consistent local thresholds with the full image.
func subThreshold(th *threshold.Result, y0, y1 int) *threshold.Result {
	height := y1 - y0
	labels := make([]threshold.Label, th.Width*height)
	copy(labels, th.Labels[y0*th.Width:y1*th.Width])
	return &threshold.Result{
		Width: th.Width, Height: height,
		TileSize: th.TileSize,
		TilesX:   th.TilesX, TilesY: th.TilesY,
		Labels:  labels,
		TileMin: th.TileMin, TileMax: th.TileMax,
	}
}

// decodeQuads runs refinement and decoding for every (quad, family)
// pair in parallel across the worker pool, keeping, per quad, the best
// scoring accepted decode across families.
func (d *Detector) decodeQuads(working *imagebuf.Image8, quads []quad.Quad, families []*family.Family, th *threshold.Result, prof *profiler.Profile) []Detection {
	stop := prof.Start("decode")
	defer stop()

	results := make([]*Detection, len(quads))

	workpool.Parallel(d.pool, len(quads), func(i int) {
		q := quads[i]
		if d.cfg.RefineEdges {
			q = refine.Edges(working, q)
		}

		mid := tileMidpoint(th, q.Center())

		var best decode.Result
		var haveBest bool
		for _, fam := range families {
			res, ok := decode.Decode(working, q, fam, mid)
			if !ok {
				prof.CountReject(aterrors.RejectBorderMismatch)
				continue
			}
			if d.cfg.RefineDecode {
				res = refine.Decode(working, q, fam, mid, res)
			}
			if !haveBest || res.DecisionMargin > best.DecisionMargin {
				best = res
				haveBest = true
			}
		}
		if !haveBest {
			return
		}

		det := Detection{
			Family:         best.Family.Name,
			ID:             best.ID,
			Hamming:        best.Hamming,
			Goodness:       best.Goodness,
			DecisionMargin: best.DecisionMargin,
			H:              best.H,
			Corners:        best.Corners,
		}
		det.Center = det.H.Apply(geom.Point{X: 0, Y: 0})
		results[i] = &det
	})

	dets := make([]Detection, 0, len(quads))
	for _, r := range results {
		if r != nil {
			dets = append(dets, *r)
		}
	}
	return dets
}

// tileMidpoint returns the local threshold at the tile containing p,
// used as the decoder's bit-classification boundary.
func tileMidpoint(th *threshold.Result, p geom.Point) float64 {
	x := int(p.X)
	y := int(p.Y)
	if x < 0 {
		x = 0
	}
	if x >= th.Width {
		x = th.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= th.Height {
		y = th.Height - 1
	}
	return th.ThresholdAt(x, y)
}

// undecimateInPlace scales every detection's corners, center, and
// homography back into the original (pre-decimation) image's coordinate
// space.
func undecimateInPlace(dets []Detection, scale float64) {
	scalePoint := func(p geom.Point) geom.Point { return geom.Point{X: p.X * scale, Y: p.Y * scale} }
	scaleH := geom.Homography{
		{scale, 0, 0},
		{0, scale, 0},
		{0, 0, 1},
	}
	for i := range dets {
		dets[i].Center = scalePoint(dets[i].Center)
		for j := range dets[i].Corners {
			dets[i].Corners[j] = scalePoint(dets[i].Corners[j])
		}
		dets[i].H = multiplyHomography(scaleH, dets[i].H)
	}
}

func multiplyHomography(a, b geom.Homography) geom.Homography {
	var out geom.Homography
	for r := range 3 {
		for c := range 3 {
			var sum float64
			for k := range 3 {
				sum += a[r][k] * b[k][c]
			}
			out[r][c] = sum
		}
	}
	return out
}

// SolvePose computes camera-relative pose for det given camera
// intrinsics and the tag's physical edge length, applying the
// reprojection-refinement pass when configured.
func (d *Detector) SolvePose(det Detection, intr pose.Intrinsics, tagSize float64) pose.Result {
	seed := pose.Solve(det.H, intr, tagSize)
	if !d.cfg.RefinePose {
		return seed
	}
	return refine.Pose(seed, intr, tagSize, det.Corners)
}
