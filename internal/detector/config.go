package detector

import (
	"github.com/aprilgo/apriltag/internal/aterrors"
	"github.com/aprilgo/apriltag/internal/contour"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/aprilgo/apriltag/internal/segment"
	"github.com/aprilgo/apriltag/internal/threshold"
)

// Config holds a Detector's tunable parameters, all with defaults per
// the configuration option table. NewDetector validates these before
// constructing the pipeline.
type Config struct {
	QuadDecimate float64 // integer decimation factor; 1 disables
	QuadSigma    float64 // Gaussian blur sigma; negative sharpens instead
	NThreads     int     // worker pool size

	RefineEdges  bool
	RefineDecode bool
	RefinePose   bool
	UseContours  bool
	Debug        bool

	Threshold threshold.Config
	Segment   segment.Config
	Quad      quad.Config
	Contour   contour.Config
}

// DefaultConfig returns the detector's documented defaults.
func DefaultConfig() Config {
	return Config{
		QuadDecimate: 1.0,
		QuadSigma:    0.0,
		NThreads:     1,
		RefineEdges:  true,
		RefineDecode: false,
		RefinePose:   false,
		UseContours:  false,
		Debug:        false,
		Threshold:    threshold.DefaultConfig(),
		Segment:      segment.DefaultConfig(),
		Quad:         quad.DefaultConfig(),
		Contour:      contour.DefaultConfig(),
	}
}

// Validate checks the configuration for the constructor-time errors the
// error taxonomy requires: negative thread count, decimate < 1.
func (c Config) Validate() error {
	if c.NThreads < 1 {
		return aterrors.NewConfigError("nthreads", "must be >= 1")
	}
	if c.QuadDecimate < 1 {
		return aterrors.NewConfigError("quad_decimate", "must be >= 1")
	}
	if c.Segment.MinClusterPixels < 0 {
		return aterrors.NewConfigError("min_cluster_pixels", "must be >= 0")
	}
	if c.Quad.MinPerimeter > c.Quad.MaxPerimeter {
		return aterrors.NewConfigError("min_perim/max_perim", "min_perim must not exceed max_perim")
	}
	return nil
}
