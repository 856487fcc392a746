//nolint:lll
package config

import (
	"fmt"
	"strings"

	"github.com/aprilgo/apriltag/internal/contour"
	"github.com/aprilgo/apriltag/internal/detector"
	"github.com/aprilgo/apriltag/internal/quad"
	"github.com/aprilgo/apriltag/internal/segment"
	"github.com/aprilgo/apriltag/internal/server"
	"github.com/aprilgo/apriltag/internal/threshold"
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{"text", "json", "csv"}
	if c.Output.Format != "" && !contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if c.Detector.NThreads <= 0 {
		return fmt.Errorf("invalid detector nthreads: %d (must be positive)", c.Detector.NThreads)
	}
	if c.Detector.QuadDecimate < 1 {
		return fmt.Errorf("invalid detector quad_decimate: %.2f (must be >= 1)", c.Detector.QuadDecimate)
	}
	if c.Detector.MinPerimeter > c.Detector.MaxPerimeter {
		return fmt.Errorf("invalid detector min_perimeter/max_perimeter: %.2f exceeds %.2f", c.Detector.MinPerimeter, c.Detector.MaxPerimeter)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d (must be positive)", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}

	if len(c.Families) == 0 {
		return fmt.Errorf("at least one tag family must be configured")
	}

	return nil
}

// ToDetectorConfig converts the flattened configuration into the
// detector package's nested Config shape.
func (c *Config) ToDetectorConfig() detector.Config {
	d := c.Detector
	return detector.Config{
		QuadDecimate: d.QuadDecimate,
		QuadSigma:    d.QuadSigma,
		NThreads:     d.NThreads,
		RefineEdges:  d.RefineEdges,
		RefineDecode: d.RefineDecode,
		RefinePose:   d.RefinePose,
		UseContours:  d.UseContours,
		Debug:        d.Debug,
		Threshold: threshold.Config{
			TileSize:    d.TileSize,
			MinContrast: uint8(d.MinContrast),
		},
		Segment: segment.Config{
			MinClusterPixels: d.MinClusterPixels,
			MaxLineMSE:       d.MaxLineMSE,
		},
		Quad: quad.Config{
			EpsilonJoin:  d.EpsilonJoin,
			MinTurnDeg:   d.MinTurnDeg,
			MaxTurnDeg:   d.MaxTurnDeg,
			MinArea:      d.MinArea,
			MinPerimeter: d.MinPerimeter,
			MaxPerimeter: d.MaxPerimeter,
			MaxAspect:    d.MaxAspect,
			DedupEpsilon: d.DedupEpsilon,
		},
		Contour: contour.Config{
			SimplifyEpsilon:    d.SimplifyEpsilon,
			MaxResidualFrac:    d.MaxResidualFrac,
			MinComponentPixels: d.MinComponentPixels,
		},
	}
}

// ToServerConfig converts the loaded configuration into server.Config,
// ready to hand to server.NewServer.
func (c *Config) ToServerConfig() server.Config {
	return server.Config{
		Host:             c.Server.Host,
		Port:             c.Server.Port,
		CORSOrigin:       c.Server.CORSOrigin,
		MaxUploadMB:      int64(c.Server.MaxUploadMB),
		TimeoutSec:       c.Server.TimeoutSec,
		DetectorConfig:   c.ToDetectorConfig(),
		Families:         c.Families,
		OverlayEnabled:   c.Server.OverlayEnabled,
		OverlayBoxColor:  c.Output.OverlayBoxColor,
		OverlayPolyColor: c.Output.OverlayPolyColor,
		RateLimit: server.RateLimitConfig{
			Enabled:             c.Server.RateLimit.Enabled,
			RequestsPerMinute:   c.Server.RateLimit.RequestsPerMinute,
			MaxImagesPerDay:     c.Server.RateLimit.MaxImagesPerDay,
			MaxImageBytesPerDay: c.Server.RateLimit.MaxImageBytesPerDay,
		},
	}
}

// contains checks if a slice contains a string.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
