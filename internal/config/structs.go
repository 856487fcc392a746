//nolint:lll
package config

// Config represents the complete configuration for the apriltag detector
// application. It includes settings for all commands (detect, pose,
// benchmark, serve) and supports loading from configuration files,
// environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Families lists the tag families the detector should register and
	// decode against. Empty means "tag36h11" only.
	Families []string `mapstructure:"families" yaml:"families" json:"families"`

	// Detector configuration
	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// DetectorConfig contains tag detection pipeline settings. Fields mirror
// detector.Config and its sub-configs, flattened for file/env/flag binding.
type DetectorConfig struct {
	QuadDecimate float64 `mapstructure:"quad_decimate" yaml:"quad_decimate" json:"quad_decimate"`
	QuadSigma    float64 `mapstructure:"quad_sigma" yaml:"quad_sigma" json:"quad_sigma"`
	NThreads     int     `mapstructure:"nthreads" yaml:"nthreads" json:"nthreads"`

	RefineEdges  bool `mapstructure:"refine_edges" yaml:"refine_edges" json:"refine_edges"`
	RefineDecode bool `mapstructure:"refine_decode" yaml:"refine_decode" json:"refine_decode"`
	RefinePose   bool `mapstructure:"refine_pose" yaml:"refine_pose" json:"refine_pose"`
	UseContours  bool `mapstructure:"use_contours" yaml:"use_contours" json:"use_contours"`
	Debug        bool `mapstructure:"debug" yaml:"debug" json:"debug"`

	// Threshold tuning
	TileSize    int `mapstructure:"tile_size" yaml:"tile_size" json:"tile_size"`
	MinContrast int `mapstructure:"min_contrast" yaml:"min_contrast" json:"min_contrast"`

	// Segmentation tuning (gradient-clustering path)
	MinClusterPixels int     `mapstructure:"min_cluster_pixels" yaml:"min_cluster_pixels" json:"min_cluster_pixels"`
	MaxLineMSE       float64 `mapstructure:"max_line_mse" yaml:"max_line_mse" json:"max_line_mse"`

	// Quad assembly tuning
	EpsilonJoin  float64 `mapstructure:"epsilon_join" yaml:"epsilon_join" json:"epsilon_join"`
	MinTurnDeg   float64 `mapstructure:"min_turn_deg" yaml:"min_turn_deg" json:"min_turn_deg"`
	MaxTurnDeg   float64 `mapstructure:"max_turn_deg" yaml:"max_turn_deg" json:"max_turn_deg"`
	MinArea      float64 `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	MinPerimeter float64 `mapstructure:"min_perimeter" yaml:"min_perimeter" json:"min_perimeter"`
	MaxPerimeter float64 `mapstructure:"max_perimeter" yaml:"max_perimeter" json:"max_perimeter"`
	MaxAspect    float64 `mapstructure:"max_aspect" yaml:"max_aspect" json:"max_aspect"`
	DedupEpsilon float64 `mapstructure:"dedup_epsilon" yaml:"dedup_epsilon" json:"dedup_epsilon"`

	// Contour-variant tuning (used only when UseContours is set)
	SimplifyEpsilon    float64 `mapstructure:"simplify_epsilon" yaml:"simplify_epsilon" json:"simplify_epsilon"`
	MaxResidualFrac    float64 `mapstructure:"max_residual_frac" yaml:"max_residual_frac" json:"max_residual_frac"`
	MinComponentPixels int     `mapstructure:"min_component_pixels" yaml:"min_component_pixels" json:"min_component_pixels"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format           string `mapstructure:"format" yaml:"format" json:"format"`
	File             string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir       string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	OverlayBoxColor  string `mapstructure:"overlay_box_color" yaml:"overlay_box_color" json:"overlay_box_color"`
	OverlayPolyColor string `mapstructure:"overlay_poly_color" yaml:"overlay_poly_color" json:"overlay_poly_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string           `mapstructure:"host" yaml:"host" json:"host"`
	Port            int              `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string           `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int              `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int              `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int              `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	OverlayEnabled  bool             `mapstructure:"overlay_enabled" yaml:"overlay_enabled" json:"overlay_enabled"`
	RateLimit       RateLimitSection `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitSection contains the HTTP server's per-client image quota:
// a burst limit on requests per minute plus a rolling daily cap on
// images and image bytes accepted for detection.
type RateLimitSection struct {
	Enabled             bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute   int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxImagesPerDay     int   `mapstructure:"max_images_per_day" yaml:"max_images_per_day" json:"max_images_per_day"`
	MaxImageBytesPerDay int64 `mapstructure:"max_image_bytes_per_day" yaml:"max_image_bytes_per_day" json:"max_image_bytes_per_day"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Families: []string{"tag36h11"},
		Detector: defaultDetectorConfig(),
		Output: OutputConfig{
			Format:           "json",
			OverlayBoxColor:  "#FF0000",
			OverlayPolyColor: "#00FF00",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			OverlayEnabled:  true,
			RateLimit: RateLimitSection{
				Enabled:             false,
				RequestsPerMinute:   60,
				MaxImagesPerDay:     10000,
				MaxImageBytesPerDay: 1 << 30,
			},
		},
	}
}

// defaultDetectorConfig mirrors detector.DefaultConfig and its sub-configs
// so the two stay in lockstep without importing the detector package
// purely for a struct-literal default (config must remain loadable even
// when the detector package's internal defaults drift).
func defaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		QuadDecimate:       1.0,
		QuadSigma:          0.0,
		NThreads:           1,
		RefineEdges:        true,
		RefineDecode:       false,
		RefinePose:         false,
		UseContours:        false,
		Debug:              false,
		TileSize:           4,
		MinContrast:        5,
		MinClusterPixels:   24,
		MaxLineMSE:         1.0,
		EpsilonJoin:        3.0,
		MinTurnDeg:         45,
		MaxTurnDeg:         135,
		MinArea:            24 * 24 / 2,
		MinPerimeter:       4 * 8,
		MaxPerimeter:       1e7,
		MaxAspect:          10,
		DedupEpsilon:       1.0,
		SimplifyEpsilon:    2.0,
		MaxResidualFrac:    0.05,
		MinComponentPixels: 24,
	}
}
