package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name apriltag searches for
	// (apriltag.yaml, apriltag.json, ...).
	ConfigFileName = "apriltag"

	// EnvPrefix namespaces environment-variable overrides, e.g.
	// APRILTAG_SERVER_PORT for server.port.
	EnvPrefix = "APRILTAG"
)

// Loader resolves configuration from a file, environment variables,
// and compiled-in defaults, each overriding the last. It wraps
// viper's global instance rather than a private one so that flags
// bound in the root cobra command remain visible to it.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader over viper's global instance.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// prepare wires the search path, environment handling, and defaults
// shared by every Load* variant that reads from the default search
// paths rather than an explicit file.
func (l *Loader) prepare() {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()
}

// decode reads whichever config source viper is currently pointed at
// (search paths or an explicit SetConfigFile) and unmarshals it. A
// missing config file is not an error here: defaults and environment
// overrides still apply on their own.
func (l *Loader) decode() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Load resolves configuration from the default search paths and
// validates it.
func (l *Loader) Load() (*Config, error) {
	l.prepare()
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation resolves configuration like Load but skips
// Validate, for callers that need to inspect a possibly-invalid
// configuration (config dump/debug tooling).
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	l.prepare()
	return l.decode()
}

// LoadWithFile resolves configuration from configFile instead of the
// default search paths, falling back to Load when configFile is
// empty.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	cfg, err := l.loadFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithFileWithoutValidation behaves like LoadWithFile but skips
// Validate.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if configFile == "" {
		return l.LoadWithoutValidation()
	}
	return l.loadFileWithoutValidation(configFile)
}

func (l *Loader) loadFileWithoutValidation(configFile string) (*Config, error) {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}
	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()
	return l.decode()
}

// Get returns a resolved configuration value by dotted key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// GetString returns a resolved configuration value as a string.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set overrides a configuration value at runtime (highest priority,
// above file/env/defaults).
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path viper actually read from, empty
// if none was found.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper exposes the underlying viper instance for call sites that
// need lower-level access (flag binding in the root command).
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths registers the directories searched for a config file,
// in priority order: working directory first, then user and system
// locations.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	l.v.AddConfigPath("/etc/apriltag")

	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		l.v.AddConfigPath(filepath.Join(configDir, "apriltag"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "apriltag"))
	}
}

// setupEnvironmentVariables makes APRILTAG_SERVER_PORT-style env vars
// override the matching dotted key (server.port).
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults seeds viper with DefaultConfig's values so every key has
// a fallback below file and environment overrides.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)
	l.v.SetDefault("families", defaults.Families)

	d := defaults.Detector
	l.v.SetDefault("detector.quad_decimate", d.QuadDecimate)
	l.v.SetDefault("detector.quad_sigma", d.QuadSigma)
	l.v.SetDefault("detector.nthreads", d.NThreads)
	l.v.SetDefault("detector.refine_edges", d.RefineEdges)
	l.v.SetDefault("detector.refine_decode", d.RefineDecode)
	l.v.SetDefault("detector.refine_pose", d.RefinePose)
	l.v.SetDefault("detector.use_contours", d.UseContours)
	l.v.SetDefault("detector.debug", d.Debug)
	l.v.SetDefault("detector.tile_size", d.TileSize)
	l.v.SetDefault("detector.min_contrast", d.MinContrast)
	l.v.SetDefault("detector.min_cluster_pixels", d.MinClusterPixels)
	l.v.SetDefault("detector.max_line_mse", d.MaxLineMSE)
	l.v.SetDefault("detector.epsilon_join", d.EpsilonJoin)
	l.v.SetDefault("detector.min_turn_deg", d.MinTurnDeg)
	l.v.SetDefault("detector.max_turn_deg", d.MaxTurnDeg)
	l.v.SetDefault("detector.min_area", d.MinArea)
	l.v.SetDefault("detector.min_perimeter", d.MinPerimeter)
	l.v.SetDefault("detector.max_perimeter", d.MaxPerimeter)
	l.v.SetDefault("detector.max_aspect", d.MaxAspect)
	l.v.SetDefault("detector.dedup_epsilon", d.DedupEpsilon)
	l.v.SetDefault("detector.simplify_epsilon", d.SimplifyEpsilon)
	l.v.SetDefault("detector.max_residual_frac", d.MaxResidualFrac)
	l.v.SetDefault("detector.min_component_pixels", d.MinComponentPixels)

	o := defaults.Output
	l.v.SetDefault("output.format", o.Format)
	l.v.SetDefault("output.overlay_box_color", o.OverlayBoxColor)
	l.v.SetDefault("output.overlay_poly_color", o.OverlayPolyColor)

	s := defaults.Server
	l.v.SetDefault("server.host", s.Host)
	l.v.SetDefault("server.port", s.Port)
	l.v.SetDefault("server.cors_origin", s.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", s.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", s.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", s.ShutdownTimeout)
	l.v.SetDefault("server.overlay_enabled", s.OverlayEnabled)

	rl := s.RateLimit
	l.v.SetDefault("server.rate_limit.enabled", rl.Enabled)
	l.v.SetDefault("server.rate_limit.requests_per_minute", rl.RequestsPerMinute)
	l.v.SetDefault("server.rate_limit.max_images_per_day", rl.MaxImagesPerDay)
	l.v.SetDefault("server.rate_limit.max_image_bytes_per_day", rl.MaxImageBytesPerDay)
}

// GetResolvedConfig returns every setting viper currently resolves,
// across file/env/defaults, keyed by dotted path — handy for a `config
// print` diagnostic command.
func (l *Loader) GetResolvedConfig() map[string]interface{} {
	return l.v.AllSettings()
}

// WriteConfigToFile dumps the current resolved configuration to
// filename in the format implied by its extension.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes a fresh config file containing only
// the compiled-in defaults, for users bootstrapping a config from
// scratch.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = "apriltag.yaml"
	}

	loader := NewLoader()
	loader.setDefaults()
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the directories a Loader checks for a
// config file, in the order it checks them.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "apriltag"))
	}
	if configDir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(configDir, "apriltag"))
	}
	paths = append(paths, "/etc/apriltag")

	return paths
}

// PrintConfigInfo writes a human-readable summary of how configuration
// was resolved, for `apriltag config info`-style diagnostics.
func (l *Loader) PrintConfigInfo() {
	fmt.Printf("config file used: %s\n", l.GetConfigFileUsed())
	fmt.Printf("config search paths: %v\n", GetConfigSearchPaths())
	fmt.Printf("environment prefix: %s\n", EnvPrefix)
}
