// Package cmd implements the apriltag command-line tool: detecting tags
// in still images, solving camera-relative pose, benchmarking the
// pipeline, and serving the HTTP/WebSocket detection API.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aprilgo/apriltag/internal/config"
	"github.com/aprilgo/apriltag/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// configLoader is the global configuration loader.
	configLoader *config.Loader
	// globalConfig is the global configuration.
	globalConfig *config.Config
	// cfgFile is the path to an explicit config file, if set via --config.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "apriltag",
	Short: "AprilTag visual fiducial detector",
	Long: `A Go implementation of the AprilTag visual fiducial detection
pipeline: thresholding, segmentation, quad assembly, decoding, and
optional sub-pixel refinement and pose estimation.

Examples:
  apriltag detect frame.png
  apriltag pose frame.png --tag-size 0.165 --fx 600 --fy 600 --cx 320 --cy 240
  apriltag serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.GitCommit, version.BuildDate),
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/apriltag, /etc/apriltag)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		level := slog.LevelInfo
		if globalConfig.Verbose {
			level = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				level = slog.LevelDebug
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and environment variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration, re-unmarshaling from viper so
// that flag values bound after the initial load (in a subcommand's init)
// are reflected.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	loader := GetConfigLoader()
	var cfg config.Config
	if err := loader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}

	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
