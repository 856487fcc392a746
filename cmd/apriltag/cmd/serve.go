package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aprilgo/apriltag/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd starts the HTTP/WebSocket detection API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for the detection API",
	Long: `Start an HTTP server exposing REST and WebSocket endpoints for tag
detection.

The server provides the following endpoints:
  GET  /v1/healthz      - health check
  GET  /v1/families     - list registered tag families
  POST /v1/detect       - detect tags in a single uploaded image
  POST /v1/detect/batch - detect tags across a batch of images
  GET  /v1/stream       - stream per-frame detections over a WebSocket

Examples:
  apriltag serve
  apriltag serve --port 8080
  apriltag serve --host 0.0.0.0 --families tag36h11,tag25h9`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}
		maxUploadMB := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadMB, _ = cmd.Flags().GetInt("max-upload-size")
		}
		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}
		overlayEnable := cfg.Server.OverlayEnabled
		if cmd.Flags().Changed("overlay-enable") {
			overlayEnable, _ = cmd.Flags().GetBool("overlay-enable")
		}
		overlayBox := cfg.Output.OverlayBoxColor
		if cmd.Flags().Changed("overlay-box-color") {
			overlayBox, _ = cmd.Flags().GetString("overlay-box-color")
		}
		overlayPoly := cfg.Output.OverlayPolyColor
		if cmd.Flags().Changed("overlay-poly-color") {
			overlayPoly, _ = cmd.Flags().GetString("overlay-poly-color")
		}

		rateLimitEnabled := cfg.Server.RateLimit.Enabled
		if cmd.Flags().Changed("rate-limit-enabled") {
			rateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
		}
		requestsPerMinute := cfg.Server.RateLimit.RequestsPerMinute
		if cmd.Flags().Changed("requests-per-minute") {
			requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
		}
		maxImagesPerDay := cfg.Server.RateLimit.MaxImagesPerDay
		if cmd.Flags().Changed("max-images-per-day") {
			maxImagesPerDay, _ = cmd.Flags().GetInt("max-images-per-day")
		}
		maxImageBytesPerDay := cfg.Server.RateLimit.MaxImageBytesPerDay
		if cmd.Flags().Changed("max-image-bytes-per-day") {
			maxImageBytesPerDay, _ = cmd.Flags().GetInt64("max-image-bytes-per-day")
		}

		families := cfg.Families
		if cmd.Flags().Changed("families") {
			raw, _ := cmd.Flags().GetString("families")
			families = nil
			for _, name := range strings.Split(raw, ",") {
				if name = strings.TrimSpace(name); name != "" {
					families = append(families, name)
				}
			}
		}

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		detCfg := cfg.ToDetectorConfig()
		if cmd.Flags().Changed("quad-decimate") {
			detCfg.QuadDecimate, _ = cmd.Flags().GetFloat64("quad-decimate")
		}
		if cmd.Flags().Changed("nthreads") {
			detCfg.NThreads, _ = cmd.Flags().GetInt("nthreads")
		}

		serverConfig := server.Config{
			Host:             host,
			Port:             port,
			CORSOrigin:       corsOrigin,
			MaxUploadMB:      int64(maxUploadMB),
			TimeoutSec:       timeout,
			DetectorConfig:   detCfg,
			Families:         families,
			OverlayEnabled:   overlayEnable,
			OverlayBoxColor:  overlayBox,
			OverlayPolyColor: overlayPoly,
			RateLimit: server.RateLimitConfig{
				Enabled:             rateLimitEnabled,
				RequestsPerMinute:   requestsPerMinute,
				MaxImagesPerDay:     maxImagesPerDay,
				MaxImageBytesPerDay: maxImageBytesPerDay,
			},
		}

		tagServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		defer func() { _ = tagServer.Close() }()

		mux := http.NewServeMux()
		tagServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("starting detection server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		slog.Info("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}

		slog.Info("cleaning up server resources")
		if err := tagServer.Close(); err != nil {
			slog.Error("server cleanup error", "error", err)
		}

		slog.Info("graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().String("families", "", "comma-separated tag families to register")
	serveCmd.Flags().Float64("quad-decimate", 1.0, "override detector quad_decimate")
	serveCmd.Flags().Int("nthreads", 1, "override detector worker pool size")
	serveCmd.Flags().Bool("overlay-enable", true, "enable overlay image responses")
	serveCmd.Flags().String("overlay-box-color", "#FF0000", "overlay box color (hex)")
	serveCmd.Flags().String("overlay-poly-color", "#00FF00", "overlay polygon color (hex)")
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	serveCmd.Flags().Int("max-images-per-day", 10000, "maximum images accepted per day per client")
	serveCmd.Flags().Int64("max-image-bytes-per-day", 1<<30, "maximum image bytes accepted per day per client")
}
