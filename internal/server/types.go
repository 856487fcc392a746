package server

import (
	"net/http"

	"github.com/aprilgo/apriltag/internal/detector"
	"github.com/aprilgo/apriltag/internal/family"
)

// Server holds the HTTP server state and dependencies: a single shared
// Detector (its worker pool already handles concurrent Detect calls
// safely, just with coarser synchronization across overlapping
// requests), plus the ambient CORS/upload/rate-limit configuration.
type Server struct {
	det              *detector.Detector
	corsOrigin       string
	maxUploadMB      int64
	timeoutSec       int
	overlayEnabled   bool
	overlayBoxColor  string
	overlayPolyColor string
	imageQuota       *imageQuota
}

// Config holds server configuration.
type Config struct {
	Host             string
	Port             int
	CORSOrigin       string
	MaxUploadMB      int64
	TimeoutSec       int
	DetectorConfig   detector.Config
	Families         []string
	OverlayEnabled   bool
	OverlayBoxColor  string
	OverlayPolyColor string
	RateLimit        RateLimitConfig
}

// RateLimitConfig configures the server's per-client image quota.
type RateLimitConfig struct {
	Enabled             bool
	RequestsPerMinute   int
	MaxImagesPerDay     int
	MaxImageBytesPerDay int64
}

// HealthResponse is the /v1/healthz payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// FamiliesResponse lists the tag families the server's Detector
// currently decodes.
type FamiliesResponse struct {
	Families []string `json:"families"`
	Count    int      `json:"count"`
}

// DetectResponse is the /v1/detect JSON payload.
type DetectResponse struct {
	Success    bool                  `json:"success"`
	Detections []detector.Detection  `json:"detections,omitempty"`
	Width      int                   `json:"width,omitempty"`
	Height     int                   `json:"height,omitempty"`
	Error      string                `json:"error,omitempty"`
	Processing DetectResponseTimings `json:"processing"`
}

// DetectResponseTimings reports per-request wall-clock time.
type DetectResponseTimings struct {
	DetectionTimeMs int64 `json:"detection_time_ms"`
	TotalTimeMs     int64 `json:"total_time_ms"`
}

// NewServer constructs the Detector from config and returns a Server
// ready to have routes registered on a mux.
func NewServer(config Config) (*Server, error) {
	det, err := detector.NewDetector(config.DetectorConfig)
	if err != nil {
		return nil, err
	}

	names := config.Families
	if len(names) == 0 {
		names = []string{"tag36h11"}
	}
	for _, name := range names {
		fam, err := family.Lookup(name)
		if err != nil {
			det.Close()
			return nil, err
		}
		if err := det.AddFamily(fam); err != nil {
			det.Close()
			return nil, err
		}
	}

	var quota *imageQuota
	if config.RateLimit.Enabled {
		quota = newImageQuota(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.MaxImagesPerDay,
			config.RateLimit.MaxImageBytesPerDay,
		)
	}

	return &Server{
		det:              det,
		corsOrigin:       config.CORSOrigin,
		maxUploadMB:      config.MaxUploadMB,
		timeoutSec:       config.TimeoutSec,
		overlayEnabled:   config.OverlayEnabled,
		overlayBoxColor:  config.OverlayBoxColor,
		overlayPolyColor: config.OverlayPolyColor,
		imageQuota:       quota,
	}, nil
}

// Close releases the Server's Detector resources.
func (s *Server) Close() error {
	return s.det.Close()
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/families", s.corsMiddleware(s.familiesHandler))
	mux.HandleFunc("/v1/detect", s.corsMiddleware(s.rateLimitMiddleware(s.detectHandler)))
	mux.HandleFunc("/v1/detect/batch", s.corsMiddleware(s.rateLimitMiddleware(s.batchDetectHandler)))
	mux.HandleFunc("/v1/stream", s.detectWebSocketHandler)
}
