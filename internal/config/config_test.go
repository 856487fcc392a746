package config

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level 'info', got %s", cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("expected verbose to be false")
	}
	if len(cfg.Families) != 1 || cfg.Families[0] != "tag36h11" {
		t.Errorf("expected families [tag36h11], got %v", cfg.Families)
	}

	if cfg.Detector.NThreads != 1 {
		t.Errorf("expected nthreads 1, got %d", cfg.Detector.NThreads)
	}
	if cfg.Detector.QuadDecimate != 1.0 {
		t.Errorf("expected quad_decimate 1.0, got %f", cfg.Detector.QuadDecimate)
	}
	if !cfg.Detector.RefineEdges {
		t.Error("expected refine_edges to default true")
	}
	if cfg.Detector.RefineDecode || cfg.Detector.RefinePose || cfg.Detector.UseContours || cfg.Detector.Debug {
		t.Error("expected refine_decode/refine_pose/use_contours/debug to default false")
	}

	if cfg.Output.Format != "json" {
		t.Errorf("expected output format 'json', got %s", cfg.Output.Format)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("expected server host 'localhost', got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.RateLimit.Enabled {
		t.Error("expected rate limiting to default off")
	}
}

func TestConfigValidate_AcceptsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestConfigValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose-ish"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestConfigValidate_RejectsZeroThreads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.NThreads = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero nthreads")
	}
}

func TestConfigValidate_RejectsSubOneDecimate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.QuadDecimate = 0.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for quad_decimate below 1")
	}
}

func TestConfigValidate_RejectsPerimeterInversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.MinPerimeter = cfg.Detector.MaxPerimeter + 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min_perimeter exceeds max_perimeter")
	}
}

func TestConfigValidate_RejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestConfigValidate_RejectsNoFamilies(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Families = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no families are configured")
	}
}

func TestToDetectorConfig_CarriesFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Detector.QuadSigma = -0.5
	cfg.Detector.UseContours = true

	dc := cfg.ToDetectorConfig()
	if dc.QuadSigma != -0.5 {
		t.Errorf("expected quad_sigma -0.5, got %f", dc.QuadSigma)
	}
	if !dc.UseContours {
		t.Error("expected use_contours to carry through")
	}
	if dc.Threshold.TileSize != cfg.Detector.TileSize {
		t.Errorf("expected tile_size %d, got %d", cfg.Detector.TileSize, dc.Threshold.TileSize)
	}
	if dc.Quad.DedupEpsilon != cfg.Detector.DedupEpsilon {
		t.Errorf("expected dedup_epsilon %f, got %f", cfg.Detector.DedupEpsilon, dc.Quad.DedupEpsilon)
	}
	if err := dc.Validate(); err != nil {
		t.Errorf("expected converted detector config to validate, got %v", err)
	}
}

func TestToServerConfig_CarriesRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerMinute = 5

	sc := cfg.ToServerConfig()
	if !sc.RateLimit.Enabled {
		t.Error("expected rate limit enabled to carry through")
	}
	if sc.RateLimit.RequestsPerMinute != 5 {
		t.Errorf("expected requests_per_minute 5, got %d", sc.RateLimit.RequestsPerMinute)
	}
	if sc.MaxUploadMB != int64(cfg.Server.MaxUploadMB) {
		t.Errorf("expected max_upload_mb %d, got %d", cfg.Server.MaxUploadMB, sc.MaxUploadMB)
	}
}
