package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/imageio"
	"github.com/aprilgo/apriltag/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding health response: %v\n", err)
	}
}

// familiesHandler lists every tag family the package can register,
// regardless of which ones this Detector currently decodes.
func (s *Server) familiesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := family.Names()
	response := FamiliesResponse{Families: names, Count: len(names)}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding families response: %v\n", err)
	}
}

// detectHandler processes a single-image detection request.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return
	}

	img, err := imageio.DecodeGray8(data)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, "Invalid image format", http.StatusBadRequest)
		return
	}
	defer img.Release()

	start := time.Now()
	dets, err := s.det.Detect(img)
	duration := time.Since(start)

	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Detection failed: %v", err), http.StatusInternalServerError)
		return
	}

	detectRequestsTotal.WithLabelValues("image", "success").Inc()
	detectProcessingDuration.WithLabelValues("image").Observe(duration.Seconds())
	detectionsFound.WithLabelValues("image").Observe(float64(len(dets)))
	for _, d := range dets {
		detectionHamming.WithLabelValues(d.Family).Observe(float64(d.Hamming))
	}

	response := DetectResponse{
		Success:    true,
		Detections: dets,
		Width:      img.Width,
		Height:     img.Height,
		Processing: DetectResponseTimings{
			DetectionTimeMs: duration.Milliseconds(),
			TotalTimeMs:     duration.Milliseconds(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("error encoding detect response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := DetectResponse{Success: false, Error: message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("error writing error response", "error", err)
	}
}
