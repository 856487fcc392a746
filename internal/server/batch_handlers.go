package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aprilgo/apriltag/internal/detector"
	"github.com/aprilgo/apriltag/internal/imageio"
)

// BatchDetectRequest is a batch of images to detect in a single call.
type BatchDetectRequest struct {
	Images []BatchImageRequest `json:"images"`
}

// BatchImageRequest is one image in a batch request.
type BatchImageRequest struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// BatchDetectResponse is the response for batch detection.
type BatchDetectResponse struct {
	Success bool                   `json:"success"`
	Results []BatchDetectResult    `json:"results,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Summary BatchProcessingSummary `json:"summary"`
}

// BatchDetectResult is a single result within a batch response.
type BatchDetectResult struct {
	Name       string                `json:"name"`
	Success    bool                  `json:"success"`
	Detections []detector.Detection  `json:"detections,omitempty"`
	Error      string                `json:"error,omitempty"`
	Duration   float64               `json:"duration_seconds"`
}

// BatchProcessingSummary provides summary statistics for batch processing.
type BatchProcessingSummary struct {
	TotalItems    int     `json:"total_items"`
	Successful    int     `json:"successful"`
	Failed        int     `json:"failed"`
	TotalDuration float64 `json:"total_duration_seconds"`
	AvgItemTime   float64 `json:"avg_item_time_seconds"`
}

const maxBatchItems = 10

// batchDetectHandler processes a batch of images in one JSON request,
// running each through the server's shared Detector.
func (s *Server) batchDetectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchDetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Failed to parse JSON request: %v", err), http.StatusBadRequest)
		return
	}

	if len(req.Images) == 0 {
		s.writeErrorResponse(w, "No images provided in batch request", http.StatusBadRequest)
		return
	}
	if len(req.Images) > maxBatchItems {
		s.writeErrorResponse(w, fmt.Sprintf("Batch size too large (maximum %d items)", maxBatchItems), http.StatusBadRequest)
		return
	}

	start := time.Now()
	results, summary := s.processBatch(req.Images)
	totalDuration := time.Since(start)

	summary.TotalDuration = totalDuration.Seconds()
	if summary.TotalItems > 0 {
		summary.AvgItemTime = summary.TotalDuration / float64(summary.TotalItems)
	}

	detectRequestsTotal.WithLabelValues("batch", "success").Inc()
	detectProcessingDuration.WithLabelValues("batch").Observe(totalDuration.Seconds())

	response := BatchDetectResponse{
		Success: summary.Failed == 0,
		Results: results,
		Summary: summary,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding batch detect response: %v\n", err)
	}
}

// processBatch detects tags in every image in items, sequentially
// against the server's shared Detector.
func (s *Server) processBatch(items []BatchImageRequest) ([]BatchDetectResult, BatchProcessingSummary) {
	results := make([]BatchDetectResult, 0, len(items))
	summary := BatchProcessingSummary{TotalItems: len(items)}

	for _, item := range items {
		result := s.processBatchImage(item)
		results = append(results, result)
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return results, summary
}

// processBatchImage decodes and detects a single batch item.
func (s *Server) processBatchImage(item BatchImageRequest) BatchDetectResult {
	result := BatchDetectResult{Name: item.Name}

	if len(item.Data) == 0 {
		result.Error = "No image data provided"
		return result
	}

	img, err := imageio.DecodeGray8(item.Data)
	if err != nil {
		result.Error = fmt.Sprintf("Failed to decode image: %v", err)
		return result
	}
	defer img.Release()

	start := time.Now()
	dets, err := s.det.Detect(img)
	result.Duration = time.Since(start).Seconds()

	if err != nil {
		result.Error = fmt.Sprintf("Detection failed: %v", err)
		return result
	}

	result.Success = true
	result.Detections = dets
	detectionsFound.WithLabelValues("batch_image").Observe(float64(len(dets)))
	return result
}
