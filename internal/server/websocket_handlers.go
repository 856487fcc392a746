package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aprilgo/apriltag/internal/imageio"
	"github.com/gorilla/websocket"
)

// upgrader has reasonable defaults for a streaming detection feed.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamRequest is a single frame submitted over the detection stream.
type StreamRequest struct {
	Image []byte `json:"image"`
}

// StreamResponse reports the outcome for one streamed frame.
type StreamResponse struct {
	Status     string      `json:"status"` // "processing", "completed", "error"
	Detections interface{} `json:"detections,omitempty"`
	Error      string      `json:"error,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
}

// WebSocketConnWriter is the subset of *websocket.Conn the response
// helpers need, so tests can substitute a fake.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// detectWebSocketHandler upgrades the connection and streams per-frame
// detection results for as long as the client keeps sending frames.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to websocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("websocket connection established", "remote_addr", r.RemoteAddr)
	s.handleStreamConnection(conn)
}

// handleStreamConnection reads frames from conn until it closes,
// detecting tags in each and replying with the result.
func (s *Server) handleStreamConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("websocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleStreamMessage(conn, data)
		}
	}
}

// handleStreamMessage decodes and detects a single streamed frame.
func (s *Server) handleStreamMessage(conn WebSocketConnWriter, data []byte) {
	var req StreamRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendStreamError(conn, fmt.Sprintf("failed to parse request: %v", err), "")
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	if len(req.Image) == 0 {
		s.sendStreamError(conn, "no image data provided", requestID)
		return
	}

	img, err := imageio.DecodeGray8(req.Image)
	if err != nil {
		s.sendStreamError(conn, fmt.Sprintf("failed to decode image: %v", err), requestID)
		return
	}
	defer img.Release()

	start := time.Now()
	dets, err := s.det.Detect(img)
	duration := time.Since(start)

	if err != nil {
		detectRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendStreamError(conn, fmt.Sprintf("detection failed: %v", err), requestID)
		return
	}

	detectRequestsTotal.WithLabelValues("websocket", "success").Inc()
	detectProcessingDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	detectionsFound.WithLabelValues("websocket").Observe(float64(len(dets)))

	s.sendStreamResponse(conn, StreamResponse{
		Status:     "completed",
		Detections: dets,
		RequestID:  requestID,
	})
}

// sendStreamResponse sends a response message over the stream.
func (s *Server) sendStreamResponse(conn WebSocketConnWriter, response StreamResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("failed to marshal stream response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("failed to send stream message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendStreamError sends an error message over the stream.
func (s *Server) sendStreamError(conn WebSocketConnWriter, message, requestID string) {
	s.sendStreamResponse(conn, StreamResponse{Status: "error", Error: message, RequestID: requestID})
}
