package server

import (
	"context"
	"encoding/json"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/cardscan/internal/preprocess"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketScanRequest is a scan request sent by the client. Image holds the
// encoded image bytes (base64 in the JSON wire form).
type WebSocketScanRequest struct {
	Type    string              `json:"type"` // "scan" or "rescan"
	Image   []byte              `json:"image,omitempty"`
	Options *preprocess.Options `json:"options,omitempty"`
}

// WebSocketScanResponse streams scan progress and the final result.
type WebSocketScanResponse struct {
	Type      string          `json:"type"`
	Status    string          `json:"status"` // "processing", "completed", "error"
	State     string          `json:"state,omitempty"`
	Progress  float64         `json:"progress,omitempty"`
	Result    *scanner.Result `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorType string          `json:"error_type,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// wsConnWriter serializes writes; the scan progress callback and the reply
// path share the connection.
type wsConnWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConnWriter) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return nil
}

// scanWebSocketHandler handles WebSocket connections for interactive
// scanning. Each connection gets its own scan session so progress streams
// never interleave between clients.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	session := scanner.NewSession(s.engine, s.store, s.scanCfg)
	s.handleWebSocketConnection(conn, session)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, session *scanner.Session) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	writer := &wsConnWriter{conn: conn}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(writer, session, data)
		}
	}
}

// handleWebSocketMessage processes one scan request.
func (s *Server) handleWebSocketMessage(writer *wsConnWriter, session *scanner.Session, data []byte) {
	var req WebSocketScanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(writer, "invalid_request", "Failed to parse request: "+err.Error())
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	session.SetProgress(scanner.ProgressFunc(func(state scanner.State, percent int) {
		_ = writer.writeJSON(WebSocketScanResponse{
			Type:      "scan_response",
			Status:    "processing",
			State:     string(state),
			Progress:  float64(percent) / 100,
			RequestID: requestID,
		})
	}))
	defer session.SetProgress(nil)

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout())
	defer cancel()

	start := time.Now()
	var result *scanner.Result
	var err error
	switch req.Type {
	case "scan":
		if len(req.Image) == 0 {
			s.sendWebSocketError(writer, "invalid_request", "No image data provided")
			return
		}
		if req.Options != nil {
			var img image.Image
			img, err = decodeImage(req.Image)
			if err == nil {
				result, err = session.ScanWithOptions(ctx, img, *req.Options)
			}
		} else {
			result, err = session.ScanBytes(ctx, req.Image)
		}
	case "rescan":
		if req.Options != nil {
			result, err = session.RescanWithOptions(ctx, *req.Options)
		} else {
			result, err = session.Rescan(ctx)
		}
	default:
		s.sendWebSocketError(writer, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}

	if err != nil {
		scanRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(writer, "processing_error", err.Error())
		return
	}

	scanRequestsTotal.WithLabelValues("websocket", string(result.State)).Inc()
	scanDuration.WithLabelValues("websocket").Observe(time.Since(start).Seconds())
	scanCandidates.Observe(float64(len(result.Matches)))

	_ = writer.writeJSON(WebSocketScanResponse{
		Type:      "scan_response",
		Status:    "completed",
		State:     string(result.State),
		Progress:  1.0,
		Result:    result,
		RequestID: requestID,
	})
}

// sendWebSocketError sends an error message over the connection.
func (s *Server) sendWebSocketError(writer *wsConnWriter, errorType, message string) {
	if err := writer.writeJSON(WebSocketScanResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	}); err != nil {
		slog.Error("Failed to send WebSocket error message", "error", err)
	}
}
