// Package server exposes the scan pipeline over HTTP: a multipart scan
// endpoint, catalog info, health, Prometheus metrics, and a WebSocket
// endpoint that streams scan progress.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/ocr"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
)

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
}

// Server holds the HTTP server state and dependencies. REST scans share one
// session, so overlapping uploads get 409 instead of queueing; each
// WebSocket connection gets a session of its own for isolated progress.
type Server struct {
	engine      ocr.Engine
	store       *catalog.Store
	scanCfg     scanner.Config
	session     *scanner.Session
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// NewServer creates a scan server around an OCR engine and catalog store.
func NewServer(engine ocr.Engine, store *catalog.Store, scanCfg scanner.Config, cfg Config) *Server {
	return &Server{
		engine:      engine,
		store:       store,
		scanCfg:     scanCfg,
		session:     scanner.NewSession(engine, store, scanCfg),
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/catalog", s.corsMiddleware(s.catalogHandler))
	mux.HandleFunc("/scan", s.corsMiddleware(s.scanHandler))
	mux.HandleFunc("/ws/scan", s.scanWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// requestTimeout returns the per-scan deadline.
func (s *Server) requestTimeout() time.Duration {
	if s.timeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(s.timeoutSec) * time.Second
}
