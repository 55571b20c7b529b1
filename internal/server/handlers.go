package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/preprocess"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
	"github.com/MeKo-Tech/cardscan/internal/version"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// CatalogResponse is the /catalog payload.
type CatalogResponse struct {
	Cards   int    `json:"cards"`
	Version uint64 `json:"version"`
}

// ScanResponse wraps a scan result for the REST endpoint.
type ScanResponse struct {
	Success bool            `json:"success"`
	Result  *scanner.Result `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v, _, _ := version.Info()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: v,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, CatalogResponse{Cards: len(snap.Cards), Version: snap.Version})
}

// scanHandler accepts a multipart upload (field "image") or a raw image body
// and responds with the scan result. Preprocessing options can be overridden
// per request via query parameters.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := s.readImagePayload(r)
	if err != nil {
		writeScanError(w, http.StatusBadRequest, err)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	opts, hasOpts := scanOptionsFromQuery(r, s.scanCfg.Preprocess)
	start := time.Now()
	var result *scanner.Result
	if hasOpts {
		img, decErr := decodeImage(data)
		if decErr != nil {
			writeScanError(w, http.StatusBadRequest, decErr)
			return
		}
		result, err = s.session.ScanWithOptions(ctx, img, opts)
	} else {
		result, err = s.session.ScanBytes(ctx, data)
	}

	switch {
	case errors.Is(err, scanner.ErrScanInProgress):
		scanRequestsTotal.WithLabelValues("http", "busy").Inc()
		writeScanError(w, http.StatusConflict, err)
		return
	case errors.Is(err, scanner.ErrImageDecode):
		scanRequestsTotal.WithLabelValues("http", "error").Inc()
		writeScanError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		scanRequestsTotal.WithLabelValues("http", "error").Inc()
		slog.Error("scan request failed", "error", err, "client", getClientIP(r))
		writeScanError(w, http.StatusInternalServerError, err)
		return
	}

	scanRequestsTotal.WithLabelValues("http", string(result.State)).Inc()
	scanDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())
	scanCandidates.Observe(float64(len(result.Matches)))

	writeJSON(w, http.StatusOK, ScanResponse{Success: true, Result: result})
}

// readImagePayload pulls the image bytes out of a multipart form or the raw
// request body, bounded by the upload limit.
func (s *Server) readImagePayload(r *http.Request) ([]byte, error) {
	maxBytes := s.maxUploadMB << 20
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, errors.New("failed to parse multipart form: " + err.Error())
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.New("missing form file \"image\"")
		}
		defer func() { _ = file.Close() }()
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty request body")
	}
	return data, nil
}

// scanOptionsFromQuery builds one-off preprocessing options from query
// parameters, starting from the configured defaults. The second return is
// false when no option parameter was present.
func scanOptionsFromQuery(r *http.Request, base preprocess.Options) (preprocess.Options, bool) {
	q := r.URL.Query()
	has := false

	if v := q.Get("contrast"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			base.Contrast = f
			has = true
		}
	}
	if v := q.Get("sharpen"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			base.Sharpen = f
			has = true
		}
	}
	if v := q.Get("binarize"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			base.Binarize = b
			has = true
		}
	}
	if v := q.Get("threshold"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			base.Threshold = n
			has = true
		}
	}
	if v := q.Get("noise_reduction"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			base.NoiseReduction = b
			has = true
		}
	}
	return base, has
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scanner.ErrImageDecode, err)
	}
	return img, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeScanError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ScanResponse{Success: false, Error: err.Error()})
}
