// Package tesseract adapts the gosseract Tesseract bindings to the ocr.Engine
// interface. gosseract clients are not safe for concurrent use, so the engine
// serializes recognition with a mutex.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/cardscan/internal/ocr"
)

// Config controls engine construction.
type Config struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string
	// Whitelist restricts recognized characters; empty means no restriction.
	Whitelist string
	// PageSegMode defaults to single-block, which suits cropped card regions.
	PageSegMode gosseract.PageSegMode
}

// DefaultConfig returns settings tuned for card text.
func DefaultConfig() Config {
	return Config{
		Language:    "eng",
		PageSegMode: gosseract.PSM_SINGLE_BLOCK,
	}
}

// Engine is a gosseract-backed ocr.Engine.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	closed bool
}

// New creates an engine with its own gosseract client.
func New(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language %q: %w", cfg.Language, err)
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(cfg.PageSegMode); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	return &Engine{client: client}, nil
}

// Recognize runs Tesseract over img. The image is PNG-encoded in memory and
// handed to the client, since gosseract has no raw pixel entry point.
func (e *Engine) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapCtxErr(err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image for ocr: %w", err)
	}

	type outcome struct {
		res *ocr.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			done <- outcome{err: ocr.ErrUnavailable}
			return
		}

		start := time.Now()
		if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
			done <- outcome{err: fmt.Errorf("set image: %w", err)}
			return
		}
		boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
		if err != nil {
			// geometry is optional; fall back to plain text
			slog.Debug("tesseract bounding boxes unavailable", "error", err)
		}
		text, err := e.client.Text()
		if err != nil {
			done <- outcome{err: fmt.Errorf("recognize text: %w", err)}
			return
		}

		words := make([]ocr.Word, 0, len(boxes))
		for _, b := range boxes {
			words = append(words, ocr.Word{
				Text:       b.Word,
				Confidence: b.Confidence,
				Box: &ocr.Box{
					Left:   b.Box.Min.X,
					Top:    b.Box.Min.Y,
					Right:  b.Box.Max.X,
					Bottom: b.Box.Max.Y,
				},
			})
		}
		slog.Debug("tesseract recognition finished",
			"duration_ms", time.Since(start).Milliseconds(),
			"words", len(words),
			"text_len", len(text))
		done <- outcome{res: &ocr.Result{Text: text, Words: words}}
	}()

	select {
	case <-ctx.Done():
		// the goroutine finishes on its own and releases the mutex
		return nil, mapCtxErr(ctx.Err())
	case out := <-done:
		return out.res, out.err
	}
}

// Close releases the underlying Tesseract client. Recognize calls after
// Close return ocr.ErrUnavailable.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.client.Close()
}

func mapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ocr.ErrTimeout
	}
	return err
}
