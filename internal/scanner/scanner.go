// Package scanner wires preprocessing, OCR, field extraction, and catalog
// matching into a single scan pipeline. A Session runs exactly one scan at a
// time and retains its input so a scan can be replayed with different
// preprocessing settings.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/common"
	"github.com/MeKo-Tech/cardscan/internal/extract"
	"github.com/MeKo-Tech/cardscan/internal/match"
	"github.com/MeKo-Tech/cardscan/internal/ocr"
	"github.com/MeKo-Tech/cardscan/internal/preprocess"
)

// State names the pipeline stage a session is in. Found and NotFound are the
// terminal outcomes of a completed scan.
type State string

const (
	StateIdle          State = "idle"
	StatePreprocessing State = "preprocessing"
	StateRecognizing   State = "recognizing"
	StateExtracting    State = "extracting"
	StateMatching      State = "matching"
	StateFound         State = "found"
	StateNotFound      State = "not_found"
)

// Stage progress percentages reported to callbacks.
const (
	percentPreprocess = 5
	percentRecognize  = 30
	percentExtract    = 70
	percentMatch      = 85
	percentDone       = 100
)

// Config holds everything a session needs besides its collaborators.
type Config struct {
	// PreprocessEnabled turns the filter chain off entirely when false;
	// the raw image goes straight to OCR.
	PreprocessEnabled bool
	Preprocess        preprocess.Options
	Match             match.Config
}

// DefaultConfig enables preprocessing with the tuned defaults.
func DefaultConfig() Config {
	return Config{
		PreprocessEnabled: true,
		Preprocess:        preprocess.DefaultOptions(),
		Match:             match.DefaultConfig(),
	}
}

// Timing records wall-clock duration per stage.
type Timing struct {
	Preprocess time.Duration `json:"preprocess"`
	Recognize  time.Duration `json:"recognize"`
	Match      time.Duration `json:"match"`
	Total      time.Duration `json:"total"`
}

// Result is the complete outcome of one scan. An empty Matches slice with a
// nil BestMatch means the card was not identified; that is not an error.
type Result struct {
	Text           string            `json:"text"`
	Words          []ocr.Word        `json:"words,omitempty"`
	Confidence     float64           `json:"confidence"`
	Fields         extract.Fields    `json:"fields"`
	Matches        []match.Candidate `json:"matches"`
	BestMatch      *match.Candidate  `json:"bestMatch,omitempty"`
	State          State             `json:"state"`
	CatalogVersion uint64            `json:"catalogVersion"`
	Timing         Timing            `json:"timing"`
}

// Session is the per-client scan pipeline. Overlapping Scan calls are
// rejected with ErrScanInProgress; everything else is safe for concurrent
// use.
type Session struct {
	engine  ocr.Engine
	store   *catalog.Store
	cfg     Config
	matcher *match.Matcher

	busy atomic.Bool

	mu        sync.Mutex
	state     State
	progress  ProgressCallback
	lastImage image.Image
	lastOpts  preprocess.Options
	hasPrior  bool
}

// NewSession creates a session around an OCR engine and a catalog store.
func NewSession(engine ocr.Engine, store *catalog.Store, cfg Config) *Session {
	return &Session{
		engine:   engine,
		store:    store,
		cfg:      cfg,
		matcher:  match.New(cfg.Match),
		state:    StateIdle,
		progress: NoOpProgress{},
	}
}

// SetProgress installs the progress callback, replacing any previous one.
// Pass nil to silence progress again.
func (s *Session) SetProgress(cb ProgressCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cb == nil {
		cb = NoOpProgress{}
	}
	s.progress = cb
}

// State returns the stage the session is currently in.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a scan is currently running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Scan runs the full pipeline on img using the session's configured
// preprocessing options.
func (s *Session) Scan(ctx context.Context, img image.Image) (*Result, error) {
	return s.scan(ctx, img, s.cfg.Preprocess)
}

// ScanWithOptions runs the pipeline with one-off preprocessing options,
// leaving the session configuration untouched.
func (s *Session) ScanWithOptions(ctx context.Context, img image.Image, opts preprocess.Options) (*Result, error) {
	return s.scan(ctx, img, opts)
}

// ScanBytes decodes encoded image data and scans it. Undecodable input
// returns an error wrapping ErrImageDecode.
func (s *Session) ScanBytes(ctx context.Context, data []byte) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return s.Scan(ctx, img)
}

// Rescan replays the previous input, typically after the caller adjusted
// preprocessing options via RescanWithOptions or the catalog was reloaded.
func (s *Session) Rescan(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	img, opts, ok := s.lastImage, s.lastOpts, s.hasPrior
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoPriorScan
	}
	return s.scan(ctx, img, opts)
}

// RescanWithOptions replays the previous input with new preprocessing
// options.
func (s *Session) RescanWithOptions(ctx context.Context, opts preprocess.Options) (*Result, error) {
	s.mu.Lock()
	img, ok := s.lastImage, s.hasPrior
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoPriorScan
	}
	return s.scan(ctx, img, opts)
}

func (s *Session) scan(ctx context.Context, img image.Image, opts preprocess.Options) (*Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.busy.Store(false)
	defer s.setState(StateIdle)

	s.mu.Lock()
	s.lastImage = img
	s.lastOpts = opts
	s.hasPrior = true
	cb := s.progress
	s.mu.Unlock()

	snapshot := s.store.Snapshot()
	totalTimer := common.NewTimer()
	result := &Result{CatalogVersion: snapshot.Version}

	// preprocess
	s.setState(StatePreprocessing)
	cb.OnStage(StatePreprocessing, percentPreprocess)
	preTimer := common.NewTimer()
	input := img
	if s.cfg.PreprocessEnabled {
		input = preprocess.New(opts).Run(img)
	}
	result.Timing.Preprocess = preTimer.Stop()
	if err := ctx.Err(); err != nil {
		cb.OnError(err)
		return nil, err
	}

	// recognize
	s.setState(StateRecognizing)
	cb.OnStage(StateRecognizing, percentRecognize)
	recTimer := common.NewTimer()
	ocrResult, err := s.engine.Recognize(ctx, input)
	result.Timing.Recognize = recTimer.Stop()
	if err != nil {
		scanErr := &ScanError{Stage: StateRecognizing, Err: err}
		cb.OnError(scanErr)
		return nil, scanErr
	}

	// extract
	s.setState(StateExtracting)
	cb.OnStage(StateExtracting, percentExtract)
	result.Text = ocrResult.Text
	result.Words = ocrResult.Words
	result.Confidence = ocr.AverageConfidence(ocrResult.Words)
	result.Fields = extract.FromText(ocrResult.Text)

	// match
	s.setState(StateMatching)
	cb.OnStage(StateMatching, percentMatch)
	matchTimer := common.NewTimer()
	result.Matches = s.matcher.Rank(snapshot.Cards, result.Text, result.Fields)
	result.Timing.Match = matchTimer.Stop()

	if len(result.Matches) > 0 {
		result.BestMatch = &result.Matches[0]
		result.State = StateFound
	} else {
		result.State = StateNotFound
	}
	result.Timing.Total = totalTimer.Stop()

	s.setState(result.State)
	cb.OnStage(result.State, percentDone)
	cb.OnComplete(result)

	slog.Debug("scan finished",
		"state", string(result.State),
		"matches", len(result.Matches),
		"total_ms", result.Timing.Total.Milliseconds())
	return result, nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
