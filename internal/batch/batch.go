// Package batch scans directories of card images through a shared OCR engine
// with a pool of worker sessions.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/ocr"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

// ProcessBatch scans every image found under imagePaths. Each worker drives
// its own session so scans never contend for the busy flag; the OCR engine
// and catalog store are shared.
func ProcessBatch(ctx context.Context, engine ocr.Engine, store *catalog.Store,
	imagePaths []string, cfg Config,
) (*Result, error) {
	files, err := discoverImageFiles(imagePaths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}

	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	startTime := time.Now()
	items, err := processImagesParallel(ctx, engine, store, files, cfg, workers)
	if err != nil {
		return nil, err
	}

	return &Result{
		Items:       items,
		Duration:    time.Since(startTime),
		WorkerCount: workers,
	}, nil
}

// processImagesParallel fans the file list out over worker sessions. Results
// keep the discovery order regardless of completion order.
func processImagesParallel(ctx context.Context, engine ocr.Engine, store *catalog.Store,
	files []string, cfg Config, workers int,
) ([]ItemResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		path  string
	}

	jobs := make(chan job)
	items := make([]ItemResult, len(files))

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := scanner.NewSession(engine, store, cfg.Scan)
			for j := range jobs {
				res, err := scanFile(ctx, session, j.path)
				items[j.index] = ItemResult{Path: j.path, Result: res, Err: err}
				if err != nil {
					slog.Warn("batch scan failed", "file", j.path, "error", err)
					if !cfg.ContinueOnError {
						errOnce.Do(func() {
							firstErr = fmt.Errorf("scan failed for %s: %w", j.path, err)
							cancel()
						})
						return
					}
				}
			}
		}()
	}

dispatch:
	for i, path := range files {
		select {
		case jobs <- job{index: i, path: path}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// scanFile loads one image from disk and runs it through the session.
func scanFile(ctx context.Context, session *scanner.Session, path string) (*scanner.Result, error) {
	img, _, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return session.Scan(ctx, img)
}
