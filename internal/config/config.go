package config

import (
	"fmt"

	"github.com/MeKo-Tech/cardscan/internal/preprocess"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	opts := preprocess.DefaultOptions()
	return Config{
		CatalogPath: "cards.json",
		LogLevel:    "info",
		Verbose:     false,
		Preprocess: PreprocessConfig{
			Enabled:        true,
			Contrast:       opts.Contrast,
			Sharpen:        opts.Sharpen,
			Binarize:       opts.Binarize,
			Threshold:      opts.Threshold,
			NoiseReduction: opts.NoiseReduction,
			Blend:          opts.Blend,
		},
		Matcher: MatcherConfig{
			MinScore:        15,
			MaxResults:      5,
			FieldThreshold:  0.6,
			NumberThreshold: 0.7,
			NameThreshold:   0.7,
		},
		OCR: OCRConfig{
			Language:   "eng",
			TimeoutSec: 30,
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     20,
			TimeoutSec:      60,
			ShutdownTimeout: 10,
		},
		Batch: BatchConfig{
			Workers:         4,
			ContinueOnError: true,
			Format:          "text",
		},
		Fetch: FetchConfig{
			Game:   "riftbound",
			Output: "cards.json",
		},
	}
}

// Validate checks ranges. Preprocessing values outside their ranges are not
// an error (the pipeline clamps them); structural settings are.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn, or error)", c.LogLevel)
	}

	if c.Preprocess.Threshold < 0 || c.Preprocess.Threshold > 255 {
		return fmt.Errorf("preprocess.threshold %d out of range [0,255]", c.Preprocess.Threshold)
	}
	if c.Matcher.MaxResults < 1 {
		return fmt.Errorf("matcher.max_results must be at least 1, got %d", c.Matcher.MaxResults)
	}
	if c.Matcher.MinScore < 0 {
		return fmt.Errorf("matcher.min_score must not be negative, got %v", c.Matcher.MinScore)
	}
	for name, v := range map[string]float64{
		"matcher.field_threshold":  c.Matcher.FieldThreshold,
		"matcher.number_threshold": c.Matcher.NumberThreshold,
		"matcher.name_threshold":   c.Matcher.NameThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s %v out of range (0,1]", name, v)
		}
	}

	if c.OCR.TimeoutSec < 1 {
		return fmt.Errorf("ocr.timeout_sec must be at least 1, got %d", c.OCR.TimeoutSec)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range [1,65535]", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1, got %d", c.Server.MaxUploadMB)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	switch c.Batch.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("invalid batch.format %q (want text, json, or csv)", c.Batch.Format)
	}
	return nil
}
