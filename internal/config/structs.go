// Package config defines the application configuration and its loader.
// Values come from defaults, an optional config file, CARDSCAN_* environment
// variables, and command-line flags, in increasing priority.
package config

import (
	"github.com/MeKo-Tech/cardscan/internal/match"
	"github.com/MeKo-Tech/cardscan/internal/preprocess"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
)

// Config is the root configuration structure.
type Config struct {
	// CatalogPath points at the local card catalog (.json, .yaml, .yml).
	CatalogPath string `mapstructure:"catalog_path" yaml:"catalog_path" json:"catalog_path"`
	LogLevel    string `mapstructure:"log_level"    yaml:"log_level"    json:"log_level"`
	Verbose     bool   `mapstructure:"verbose"      yaml:"verbose"      json:"verbose"`

	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Matcher    MatcherConfig    `mapstructure:"matcher"    yaml:"matcher"    json:"matcher"`
	OCR        OCRConfig        `mapstructure:"ocr"        yaml:"ocr"        json:"ocr"`
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"     json:"server"`
	Batch      BatchConfig      `mapstructure:"batch"      yaml:"batch"      json:"batch"`
	Fetch      FetchConfig      `mapstructure:"fetch"      yaml:"fetch"      json:"fetch"`
}

// PreprocessConfig mirrors preprocess.Options plus the enable switch.
type PreprocessConfig struct {
	Enabled        bool    `mapstructure:"enabled"         yaml:"enabled"         json:"enabled"`
	Contrast       float64 `mapstructure:"contrast"        yaml:"contrast"        json:"contrast"`
	Sharpen        float64 `mapstructure:"sharpen"         yaml:"sharpen"         json:"sharpen"`
	Binarize       bool    `mapstructure:"binarize"        yaml:"binarize"        json:"binarize"`
	Threshold      int     `mapstructure:"threshold"       yaml:"threshold"       json:"threshold"`
	NoiseReduction bool    `mapstructure:"noise_reduction" yaml:"noise_reduction" json:"noise_reduction"`
	Blend          bool    `mapstructure:"blend"           yaml:"blend"           json:"blend"`
}

// Options converts to the preprocess package's option type.
func (c PreprocessConfig) Options() preprocess.Options {
	return preprocess.Options{
		Contrast:       c.Contrast,
		Sharpen:        c.Sharpen,
		Binarize:       c.Binarize,
		Threshold:      c.Threshold,
		NoiseReduction: c.NoiseReduction,
		Blend:          c.Blend,
	}
}

// MatcherConfig holds catalog matching thresholds.
type MatcherConfig struct {
	MinScore        float64 `mapstructure:"min_score"        yaml:"min_score"        json:"min_score"`
	MaxResults      int     `mapstructure:"max_results"      yaml:"max_results"      json:"max_results"`
	FieldThreshold  float64 `mapstructure:"field_threshold"  yaml:"field_threshold"  json:"field_threshold"`
	NumberThreshold float64 `mapstructure:"number_threshold" yaml:"number_threshold" json:"number_threshold"`
	NameThreshold   float64 `mapstructure:"name_threshold"   yaml:"name_threshold"   json:"name_threshold"`
}

// MatchConfig converts to the match package's config type.
func (c MatcherConfig) MatchConfig() match.Config {
	return match.Config{
		MinScore:        c.MinScore,
		MaxResults:      c.MaxResults,
		FieldThreshold:  c.FieldThreshold,
		NumberThreshold: c.NumberThreshold,
		NameThreshold:   c.NameThreshold,
	}
}

// OCRConfig configures the Tesseract engine.
type OCRConfig struct {
	Language   string `mapstructure:"language"    yaml:"language"    json:"language"`
	Whitelist  string `mapstructure:"whitelist"   yaml:"whitelist"   json:"whitelist"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host"             yaml:"host"             json:"host"`
	Port            int    `mapstructure:"port"             yaml:"port"             json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin"      yaml:"cors_origin"      json:"cors_origin"`
	MaxUploadMB     int64  `mapstructure:"max_upload_mb"    yaml:"max_upload_mb"    json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec"      yaml:"timeout_sec"      json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BatchConfig holds directory scan settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers"           yaml:"workers"           json:"workers"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Format          string `mapstructure:"format"            yaml:"format"            json:"format"`
}

// FetchConfig holds catalog download settings.
type FetchConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Game    string `mapstructure:"game"     yaml:"game"     json:"game"`
	Output  string `mapstructure:"output"   yaml:"output"   json:"output"`
}

// ScannerConfig assembles the session configuration for the scan pipeline.
func (c *Config) ScannerConfig() scanner.Config {
	return scanner.Config{
		PreprocessEnabled: c.Preprocess.Enabled,
		Preprocess:        c.Preprocess.Options(),
		Match:             c.Matcher.MatchConfig(),
	}
}
