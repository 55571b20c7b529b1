package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/config"
	"github.com/MeKo-Tech/cardscan/internal/ocr/tesseract"
	"github.com/MeKo-Tech/cardscan/internal/preprocess"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [image]",
	Short: "Scan a card photo and identify it against the catalog",
	Long: `Scan a single card photo. The image is preprocessed, run through
Tesseract OCR, and matched against the configured card catalog.

Supported formats: JPEG, PNG, BMP

Examples:
  cardscan scan photo.jpg
  cardscan scan photo.jpg --format json
  cardscan scan photo.jpg --no-preprocess
  cardscan scan photo.jpg --contrast 1.5 --binarize`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runScanCommand,
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	format := cmd.Flag("format").Value.String()
	if format != outputFormatText && format != outputFormatJSON {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			format, strings.Join([]string{outputFormatText, outputFormatJSON}, ", "))
	}

	store, err := loadCatalogStore(cfg)
	if err != nil {
		return err
	}

	engine, err := buildEngine(cfg, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	img, _, err := utils.LoadImage(args[0])
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", args[0], err)
	}

	scanCfg := cfg.ScannerConfig()
	if noPre, _ := cmd.Flags().GetBool("no-preprocess"); noPre {
		scanCfg.PreprocessEnabled = false
	}
	opts := scanOptionsFromFlags(cmd, scanCfg.Preprocess)

	if debugDir, _ := cmd.Flags().GetString("debug-dir"); debugDir != "" && scanCfg.PreprocessEnabled {
		if err := savePreprocessed(img, opts, args[0], debugDir); err != nil {
			return err
		}
	}

	session := scanner.NewSession(engine, store, scanCfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout(cfg))
	defer cancel()

	result, err := session.ScanWithOptions(ctx, img, opts)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	output, err := formatScanResult(result, format)
	if err != nil {
		return err
	}

	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), output)
	return err
}

// loadCatalogStore loads the configured catalog into a fresh store.
func loadCatalogStore(cfg *config.Config) (*catalog.Store, error) {
	store := catalog.NewStore()
	if cfg.CatalogPath == "" {
		return store, nil
	}
	n, err := catalog.LoadInto(store, cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", cfg.CatalogPath, err)
	}
	if n == 0 {
		return nil, errors.New("catalog is empty")
	}
	return store, nil
}

// buildEngine creates the Tesseract engine from config plus flag overrides.
func buildEngine(cfg *config.Config, cmd *cobra.Command) (*tesseract.Engine, error) {
	tCfg := tesseract.DefaultConfig()
	if cfg.OCR.Language != "" {
		tCfg.Language = cfg.OCR.Language
	}
	if cfg.OCR.Whitelist != "" {
		tCfg.Whitelist = cfg.OCR.Whitelist
	}
	if cmd.Flags().Lookup("language") != nil && cmd.Flags().Changed("language") {
		tCfg.Language, _ = cmd.Flags().GetString("language")
	}

	engine, err := tesseract.New(tCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}
	return engine, nil
}

// scanTimeout returns the per-scan deadline from config.
func scanTimeout(cfg *config.Config) time.Duration {
	if cfg.OCR.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.OCR.TimeoutSec) * time.Second
}

// scanOptionsFromFlags applies per-invocation preprocessing overrides.
func scanOptionsFromFlags(cmd *cobra.Command, base preprocess.Options) preprocess.Options {
	if cmd.Flags().Changed("contrast") {
		base.Contrast, _ = cmd.Flags().GetFloat64("contrast")
	}
	if cmd.Flags().Changed("sharpen") {
		base.Sharpen, _ = cmd.Flags().GetFloat64("sharpen")
	}
	if cmd.Flags().Changed("binarize") {
		base.Binarize, _ = cmd.Flags().GetBool("binarize")
	}
	if cmd.Flags().Changed("threshold") {
		base.Threshold, _ = cmd.Flags().GetInt("threshold")
	}
	if cmd.Flags().Changed("noise-reduction") {
		base.NoiseReduction, _ = cmd.Flags().GetBool("noise-reduction")
	}
	return base
}

// savePreprocessed writes the preprocessed image next to the scan output so
// filter settings can be inspected.
func savePreprocessed(img image.Image, opts preprocess.Options, srcPath, debugDir string) error {
	pre := preprocess.New(opts).Run(img)
	base := filepath.Base(srcPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "_preprocessed.png"
	if err := utils.SaveImage(pre, filepath.Join(debugDir, name)); err != nil {
		return fmt.Errorf("failed to save preprocessed image: %w", err)
	}
	return nil
}

// formatScanResult renders a single scan result as text or JSON.
func formatScanResult(result *scanner.Result, format string) (string, error) {
	if format == outputFormatJSON {
		bts, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(bts) + "\n", nil
	}

	var b strings.Builder
	if result.BestMatch == nil {
		b.WriteString("No match found\n")
	} else {
		best := result.BestMatch
		fmt.Fprintf(&b, "Match: %s  %s (%s)\n", best.Card.ID, best.Card.Name, best.Card.SetName)
		fmt.Fprintf(&b, "  %d%% via %s\n", best.MatchPercent, best.MatchedBy)
	}
	if result.Fields.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", result.Fields.Title)
	}
	if result.Fields.Number != "" {
		fmt.Fprintf(&b, "Number: %s\n", result.Fields.Number)
	}
	if result.Fields.SetCode != "" {
		fmt.Fprintf(&b, "Set code: %s\n", result.Fields.SetCode)
	}
	fmt.Fprintf(&b, "OCR confidence: %.1f\n", result.Confidence)
	for _, alt := range result.Matches {
		if result.BestMatch != nil && alt.Card.ID == result.BestMatch.Card.ID {
			continue
		}
		fmt.Fprintf(&b, "  alt: %s  %s  %d%%\n", alt.Card.ID, alt.Card.Name, alt.MatchPercent)
	}
	return b.String(), nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	scanCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	scanCmd.Flags().Bool("no-preprocess", false, "send the raw image to OCR without preprocessing")
	scanCmd.Flags().Float64("contrast", preprocess.DefaultOptions().Contrast, "contrast factor (0.5-3.0)")
	scanCmd.Flags().Float64("sharpen", preprocess.DefaultOptions().Sharpen, "sharpen strength (0-2)")
	scanCmd.Flags().Bool("binarize", false, "binarize the image before OCR")
	scanCmd.Flags().Int("threshold", 128, "binarization threshold (0-255)")
	scanCmd.Flags().Bool("noise-reduction", false, "apply noise reduction before OCR")
	scanCmd.Flags().String("language", "eng", "Tesseract language")
	scanCmd.Flags().String("debug-dir", "", "save the preprocessed image into this directory")
}
