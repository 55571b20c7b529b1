package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/batch"
	"github.com/MeKo-Tech/cardscan/internal/config"
)

// batchCmd represents the batch command for parallel card scanning.
var batchCmd = &cobra.Command{
	Use:   "batch [files...]",
	Short: "Scan multiple card photos in parallel",
	Long: `Scan multiple card photos or whole directories in parallel. Each worker
runs its own scan session against the shared OCR engine and catalog.

Supported formats: JPEG, PNG, BMP

Examples:
  cardscan batch *.jpg *.png
  cardscan batch images/ --recursive --workers 8
  cardscan batch images/ --format csv --output results.csv
  cardscan batch images/ --continue-on-error=false`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

// configToBatchConfig maps centralized configuration to batch.Config.
// CLI flags override config file values.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command) batch.Config {
	batchConfig := batch.Config{
		Scan: cfg.ScannerConfig(),
	}

	batchConfig.Workers = cfg.Batch.Workers
	if cmd.Flags().Changed("workers") {
		batchConfig.Workers, _ = cmd.Flags().GetInt("workers")
	}

	batchConfig.ContinueOnError = cfg.Batch.ContinueOnError
	if cmd.Flags().Changed("continue-on-error") {
		batchConfig.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	}

	batchConfig.Format = cfg.Batch.Format
	if cmd.Flags().Changed("format") {
		batchConfig.Format, _ = cmd.Flags().GetString("format")
	}

	batchConfig.OutputFile, _ = cmd.Flags().GetString("output")
	batchConfig.Recursive, _ = cmd.Flags().GetBool("recursive")
	batchConfig.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	batchConfig.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	batchConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	batchConfig.ShowStats, _ = cmd.Flags().GetBool("stats")

	if noPre, _ := cmd.Flags().GetBool("no-preprocess"); noPre {
		batchConfig.Scan.PreprocessEnabled = false
	}

	return batchConfig
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	batchConfig := configToBatchConfig(cfg, cmd)

	validFormats := []string{outputFormatText, outputFormatJSON, outputFormatCSV}
	valid := false
	for _, f := range validFormats {
		if batchConfig.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			batchConfig.Format, strings.Join(validFormats, ", "))
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

	result, err := batch.ProcessBatch(cmd.Context(), engine, store, args, batchConfig)
	if err != nil {
		return err
	}

	if err := result.SaveResults(batchConfig.Format, batchConfig.OutputFile, batchConfig.Quiet); err != nil {
		return err
	}

	if batchConfig.ShowStats {
		result.PrintStats(batchConfig.Quiet)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntP("workers", "w", 4, "number of parallel workers")
	batchCmd.Flags().Bool("continue-on-error", true, "keep scanning remaining files when one fails")
	batchCmd.Flags().BoolP("recursive", "r", false, "recurse into subdirectories")
	batchCmd.Flags().StringSlice("include", nil, "glob patterns of file names to include")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns of file names to exclude")
	batchCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json, csv)")
	batchCmd.Flags().StringP("output", "o", "", "write output to file instead of stdout")
	batchCmd.Flags().BoolP("quiet", "q", false, "suppress non-result output")
	batchCmd.Flags().Bool("stats", false, "print processing statistics")
	batchCmd.Flags().Bool("no-preprocess", false, "send raw images to OCR without preprocessing")
	batchCmd.Flags().String("language", "eng", "Tesseract language")
}
