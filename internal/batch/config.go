package batch

import (
	"fmt"
	"os"
	"time"

	"github.com/MeKo-Tech/cardscan/internal/scanner"
)

// Config holds all configuration for batch scanning.
type Config struct {
	// Scan settings shared by every worker session.
	Scan scanner.Config

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Output settings
	Format     string
	OutputFile string
	Quiet      bool
	ShowStats  bool
}

// ItemResult pairs one input file with its scan outcome. Err is set when the
// file failed and ContinueOnError kept the batch going.
type ItemResult struct {
	Path   string          `json:"file"`
	Result *scanner.Result `json:"scan,omitempty"`
	Err    error           `json:"-"`
}

// Result holds the outcome of a batch run.
type Result struct {
	Items       []ItemResult
	Duration    time.Duration
	WorkerCount int
}

// Processed counts the items that produced a scan result.
func (r *Result) Processed() int {
	n := 0
	for _, item := range r.Items {
		if item.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the items that errored.
func (r *Result) Failed() int {
	return len(r.Items) - r.Processed()
}

// Identified counts the items whose scan found a catalog match.
func (r *Result) Identified() int {
	n := 0
	for _, item := range r.Items {
		if item.Err == nil && item.Result != nil && item.Result.BestMatch != nil {
			n++
		}
	}
	return n
}

// FormatResults formats the batch results in the specified format.
func (r *Result) FormatResults(format string) (string, error) {
	return formatBatchResults(r.Items, format)
}

// SaveResults saves the formatted results to a file or stdout.
func (r *Result) SaveResults(format, outputFile string, quiet bool) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "Results written to %s\n", outputFile)
		}
	} else {
		_, _ = fmt.Fprint(os.Stdout, output)
	}

	return nil
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(quiet bool) {
	if quiet {
		return
	}
	total := len(r.Items)
	avg := time.Duration(0)
	throughput := 0.0
	if total > 0 && r.Duration > 0 {
		avg = r.Duration / time.Duration(total)
		throughput = float64(total) / r.Duration.Seconds()
	}
	_, _ = fmt.Fprintf(os.Stdout, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(os.Stdout, "  Total images: %d\n", total)
	_, _ = fmt.Fprintf(os.Stdout, "  Processed: %d\n", r.Processed())
	_, _ = fmt.Fprintf(os.Stdout, "  Failed: %d\n", r.Failed())
	_, _ = fmt.Fprintf(os.Stdout, "  Identified: %d\n", r.Identified())
	_, _ = fmt.Fprintf(os.Stdout, "  Workers: %d\n", r.WorkerCount)
	_, _ = fmt.Fprintf(os.Stdout, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Avg per image: %v\n", avg.Round(time.Millisecond))
	_, _ = fmt.Fprintf(os.Stdout, "  Throughput: %.1f images/sec\n", throughput)
}
