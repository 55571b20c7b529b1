package scanner

import (
	"log/slog"
)

// ProgressCallback receives coarse progress while a scan runs. Callbacks
// must be fast; they execute on the scanning goroutine.
type ProgressCallback interface {
	// OnStage fires when the scan enters a stage, with overall percent done.
	OnStage(state State, percent int)
	// OnComplete fires once with the final result.
	OnComplete(result *Result)
	// OnError fires once if the scan fails.
	OnError(err error)
}

// NoOpProgress ignores all notifications.
type NoOpProgress struct{}

func (NoOpProgress) OnStage(State, int) {}
func (NoOpProgress) OnComplete(*Result) {}
func (NoOpProgress) OnError(error)      {}

// LogProgress writes progress to a structured logger.
type LogProgress struct {
	Logger *slog.Logger
}

func (p LogProgress) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p LogProgress) OnStage(state State, percent int) {
	p.logger().Debug("scan progress", "state", string(state), "percent", percent)
}

func (p LogProgress) OnComplete(result *Result) {
	p.logger().Info("scan complete",
		"state", string(result.State),
		"matches", len(result.Matches),
		"confidence", result.Confidence)
}

func (p LogProgress) OnError(err error) {
	p.logger().Error("scan failed", "error", err)
}

// ProgressFunc adapts a plain function to a stage-only callback.
type ProgressFunc func(state State, percent int)

func (f ProgressFunc) OnStage(state State, percent int) { f(state, percent) }
func (f ProgressFunc) OnComplete(*Result)               {}
func (f ProgressFunc) OnError(error)                    {}

// MultiProgress fans notifications out to several callbacks in order.
type MultiProgress []ProgressCallback

func (m MultiProgress) OnStage(state State, percent int) {
	for _, cb := range m {
		cb.OnStage(state, percent)
	}
}

func (m MultiProgress) OnComplete(result *Result) {
	for _, cb := range m {
		cb.OnComplete(result)
	}
}

func (m MultiProgress) OnError(err error) {
	for _, cb := range m {
		cb.OnError(err)
	}
}
