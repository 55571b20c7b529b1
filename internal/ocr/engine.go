// Package ocr defines the contract between the scan pipeline and a text
// recognition backend. The pipeline owns preprocessing and matching; an
// Engine only turns pixels into text.
package ocr

import (
	"context"
	"errors"
	"image"
	"math"
)

// ErrUnavailable is returned when the backing OCR runtime cannot be used,
// for example when the native library is missing or the engine was closed.
var ErrUnavailable = errors.New("ocr: engine unavailable")

// ErrTimeout is returned when recognition did not finish within the
// context deadline.
var ErrTimeout = errors.New("ocr: recognition timed out")

// Box is a word bounding box in pixel coordinates of the recognized image.
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Word is a single recognized token. Confidence is on a 0-100 scale; Box is
// nil when the backend does not report geometry.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
}

// Result is the complete output of one recognition pass.
type Result struct {
	Text  string `json:"text"`
	Words []Word `json:"words,omitempty"`
}

// Engine recognizes text in an image. Implementations must respect ctx
// cancellation on Recognize and must return ErrUnavailable once closed.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (*Result, error)
	Close() error
}

// AverageConfidence is the mean word confidence rounded to one decimal,
// 0 for an empty result.
func AverageConfidence(words []Word) float64 {
	if len(words) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range words {
		sum += w.Confidence
	}
	avg := sum / float64(len(words))
	return math.Round(avg*10) / 10
}
