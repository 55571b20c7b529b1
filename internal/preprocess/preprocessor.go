// Package preprocess prepares photographed trading cards for OCR. It scales
// the photo down, converts it to grayscale, and runs a configurable chain of
// contrast, sharpening, thresholding and denoising filters.
package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// ErrEmptyRegion is returned when a crop region resolves to zero pixels.
var ErrEmptyRegion = errors.New("preprocess: crop region is empty")

// Preprocessor runs the filter chain with a fixed, clamped configuration.
// It is stateless after construction and safe for concurrent use.
type Preprocessor struct {
	opts   Options
	maxDim int
}

// New creates a Preprocessor. Out-of-range option values are clamped.
func New(opts Options) *Preprocessor {
	return &Preprocessor{opts: opts.Clamped(), maxDim: MaxDimension}
}

// Options returns the clamped options in effect.
func (p *Preprocessor) Options() Options {
	return p.opts
}

// Run executes the full chain on img:
// downscale, grayscale, contrast, sharpen, then either binarize or noise
// reduction, and finally the optional blend with the grayscale original.
func (p *Preprocessor) Run(img image.Image) *image.NRGBA {
	scaled := p.downscale(img)
	gray := Grayscale(scaled)

	out := gray
	if p.opts.Contrast != 1.0 {
		out = Contrast(out, p.opts.Contrast)
	}
	if p.opts.Sharpen > 0 {
		out = Sharpen(out, p.opts.Sharpen)
	}
	switch {
	case p.opts.Binarize:
		out = Binarize(out, uint8(p.opts.Threshold))
	case p.opts.NoiseReduction:
		out = ReduceNoise(out)
	}
	if p.opts.Blend {
		out = Blend(out, gray, BlendRatio)
	}
	return out
}

// RunBytes decodes encoded image data and runs the chain on it.
func (p *Preprocessor) RunBytes(data []byte) (*image.NRGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return p.Run(img), nil
}

// downscale shrinks img so neither dimension exceeds maxDim, preserving
// aspect ratio. Images already within bounds are only converted to NRGBA.
func (p *Preprocessor) downscale(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= p.maxDim && h <= p.maxDim {
		return imaging.Clone(img)
	}
	if w >= h {
		return imaging.Resize(img, p.maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, p.maxDim, imaging.Lanczos)
}
