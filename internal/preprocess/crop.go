package preprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// Region describes a crop rectangle in fractions of the image dimensions,
// so the same region applies to any resolution.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Default regions of interest on a portrait trading card. The title band sits
// near the top edge, the collector number near the bottom.
var (
	TitleRegion  = Region{X: 0.10, Y: 0.05, Width: 0.80, Height: 0.25}
	NumberRegion = Region{X: 0.05, Y: 0.70, Width: 0.90, Height: 0.25}
)

// clamped forces the region into the unit square.
func (r Region) clamped() Region {
	clamp01 := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	r.X = clamp01(r.X)
	r.Y = clamp01(r.Y)
	r.Width = clamp01(r.Width)
	r.Height = clamp01(r.Height)
	if r.X+r.Width > 1 {
		r.Width = 1 - r.X
	}
	if r.Y+r.Height > 1 {
		r.Height = 1 - r.Y
	}
	return r
}

// CropRegion cuts the fractional region out of img into a new image. A region
// that resolves to zero pixels returns ErrEmptyRegion.
func CropRegion(img image.Image, region Region) (*image.NRGBA, error) {
	region = region.clamped()
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	rect := image.Rect(
		bounds.Min.X+int(region.X*float64(w)),
		bounds.Min.Y+int(region.Y*float64(h)),
		bounds.Min.X+int((region.X+region.Width)*float64(w)),
		bounds.Min.Y+int((region.Y+region.Height)*float64(h)),
	)
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, ErrEmptyRegion
	}
	return imaging.Crop(img, rect), nil
}
