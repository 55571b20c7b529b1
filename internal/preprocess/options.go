package preprocess

// Tunables for the contrast S-curve. The curve is
// v' = factor*(v - ContrastMidpoint) + ContrastMidpoint + BrightnessOffset
// with factor = (259*(c*ContrastGain+255)) / (255*(259-c*ContrastGain)).
const (
	ContrastGain     = 80.0
	ContrastMidpoint = 110.0
	BrightnessOffset = 15.0
)

// MaxDimension is the largest width or height fed to OCR. Larger inputs are
// downscaled preserving aspect ratio before any filtering runs.
const MaxDimension = 2000

// BlendRatio is the weight of the filtered image in the final blend with the
// plain grayscale original. Blending keeps thin glyph strokes that aggressive
// sharpening tends to eat.
const BlendRatio = 0.7

// Option ranges. Values outside are clamped, never rejected.
const (
	MinContrast  = 0.5
	MaxContrast  = 3.0
	MinSharpen   = 0.0
	MaxSharpen   = 2.0
	MinThreshold = 0
	MaxThreshold = 255
)

// Options controls the preprocessing pipeline. The zero value disables every
// stage except grayscale; use DefaultOptions for the tuned scan defaults.
type Options struct {
	// Contrast strength. 1.0 disables the contrast stage entirely.
	Contrast float64 `json:"contrast"`
	// Sharpen strength for the 3x3 sharpening kernel. 0 disables it.
	Sharpen float64 `json:"sharpen"`
	// Binarize converts the image to pure black/white using Threshold.
	Binarize  bool `json:"binarize"`
	Threshold int  `json:"threshold"`
	// NoiseReduction runs a Gaussian blur followed by a mild resharpen.
	// When both Binarize and NoiseReduction are set, Binarize wins.
	NoiseReduction bool `json:"noiseReduction"`
	// Blend mixes the filtered result with the grayscale original
	// (BlendRatio filtered, rest original).
	Blend bool `json:"blend"`
}

// DefaultOptions returns the tuned defaults for trading card scans.
func DefaultOptions() Options {
	return Options{
		Contrast:  1.2,
		Sharpen:   0.8,
		Binarize:  false,
		Threshold: 128,
		Blend:     true,
	}
}

// Clamped returns a copy with every numeric field forced into its documented
// range. Out-of-range configuration degrades to the nearest valid value.
func (o Options) Clamped() Options {
	if o.Contrast < MinContrast {
		o.Contrast = MinContrast
	}
	if o.Contrast > MaxContrast {
		o.Contrast = MaxContrast
	}
	if o.Sharpen < MinSharpen {
		o.Sharpen = MinSharpen
	}
	if o.Sharpen > MaxSharpen {
		o.Sharpen = MaxSharpen
	}
	if o.Threshold < MinThreshold {
		o.Threshold = MinThreshold
	}
	if o.Threshold > MaxThreshold {
		o.Threshold = MaxThreshold
	}
	return o
}
