package preprocess

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDeterministic(t *testing.T) {
	p := New(DefaultOptions())
	img := noisyImage(80, 120, 42)
	first := p.Run(img)
	second := p.Run(img)
	assert.Equal(t, first.Pix, second.Pix)
}

func TestRunOutputIsGrayscale(t *testing.T) {
	p := New(DefaultOptions())
	out := p.Run(noisyImage(60, 60, 11))
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Equal(t, out.Pix[i], out.Pix[i+1])
		assert.Equal(t, out.Pix[i], out.Pix[i+2])
	}
}

func TestRunPassthroughIdempotent(t *testing.T) {
	// with contrast off, sharpening off, and no thresholding the chain
	// reduces to grayscale, which is a fixed point on its own output
	p := New(Options{Contrast: 1.0, Sharpen: 0})
	img := noisyImage(40, 40, 12)
	once := p.Run(img)
	twice := p.Run(once)
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestRunDownscalesLargeInput(t *testing.T) {
	p := New(DefaultOptions())
	img := image.NewNRGBA(image.Rect(0, 0, 4000, 3000))
	out := p.Run(img)
	assert.Equal(t, MaxDimension, out.Bounds().Dx())
	assert.Equal(t, 1500, out.Bounds().Dy())
}

func TestRunKeepsSmallInputSize(t *testing.T) {
	p := New(DefaultOptions())
	img := image.NewNRGBA(image.Rect(0, 0, 300, 420))
	out := p.Run(img)
	assert.Equal(t, 300, out.Bounds().Dx())
	assert.Equal(t, 420, out.Bounds().Dy())
}

func TestRunBinarizeWinsOverNoiseReduction(t *testing.T) {
	p := New(Options{Contrast: 1.0, Binarize: true, Threshold: 128, NoiseReduction: true})
	out := p.Run(noisyImage(30, 30, 13))
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Contains(t, []uint8{0, 255}, out.Pix[i])
	}
}

func TestRunClampsOptions(t *testing.T) {
	p := New(Options{Contrast: 50, Sharpen: -3, Threshold: 999})
	opts := p.Options()
	assert.InDelta(t, MaxContrast, opts.Contrast, 1e-9)
	assert.InDelta(t, MinSharpen, opts.Sharpen, 1e-9)
	assert.Equal(t, MaxThreshold, opts.Threshold)
}

func TestRunBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, noisyImage(50, 70, 14)))

	p := New(DefaultOptions())
	out, err := p.RunBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 50, out.Bounds().Dx())
	assert.Equal(t, 70, out.Bounds().Dy())
}

func TestRunBytesInvalidData(t *testing.T) {
	p := New(DefaultOptions())
	_, err := p.RunBytes([]byte("not an image"))
	require.Error(t, err)
}
