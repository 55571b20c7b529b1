package preprocess

import (
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyImage(w, h int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestGrayscaleChannelsEqual(t *testing.T) {
	img := noisyImage(40, 40, 1)
	gray := Grayscale(img)
	for i := 0; i < len(gray.Pix); i += 4 {
		assert.Equal(t, gray.Pix[i], gray.Pix[i+1])
		assert.Equal(t, gray.Pix[i], gray.Pix[i+2])
		assert.Equal(t, uint8(255), gray.Pix[i+3])
	}
}

func TestGrayscaleWeights(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 150, B: 200, A: 255})
	gray := Grayscale(img)
	// round(0.299*100 + 0.587*150 + 0.114*200) = round(140.75) = 141
	assert.Equal(t, uint8(141), gray.Pix[0])
}

func TestGrayscaleIdempotent(t *testing.T) {
	img := noisyImage(32, 32, 2)
	once := Grayscale(img)
	twice := Grayscale(once)
	assert.Equal(t, once.Pix, twice.Pix)
}

func TestGrayscaleDoesNotMutateInput(t *testing.T) {
	img := noisyImage(16, 16, 3)
	before := make([]uint8, len(img.Pix))
	copy(before, img.Pix)
	Grayscale(img)
	assert.Equal(t, before, img.Pix)
}

func TestContrastPushesAwayFromMidpoint(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	out := Contrast(img, 1.2)
	// dark pixels get darker, bright pixels brighter (modulo the +15 lift)
	assert.Less(t, out.Pix[0], uint8(40+BrightnessOffset))
	assert.Greater(t, out.Pix[4], uint8(200))
}

func TestContrastMonotonic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 256, 1))
	for x := 0; x < 256; x++ {
		v := uint8(x)
		img.SetNRGBA(x, 0, color.NRGBA{R: v, G: v, B: v, A: 255})
	}
	out := Contrast(img, 3.0)
	require.Len(t, out.Pix, len(img.Pix))
	for x := 1; x < 256; x++ {
		assert.GreaterOrEqual(t, out.NRGBAAt(x, 0).R, out.NRGBAAt(x-1, 0).R)
	}
}

func TestSharpenBordersCopied(t *testing.T) {
	img := noisyImage(20, 20, 5)
	out := Sharpen(img, 1.5)
	for x := 0; x < 20; x++ {
		assert.Equal(t, img.NRGBAAt(x, 0), out.NRGBAAt(x, 0))
		assert.Equal(t, img.NRGBAAt(x, 19), out.NRGBAAt(x, 19))
	}
	for y := 0; y < 20; y++ {
		assert.Equal(t, img.NRGBAAt(0, y), out.NRGBAAt(0, y))
		assert.Equal(t, img.NRGBAAt(19, y), out.NRGBAAt(19, y))
	}
}

func TestSharpenUniformImageUnchanged(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	// kernel sums to 1, so flat regions stay flat
	out := Sharpen(img, 0.8)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestSharpenTinyImage(t *testing.T) {
	img := noisyImage(2, 2, 6)
	out := Sharpen(img, 1.0)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestBinarizeOnlyExtremes(t *testing.T) {
	img := noisyImage(25, 25, 7)
	out := Binarize(Grayscale(img), 128)
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Contains(t, []uint8{0, 255}, out.Pix[i])
	}
}

func TestBinarizeThresholdBoundary(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 127, G: 127, B: 127, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	img.SetNRGBA(2, 0, color.NRGBA{R: 129, G: 129, B: 129, A: 255})
	out := Binarize(img, 128)
	assert.Equal(t, uint8(0), out.Pix[0])
	// a value exactly at the threshold stays black
	assert.Equal(t, uint8(0), out.Pix[4])
	assert.Equal(t, uint8(255), out.Pix[8])
}

func TestStagesHandleSubImageStride(t *testing.T) {
	parent := noisyImage(10, 10, 11)
	sub, ok := parent.SubImage(image.Rect(0, 0, 4, 4)).(*image.NRGBA)
	require.True(t, ok)
	// origin-anchored bounds, but the parent's wider stride
	require.Equal(t, parent.Stride, sub.Stride)

	gray := Grayscale(sub)
	require.Equal(t, 4*4*4, len(gray.Pix))
	want := Grayscale(imaging.Clone(sub))
	assert.Equal(t, want.Pix, gray.Pix)

	out := Binarize(Sharpen(sub, 0.8), 128)
	assert.Equal(t, 4*4*4, len(out.Pix))
}

func TestReduceNoiseBordersCopied(t *testing.T) {
	img := noisyImage(20, 20, 8)
	out := ReduceNoise(img)
	for x := 0; x < 20; x++ {
		assert.Equal(t, img.NRGBAAt(x, 0), out.NRGBAAt(x, 0))
	}
}

func TestReduceNoiseSmoothsSpeckle(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 9, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	img.SetNRGBA(4, 4, color.NRGBA{A: 255}) // single black speck
	out := ReduceNoise(img)
	assert.Greater(t, out.NRGBAAt(4, 4).R, uint8(0))
}

func TestBlendRatio(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	a.SetNRGBA(0, 0, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	b := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	b.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	out := Blend(a, b, 0.7)
	// 0.7*100 + 0.3*200 = 130
	assert.Equal(t, uint8(130), out.Pix[0])
}

func TestBlendIdenticalInputsIsNoOp(t *testing.T) {
	img := Grayscale(noisyImage(12, 12, 9))
	out := Blend(img, img, BlendRatio)
	assert.Equal(t, img.Pix, out.Pix)
}

func TestStagesDeterministic(t *testing.T) {
	img := noisyImage(50, 50, 10)
	first := ReduceNoise(Sharpen(Contrast(Grayscale(img), 1.2), 0.8))
	second := ReduceNoise(Sharpen(Contrast(Grayscale(img), 1.2), 0.8))
	assert.Equal(t, first.Pix, second.Pix)
}
