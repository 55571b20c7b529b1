package preprocess

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/cardscan/internal/mempool"
)

// Pixel filter stages. Every stage is a pure function: it never mutates its
// input and the same input always yields the same output. Stages operate on
// *image.NRGBA (flat 8-bit RGBA) and treat the image as grayscale; alpha is
// carried through untouched.

var (
	gaussianKernel = [9]float64{
		1.0 / 16, 2.0 / 16, 1.0 / 16,
		2.0 / 16, 4.0 / 16, 2.0 / 16,
		1.0 / 16, 2.0 / 16, 1.0 / 16,
	}
	resharpenKernel = [9]float64{
		0, -0.5, 0,
		-0.5, 3, -0.5,
		0, -0.5, 0,
	}
)

// toOrigin returns img with bounds anchored at (0,0) and a contiguous pixel
// buffer, cloning only when needed. A SubImage can be origin-anchored yet
// keep its parent's wider stride, which the flat Pix walks below must not see.
func toOrigin(img *image.NRGBA) *image.NRGBA {
	if img.Rect.Min == (image.Point{}) && img.Stride == 4*img.Rect.Dx() {
		return img
	}
	return imaging.Clone(img)
}

func clamp255(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}
	return uint8(r)
}

// Grayscale converts img to luminance using the BT.601 weights
// 0.299R + 0.587G + 0.114B, rounded to the nearest integer. Running it on an
// already-gray image is a no-op.
func Grayscale(img *image.NRGBA) *image.NRGBA {
	src := toOrigin(img)
	out := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		r := float64(src.Pix[i])
		g := float64(src.Pix[i+1])
		b := float64(src.Pix[i+2])
		gray := clamp255(0.299*r + 0.587*g + 0.114*b)
		out.Pix[i] = gray
		out.Pix[i+1] = gray
		out.Pix[i+2] = gray
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// Contrast applies the tuned S-curve with strength c. Values are pushed away
// from ContrastMidpoint and lifted by BrightnessOffset. Callers should skip
// the stage for c == 1.0; the curve is not the identity there.
func Contrast(img *image.NRGBA, c float64) *image.NRGBA {
	src := toOrigin(img)
	out := image.NewNRGBA(src.Rect)
	factor := (259 * (c*ContrastGain + 255)) / (255 * (259 - c*ContrastGain))

	// 256-entry lookup since the curve is per-value
	var lut [256]uint8
	for v := range lut {
		lut[v] = clamp255(factor*(float64(v)-ContrastMidpoint) + ContrastMidpoint + BrightnessOffset)
	}

	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i] = lut[src.Pix[i]]
		out.Pix[i+1] = lut[src.Pix[i+1]]
		out.Pix[i+2] = lut[src.Pix[i+2]]
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// Sharpen convolves with the kernel
//
//	[  0   -a    0 ]
//	[ -a  1+4a  -a ]
//	[  0   -a    0 ]
//
// Border rows and columns are copied from the source unchanged.
func Sharpen(img *image.NRGBA, a float64) *image.NRGBA {
	k := [9]float64{
		0, -a, 0,
		-a, 1 + 4*a, -a,
		0, -a, 0,
	}
	src := toOrigin(img)
	out := image.NewNRGBA(src.Rect)
	convolvePix(out.Pix, src.Pix, src.Rect.Dx(), src.Rect.Dy(), src.Stride, &k)
	return out
}

// Binarize maps every channel value above threshold to 255 and the rest,
// the threshold itself included, to 0. The output contains only the two
// extremes.
func Binarize(img *image.NRGBA, threshold uint8) *image.NRGBA {
	src := toOrigin(img)
	out := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			if src.Pix[i+c] > threshold {
				out.Pix[i+c] = 255
			} else {
				out.Pix[i+c] = 0
			}
		}
		out.Pix[i+3] = src.Pix[i+3]
	}
	return out
}

// ReduceNoise smooths speckle with a 3x3 Gaussian blur and then restores edge
// definition with a mild resharpen pass. Both passes copy the borders.
func ReduceNoise(img *image.NRGBA) *image.NRGBA {
	src := toOrigin(img)
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	tmp := mempool.GetBytes(len(src.Pix))
	defer mempool.PutBytes(tmp)

	convolvePix(tmp, src.Pix, w, h, src.Stride, &gaussianKernel)
	out := image.NewNRGBA(src.Rect)
	convolvePix(out.Pix, tmp, w, h, src.Stride, &resharpenKernel)
	return out
}

// Blend mixes processed and original pixel-by-pixel with the given ratio of
// processed (1-ratio of original). The two images must share dimensions;
// mismatched inputs return processed unchanged.
func Blend(processed, original *image.NRGBA, ratio float64) *image.NRGBA {
	p := toOrigin(processed)
	o := toOrigin(original)
	if p.Rect != o.Rect || len(p.Pix) != len(o.Pix) {
		return p
	}
	out := image.NewNRGBA(p.Rect)
	inv := 1 - ratio
	for i := 0; i < len(p.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = clamp255(ratio*float64(p.Pix[i+c]) + inv*float64(o.Pix[i+c]))
		}
		out.Pix[i+3] = p.Pix[i+3]
	}
	return out
}

// convolvePix applies a 3x3 kernel to the RGB channels of src, writing into
// dst. Border pixels are copied verbatim. dst and src must not alias.
func convolvePix(dst, src []uint8, w, h, stride int, k *[9]float64) {
	copy(dst, src)
	if w < 3 || h < 3 {
		return
	}
	for y := 1; y < h-1; y++ {
		row := y * stride
		for x := 1; x < w-1; x++ {
			i := row + x*4
			for c := 0; c < 3; c++ {
				acc := k[0]*float64(src[i-stride-4+c]) + k[1]*float64(src[i-stride+c]) + k[2]*float64(src[i-stride+4+c]) +
					k[3]*float64(src[i-4+c]) + k[4]*float64(src[i+c]) + k[5]*float64(src[i+4+c]) +
					k[6]*float64(src[i+stride-4+c]) + k[7]*float64(src[i+stride+c]) + k[8]*float64(src[i+stride+4+c])
				dst[i+c] = clamp255(acc)
			}
			dst[i+3] = src[i+3]
		}
	}
}
