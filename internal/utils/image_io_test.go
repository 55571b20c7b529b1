package utils

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("card.png"))
	assert.True(t, IsSupportedImage("CARD.JPG"))
	assert.True(t, IsSupportedImage("scan.jpeg"))
	assert.True(t, IsSupportedImage("old.bmp"))
	assert.False(t, IsSupportedImage("doc.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.png")

	img := image.NewNRGBA(image.Rect(0, 0, 20, 30))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	f, err := os.Create(path) //nolint:gosec
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 20, meta.Width)
	assert.Equal(t, 30, meta.Height)
	assert.Positive(t, meta.SizeBytes)
	assert.InDelta(t, 20.0/30.0, meta.AspectRatio, 1e-9)
}

func TestLoadImageEmptyPath(t *testing.T) {
	_, _, err := LoadImage("")
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)
}

func TestLoadImageUnsupportedExtension(t *testing.T) {
	_, _, err := LoadImage("file.tiff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestLoadImageCorruptData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o600))

	_, _, err := LoadImage(path)
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestSaveImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "card.png")
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	require.NoError(t, SaveImage(img, path))

	loaded, _, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Bounds().Dx())
}

func TestSaveImageNil(t *testing.T) {
	err := SaveImage(nil, filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
}
