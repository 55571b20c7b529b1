// Package testutil generates synthetic card images for tests, so no binary
// fixtures need to live in the repository.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardConfig describes the synthetic card to render.
type CardConfig struct {
	Title      string
	Number     string // printed near the bottom, e.g. "170/298"
	SetCode    string
	Width      int
	Height     int
	Background color.Color
	Foreground color.Color
}

// DefaultCardConfig returns a portrait card with the canonical test identity.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Title:      "Shadow Wolf",
		Number:     "170/298",
		SetCode:    "OGN",
		Width:      400,
		Height:     560,
		Background: color.White,
		Foreground: color.Black,
	}
}

// GenerateCard renders a flat card image with the title in the top band and
// the collector number in the bottom band, matching the default crop regions.
func GenerateCard(cfg CardConfig) *image.NRGBA {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 400, 560
	}
	if cfg.Background == nil {
		cfg.Background = color.White
	}
	if cfg.Foreground == nil {
		cfg.Foreground = color.Black
	}

	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{cfg.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{cfg.Foreground},
		Face: basicfont.Face7x13,
	}

	// title band, roughly 10% from the top
	drawer.Dot = fixed.P(cfg.Width/10, cfg.Height/10)
	drawer.DrawString(cfg.Title)

	// number band, roughly 80% down
	bottom := cfg.Number
	if cfg.SetCode != "" {
		bottom += "  " + cfg.SetCode
	}
	drawer.Dot = fixed.P(cfg.Width/10, cfg.Height*4/5)
	drawer.DrawString(bottom)

	return img
}

// WriteCardPNG renders the card and writes it into dir, returning the path.
func WriteCardPNG(t *testing.T, dir, name string, cfg CardConfig) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path) //nolint:gosec // test file in temp dir
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, GenerateCard(cfg)))
	require.NoError(t, f.Close())
	return path
}
