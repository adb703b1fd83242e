package img

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return buf.Bytes()
}

func TestDownscaleShrinksLargeImages(t *testing.T) {
	source := testPNG(t, 2000, 1000)

	out, err := Downscale(source, 0.5)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	bounds := decoded.Bounds()
	mpxs := float64(bounds.Dx()*bounds.Dy()) / 1000000.0
	assert.LessOrEqual(t, mpxs, 0.51)
}

func TestDownscaleKeepsSmallImages(t *testing.T) {
	source := testPNG(t, 100, 50)

	out, err := Downscale(source, 1.0)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 50, decoded.Bounds().Dy())
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	_, err := Downscale([]byte("not an image"), 1.0)
	assert.Error(t, err)
}
