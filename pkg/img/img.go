package img

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/sunshineplan/imgconv"
)

// Downscale re-encodes imageData as JPEG, resized so it stays under
// maxMPXS megapixels. Images already under the budget are only
// re-encoded, not resized.
func Downscale(imageData []byte, maxMPXS float64) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %v", err)
	}

	bounds := src.Bounds()
	width := bounds.Max.X - bounds.Min.X
	height := bounds.Max.Y - bounds.Min.Y
	currentMPXS := float64(width*height) / 1000000.0

	out := src
	if currentMPXS > maxMPXS {
		ratio := maxMPXS / currentMPXS
		newWidth := int(float64(width) * ratio)
		newHeight := int(float64(height) * ratio)

		out = imgconv.Resize(src, &imgconv.ResizeOption{
			Width:  newWidth,
			Height: newHeight,
		})
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, nil); err != nil {
		return nil, fmt.Errorf("error encoding JPEG: %v", err)
	}
	return buf.Bytes(), nil
}
