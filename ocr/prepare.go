package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// EncodePNG encodes img as PNG, first downscaling it so that its longer side
// is at most maxSide pixels. A maxSide of zero or less keeps the original
// size.
func EncodePNG(img image.Image, maxSide int) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}

	img = Downscale(img, maxSide)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Downscale returns img scaled to fit within maxSide pixels on its longer
// side, preserving the aspect ratio. Images already small enough are
// returned as is.
func Downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	longer := max(b.Dx(), b.Dy())
	if maxSide <= 0 || longer <= maxSide {
		return img
	}

	w := max(1, b.Dx()*maxSide/longer)
	h := max(1, b.Dy()*maxSide/longer)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
