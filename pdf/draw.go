package pdf

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// maskStampDesc positions a redaction mask image at its natural size, rotated
// with the page, fully opaque. Dx/Dy are set per box after parsing.
const maskStampDesc = "scale:1 abs, pos:full, rot:0, op:1"

// textStampDesc builds the pdfcpu watermark description for a centered text
// overlay.
func textStampDesc(style TextStyle) string {
	return fmt.Sprintf("fontname:Helvetica, points:%.0f, scale:1 abs, pos:c, rot:%.0f, op:%.2f, fillc:%s",
		style.Points, style.Rotation, style.Opacity, style.Fill)
}

// writeMaskImage creates a temporary solid black PNG of w x h pixels, which
// stamps to w x h points at absolute scale. The caller removes the file.
func writeMaskImage(w, h int) (string, error) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	black := color.RGBA{A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, black)
		}
	}
	f, err := os.CreateTemp("", "docshade-mask-*.png")
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
