// Package watermark derives a page-proportionate watermark from page
// geometry and applies it as a rotated, semi-transparent overlay.
package watermark

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry indicates a page with non-positive dimensions.
var ErrInvalidGeometry = errors.New("watermark: invalid page geometry")

// Font sizing: the watermark scales with the page diagonal so letter and A4
// pages carry a visually similar mark, clamped to a readable range.
const (
	FontScale   = 0.02
	MinFontSize = 18.0
	MaxFontSize = 72.0
)

// Diagonal returns the page diagonal in points.
func Diagonal(width, height float64) (float64, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %gx%g", ErrInvalidGeometry, width, height)
	}
	return math.Sqrt(width*width + height*height), nil
}

// FontSize computes the adaptive watermark font size for a page. The result
// lies in [MinFontSize, MaxFontSize] and is non-decreasing in the page
// diagonal.
func FontSize(width, height float64) (float64, error) {
	d, err := Diagonal(width, height)
	if err != nil {
		return 0, err
	}
	size := d * FontScale
	if size < MinFontSize {
		return MinFontSize, nil
	}
	if size > MaxFontSize {
		return MaxFontSize, nil
	}
	return size, nil
}
