// Package coords provides the geometric primitives shared by the locators and
// the redaction pass: axis-aligned bounding boxes in PDF page space
// (bottom-left origin, units of points) and the pixel-to-page scale map used
// to project OCR detections back onto a page.
package coords

import (
	"errors"
	"fmt"
	"math"
)

// Point is a position in page space.
type Point struct{ X, Y float64 }

// BBox is an axis-aligned rectangle in page space with X0 < X1 and Y0 < Y1.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// New returns a normalized box; coordinates may be given in any order.
func New(x0, y0, x1, y1 float64) BBox {
	return BBox{
		X0: math.Min(x0, x1),
		Y0: math.Min(y0, y1),
		X1: math.Max(x0, x1),
		Y1: math.Max(y0, y1),
	}
}

func (b BBox) Width() float64  { return b.X1 - b.X0 }
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }
func (b BBox) Area() float64   { return b.Width() * b.Height() }

// Empty reports whether the box has no positive extent.
func (b BBox) Empty() bool { return b.X1 <= b.X0 || b.Y1 <= b.Y0 }

// Center returns the box midpoint.
func (b BBox) Center() Point { return Point{X: (b.X0 + b.X1) / 2, Y: (b.Y0 + b.Y1) / 2} }

// Union returns the smallest box covering b and other.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Intersect returns the overlap of b and other. The result is Empty when the
// boxes do not overlap.
func (b BBox) Intersect(other BBox) BBox {
	r := BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
	if r.Empty() {
		return BBox{}
	}
	return r
}

// IoU returns the intersection-over-union ratio in [0, 1].
func (b BBox) IoU(other BBox) float64 {
	inter := b.Intersect(other).Area()
	if inter == 0 {
		return 0
	}
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Clip constrains b to [0, width] x [0, height]. The second return value is
// false when nothing of b remains inside the page.
func (b BBox) Clip(width, height float64) (BBox, bool) {
	r := b.Intersect(BBox{X0: 0, Y0: 0, X1: width, Y1: height})
	if r.Empty() {
		return BBox{}, false
	}
	return r, true
}

// Inside reports whether b lies fully within [0, width] x [0, height].
func (b BBox) Inside(width, height float64) bool {
	return b.X0 >= 0 && b.Y0 >= 0 && b.X1 <= width && b.Y1 <= height
}

func (b BBox) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", b.X0, b.Y0, b.X1, b.Y1)
}

// ErrDegenerate is returned by NewScaleMap when either space has a
// non-positive dimension.
var ErrDegenerate = errors.New("coords: degenerate scale map")

// ScaleMap projects raster pixel coordinates (top-left origin, Y down) onto
// page coordinates (bottom-left origin, Y up). The axes scale independently
// because rasterization need not preserve the aspect ratio exactly.
type ScaleMap struct {
	sx, sy     float64
	pageHeight float64
}

// NewScaleMap builds the projection for a page of pageW x pageH points
// rasterized into an image of imgW x imgH pixels.
func NewScaleMap(pageW, pageH float64, imgW, imgH int) (ScaleMap, error) {
	if pageW <= 0 || pageH <= 0 || imgW <= 0 || imgH <= 0 {
		return ScaleMap{}, ErrDegenerate
	}
	return ScaleMap{
		sx:         pageW / float64(imgW),
		sy:         pageH / float64(imgH),
		pageHeight: pageH,
	}, nil
}

// ToPage maps a pixel-space box to page space, flipping the Y axis.
func (m ScaleMap) ToPage(px BBox) BBox {
	return New(
		px.X0*m.sx,
		m.pageHeight-px.Y1*m.sy,
		px.X1*m.sx,
		m.pageHeight-px.Y0*m.sy,
	)
}
