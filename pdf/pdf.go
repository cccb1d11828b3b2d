// Package pdf provides structural access to PDF documents for the redaction
// pipeline: page geometry, positioned text spans, page rasterization, and the
// drawing primitives the redaction and watermark passes need. The pipeline
// consumes the Document and Page interfaces; the production implementation is
// backed by pdfcpu (structure, drawing, serialization), ledongthuc/pdf
// (positioned text spans), and poppler's pdftoppm (rasterization).
package pdf

import (
	"context"
	"errors"

	"github.com/muqadar-ali/docshade/coords"
)

var (
	// ErrUnreadablePage indicates that a page's geometry or text layer could
	// not be parsed. Redaction correctness cannot be guaranteed without
	// geometry, so the page must not be processed further.
	ErrUnreadablePage = errors.New("pdf: unreadable page")

	// ErrRemoveTextUnsupported is returned by implementations that can only
	// mask content visually and cannot remove the underlying text objects.
	ErrRemoveTextUnsupported = errors.New("pdf: structural text removal unsupported")
)

// Word is a positioned text span extracted from a page's digital text layer.
// The box is in page coordinates (bottom-left origin, points).
type Word struct {
	Text string
	Box  coords.BBox
}

// Raster is a page rendered to an encoded PNG image. Width and Height are the
// actual pixel dimensions of the payload, which callers must use for
// coordinate mapping; they may differ from DPI-derived dimensions when the
// render was downscaled.
type Raster struct {
	PNG    []byte
	Width  int
	Height int
	DPI    int
}

// TextStyle configures a text overlay.
type TextStyle struct {
	// Points is the font size in points.
	Points float64
	// Rotation is the counterclockwise rotation in degrees.
	Rotation float64
	// Opacity is the fill opacity in [0, 1].
	Opacity float64
	// Fill is the fill color as a #rrggbb hex string.
	Fill string
}

// Page exposes one page of an open document.
//
// Words and Rasterize read the state captured when the document was opened;
// FillRect, RemoveText and WatermarkText mutate the document in place and are
// not reversible. Callers must finish locating before mutating.
type Page interface {
	// Index is the zero-based page index.
	Index() int
	// Width and Height are the page dimensions in points.
	Width() float64
	Height() float64
	// Words returns the positioned spans of the digital text layer. A page
	// with no text layer returns an empty slice, not an error.
	Words() ([]Word, error)
	// Rasterize renders the page at the given DPI.
	Rasterize(ctx context.Context, dpi int) (Raster, error)
	// FillRect draws a solid opaque rectangle above all existing content.
	FillRect(box coords.BBox) error
	// RemoveText removes text objects inside the box where the
	// representation allows it, and returns ErrRemoveTextUnsupported where
	// it does not.
	RemoveText(box coords.BBox) error
	// WatermarkText writes a rotated semi-transparent text overlay centered
	// on the page, above all previously drawn content.
	WatermarkText(text string, style TextStyle) error
}

// Document is an open PDF.
type Document interface {
	PageCount() int
	// Page returns the page at the zero-based index. It returns an error
	// wrapping ErrUnreadablePage when the page structure cannot be parsed.
	Page(index int) (Page, error)
	// Bytes serializes the document with all mutations applied.
	Bytes() ([]byte, error)
	Close() error
}
