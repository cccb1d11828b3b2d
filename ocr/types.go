package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Region describes a rectangular area in pixel coordinates with the origin in
// the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input encapsulates a single page image submitted for recognition.
type Input struct {
	// ID is an optional caller-provided identifier echoed back in the Result.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image []byte
	// Format declares the image content type (e.g., image/png).
	Format ImageFormat
	// PageIndex links the input back to the zero-based page it was rendered
	// from.
	PageIndex int
	// DPI carries the effective dots-per-inch of the render. Providers such
	// as Tesseract use this for scaling heuristics; zero means unknown.
	DPI int
	// Languages is a list of language hints (e.g., "eng", "deu") that
	// providers can use to select trained data.
	Languages []string
	// Metadata allows callers to pass through engine-specific knobs (e.g.,
	// "tessedit_pageseg_mode") without hard-coding them into the API surface.
	Metadata map[string]string
}

// Word is a single recognized token with its pixel-space bounds.
type Word struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// Result captures recognition output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText contains the linearized text extracted from the image.
	PlainText string
	// Words carries every recognized token with positional metadata. No
	// ordering is guaranteed.
	Words []Word
}

// Engine is the detection provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine handles multiple images in a single call, enabling providers
// that amortize setup costs.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}
