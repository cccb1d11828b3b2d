// Package pipeline orchestrates redaction and watermarking across the pages
// of a document: locate (digital and OCR, combinable in either order) →
// redact → watermark, as an explicit per-page state machine. Per-page
// failures degrade or fail that page only and are reported in the document
// result; silent partial failure is not an option.
package pipeline

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/muqadar-ali/docshade/detect"
)

// DefaultWatermarkText is the watermark applied when the caller supplies
// none explicitly.
const DefaultWatermarkText = "RENTAL USE ONLY"

// Config carries every knob for one batch. It is passed by value and never
// mutated after processing starts, so it is safely shared across pages and
// documents without locking.
type Config struct {
	// Patterns is the redaction target set. Empty is valid and means
	// "redact nothing, watermark only".
	Patterns []string
	// WatermarkText is the overlay text. Empty is valid and means "no
	// watermark".
	WatermarkText string
	// DPI used to rasterize pages for OCR. Zero means 300.
	DPI int
	// ConfidenceThreshold gates OCR words; zero means
	// detect.DefaultConfidenceThreshold.
	ConfidenceThreshold float64
	// DedupIoU is the overlap ratio for de-duplicated reporting; zero
	// means detect.DefaultDedupIoU.
	DedupIoU float64
	// OCRTimeout bounds the rasterize-and-recognize stage per page. On
	// expiry the page degrades to digital-only results. Zero means 90s.
	OCRTimeout time.Duration
	// OCRLanguages are language hints forwarded to the detection engine.
	OCRLanguages []string
	// MaxPageWorkers bounds concurrent pages per document. Zero means 4.
	MaxPageWorkers int
	// MaxOCRConcurrent bounds concurrent detection calls across the
	// pages of a document. Zero means 2.
	MaxOCRConcurrent int64
	// OCRPerSecond rate-limits detection calls. Zero means unlimited.
	OCRPerSecond rate.Limit
}

const (
	defaultDPI              = 300
	defaultOCRTimeout       = 90 * time.Second
	defaultMaxPageWorkers   = 4
	defaultMaxOCRConcurrent = 2
)

func (c Config) withDefaults() Config {
	if c.DPI == 0 {
		c.DPI = defaultDPI
	}
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = detect.DefaultConfidenceThreshold
	}
	if c.DedupIoU == 0 {
		c.DedupIoU = detect.DefaultDedupIoU
	}
	if c.OCRTimeout == 0 {
		c.OCRTimeout = defaultOCRTimeout
	}
	if c.MaxPageWorkers == 0 {
		c.MaxPageWorkers = defaultMaxPageWorkers
	}
	if c.MaxOCRConcurrent == 0 {
		c.MaxOCRConcurrent = defaultMaxOCRConcurrent
	}
	return c
}
