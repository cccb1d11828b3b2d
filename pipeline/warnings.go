package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionTimeout marks an OCR stage that exceeded its per-page
	// budget. Non-fatal: the page proceeds with digital-only results.
	ErrDetectionTimeout = errors.New("pipeline: detection service timeout")

	// ErrDetectionFailed marks a detection service failure. Non-fatal,
	// same degradation as a timeout.
	ErrDetectionFailed = errors.New("pipeline: detection service failed")
)

// WarningKind classifies manifest entries.
type WarningKind string

const (
	// WarnOCRDegraded: the OCR contribution for a page was skipped after a
	// detection timeout or failure; only digital results were redacted.
	WarnOCRDegraded WarningKind = "ocr-degraded"
	// WarnTextNotRemoved: masks were drawn but the underlying text objects
	// could not be structurally removed.
	WarnTextNotRemoved WarningKind = "text-not-removed"
	// WarnBoxDropped: a mapped detection fell entirely outside the page.
	WarnBoxDropped WarningKind = "box-outside-page"
)

// Warning is one manifest entry attached to a page result.
type Warning struct {
	Page    int
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("page %d: %s: %s", w.Page+1, w.Kind, w.Message)
}
