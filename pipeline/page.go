package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/muqadar-ali/docshade/coords"
	"github.com/muqadar-ali/docshade/detect"
	"github.com/muqadar-ali/docshade/observability"
	"github.com/muqadar-ali/docshade/ocr"
	"github.com/muqadar-ali/docshade/pdf"
	"github.com/muqadar-ali/docshade/redact"
	"github.com/muqadar-ali/docshade/watermark"
)

// pageState tracks the per-page lifecycle. Transitions only move forward;
// re-entering an earlier state is a bug, not a recoverable condition.
type pageState int

const (
	stateLoaded pageState = iota
	stateLocated
	stateRedacted
	stateWatermarked
	stateDone
)

func (s pageState) String() string {
	switch s {
	case stateLoaded:
		return "loaded"
	case stateLocated:
		return "located"
	case stateRedacted:
		return "redacted"
	case stateWatermarked:
		return "watermarked"
	case stateDone:
		return "done"
	}
	return fmt.Sprintf("pageState(%d)", int(s))
}

type pageRun struct {
	index int
	state pageState
}

func (r *pageRun) advance(to pageState) {
	if to != r.state+1 {
		panic(fmt.Sprintf("pipeline: page %d illegal transition %v -> %v", r.index, r.state, to))
	}
	r.state = to
}

// PageResult reports what happened to one page.
type PageResult struct {
	Index int
	// State is the final lifecycle state; "done" unless the page failed.
	State             string
	DigitalDetections int
	OCRDetections     int
	MasksDrawn        int
	UniqueRegions     int
	// OCRDegraded is set when the detection service timed out or failed
	// and the page proceeded with digital-only results.
	OCRDegraded bool
	Warnings    []Warning
	Err         error
}

// Failed reports whether the page could not be processed at all.
func (r PageResult) Failed() bool { return r.Err != nil }

// pageProcessor holds the per-document shared state for page runs: the
// detection engine, the OCR concurrency bound and the rate limiter.
type pageProcessor struct {
	cfg     Config
	engine  ocr.Engine
	log     observability.Logger
	ocrSem  *semaphore.Weighted
	limiter *rate.Limiter
}

func (p *pageProcessor) process(ctx context.Context, page pdf.Page) (res PageResult) {
	run := &pageRun{index: page.Index()}
	res = PageResult{Index: page.Index()}
	defer func() { res.State = run.state.String() }()
	log := p.log.With(observability.Int("page", page.Index()))

	w, h := page.Width(), page.Height()
	if w <= 0 || h <= 0 {
		res.Err = fmt.Errorf("page %d: %gx%g: %w", page.Index(), w, h, watermark.ErrInvalidGeometry)
		return res
	}

	// Locate. Both locators run before any mutation; an empty pattern set
	// skips location entirely and the page is watermark-only.
	var dets []detect.Detection
	if len(p.cfg.Patterns) > 0 {
		words, err := page.Words()
		if err != nil {
			// Without a readable structure the box geometry cannot be
			// trusted, so redaction correctness is not guaranteed.
			res.Err = fmt.Errorf("page %d: %w", page.Index(), err)
			return res
		}
		dets = detect.DigitalLocator{}.Locate(words, p.cfg.Patterns)
		res.DigitalDetections = len(dets)

		ocrDets, err := p.locateOCR(ctx, page)
		switch {
		case err == nil:
			res.OCRDetections = len(ocrDets)
			dets = append(dets, ocrDets...)
		case ctx.Err() != nil:
			// Batch aborted: abandon the page rather than deliver a
			// partial result.
			res.Err = ctx.Err()
			return res
		default:
			res.OCRDegraded = true
			res.Warnings = append(res.Warnings, Warning{
				Page:    page.Index(),
				Kind:    WarnOCRDegraded,
				Message: err.Error(),
			})
			log.Warn("ocr contribution skipped, proceeding digital-only",
				observability.Error("cause", err))
		}
	}
	run.advance(stateLocated)

	rep, err := redact.Applier{IoUThreshold: p.cfg.DedupIoU, Log: p.log}.Apply(page, dets)
	res.MasksDrawn = rep.Drawn
	res.UniqueRegions = rep.Unique
	if rep.Dropped > 0 {
		res.Warnings = append(res.Warnings, Warning{
			Page:    page.Index(),
			Kind:    WarnBoxDropped,
			Message: fmt.Sprintf("%d detection(s) outside page bounds", rep.Dropped),
		})
	}
	if rep.TextRemovalUnavailable {
		res.Warnings = append(res.Warnings, Warning{
			Page:    page.Index(),
			Kind:    WarnTextNotRemoved,
			Message: "masks drawn but underlying text objects were not removed",
		})
	}
	if err != nil {
		res.Err = err
		return res
	}
	run.advance(stateRedacted)

	// Watermark renders above the redaction layer; the reverse order would
	// let masks cover the mark or the mark bleed over masked regions.
	if err := (watermark.Composer{Text: p.cfg.WatermarkText}).Apply(page); err != nil {
		res.Err = err
		return res
	}
	run.advance(stateWatermarked)

	run.advance(stateDone)
	log.Debug("page done",
		observability.Int("digital", res.DigitalDetections),
		observability.Int("ocr", res.OCRDetections),
		observability.Int("masks", res.MasksDrawn))
	return res
}

// locateOCR runs the rasterize-and-recognize stage under the per-page
// timeout, the document-wide concurrency bound and the rate limit.
func (p *pageProcessor) locateOCR(ctx context.Context, page pdf.Page) ([]detect.Detection, error) {
	tctx, cancel := context.WithTimeout(ctx, p.cfg.OCRTimeout)
	defer cancel()

	if p.limiter != nil {
		if err := p.limiter.Wait(tctx); err != nil {
			return nil, classifyDetectionErr(err)
		}
	}
	if err := p.ocrSem.Acquire(tctx, 1); err != nil {
		return nil, classifyDetectionErr(err)
	}
	defer p.ocrSem.Release(1)

	raster, err := page.Rasterize(tctx, p.cfg.DPI)
	if err != nil {
		return nil, classifyDetectionErr(err)
	}
	in := ocr.NewInput(
		fmt.Sprintf("page-%d", page.Index()),
		page.Index(),
		raster.PNG,
		ocr.ImageFormatPNG,
		ocr.WithDPI(raster.DPI),
		ocr.WithLanguages(p.cfg.OCRLanguages...),
	)
	result, err := p.engine.Recognize(tctx, in)
	if err != nil {
		return nil, classifyDetectionErr(err)
	}
	scale, err := coords.NewScaleMap(page.Width(), page.Height(), raster.Width, raster.Height)
	if err != nil {
		return nil, fmt.Errorf("scale map: %v: %w", err, ErrDetectionFailed)
	}
	loc := detect.OCRLocator{ConfidenceThreshold: p.cfg.ConfidenceThreshold}
	return loc.Locate(result, p.cfg.Patterns, scale), nil
}

func classifyDetectionErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%v: %w", err, ErrDetectionTimeout)
	}
	return fmt.Errorf("%v: %w", err, ErrDetectionFailed)
}
