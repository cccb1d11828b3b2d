// Package redact applies permanent opaque masks over detected regions of a
// page. Masks are drawn above all existing content; for digital-layer
// detections the applier additionally attempts structural removal of the
// underlying text so copy/paste cannot recover it. OCR-sourced redactions
// only mask the raster region visually; that limitation is reported, never
// hidden.
package redact

import (
	"errors"
	"fmt"

	"github.com/muqadar-ali/docshade/detect"
	"github.com/muqadar-ali/docshade/observability"
	"github.com/muqadar-ali/docshade/pdf"
)

// Report summarizes one redaction pass over a page.
type Report struct {
	// Drawn is the number of masks drawn, including overlapping ones.
	Drawn int
	// Unique is the de-duplicated region count for reporting (IoU merge).
	Unique int
	// Clipped counts boxes that had to be constrained to the page bounds.
	Clipped int
	// Dropped counts boxes that fell entirely outside the page.
	Dropped int
	// TextRemoved counts digital-layer matches whose text objects were
	// structurally removed.
	TextRemoved int
	// TextRemovalUnavailable is set when the document representation can
	// only mask visually. Callers must surface this to the user.
	TextRemovalUnavailable bool
}

// Applier draws redaction masks. The zero value uses the default IoU
// threshold and a no-op logger.
type Applier struct {
	// IoUThreshold for de-duplicated reporting; zero means
	// detect.DefaultDedupIoU.
	IoUThreshold float64
	Log          observability.Logger
}

func (a Applier) log() observability.Logger {
	if a.Log != nil {
		return a.Log
	}
	return observability.NopLogger{}
}

// Apply clips every box to the page bounds and draws a mask over it. The
// mutation is permanent: there is no undo within the pipeline.
func (a Applier) Apply(page pdf.Page, dets []detect.Detection) (Report, error) {
	log := a.log().With(observability.Int("page", page.Index()))
	rep := Report{Unique: detect.UniqueCount(dets, a.IoUThreshold)}
	w, h := page.Width(), page.Height()

	for _, d := range dets {
		box, ok := d.Box.Clip(w, h)
		if !ok {
			// Never dropped silently: an out-of-range box means the OCR
			// mapping disagrees with the page geometry.
			rep.Dropped++
			log.Warn("detection outside page bounds, nothing left after clipping",
				observability.String("source", string(d.Source)),
				observability.String("box", d.Box.String()))
			continue
		}
		if box != d.Box {
			rep.Clipped++
			log.Debug("detection clipped to page bounds",
				observability.String("source", string(d.Source)),
				observability.String("box", d.Box.String()))
		}
		if err := page.FillRect(box); err != nil {
			return rep, fmt.Errorf("draw mask on page %d: %w", page.Index(), err)
		}
		rep.Drawn++

		if d.Source != detect.SourceDigital {
			continue
		}
		switch err := page.RemoveText(box); {
		case err == nil:
			rep.TextRemoved++
		case errors.Is(err, pdf.ErrRemoveTextUnsupported):
			rep.TextRemovalUnavailable = true
		default:
			return rep, fmt.Errorf("remove text on page %d: %w", page.Index(), err)
		}
	}
	return rep, nil
}
