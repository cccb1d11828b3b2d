package detect

import (
	"strings"

	"github.com/muqadar-ali/docshade/coords"
	"github.com/muqadar-ali/docshade/ocr"
)

// OCRLocator matches patterns against text-detection output and maps pixel
// boxes back into page coordinate space.
type OCRLocator struct {
	// ConfidenceThreshold gates words before matching is attempted. Zero
	// means DefaultConfidenceThreshold.
	ConfidenceThreshold float64
}

func (l OCRLocator) threshold() float64 {
	if l.ConfidenceThreshold > 0 {
		return l.ConfidenceThreshold
	}
	return DefaultConfidenceThreshold
}

// Locate filters recognized words by confidence, matches the pattern set and
// projects each matched pixel box into page space through the scale map.
// Confidence is retained on every detection for auditability.
func (l OCRLocator) Locate(result ocr.Result, patterns []string, scale coords.ScaleMap) []Detection {
	if len(result.Words) == 0 || len(patterns) == 0 {
		return nil
	}
	accepted := make([]ocr.Word, 0, len(result.Words))
	for _, w := range result.Words {
		if w.Confidence < l.threshold() {
			continue
		}
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		accepted = append(accepted, w)
	}
	if len(accepted) == 0 {
		return nil
	}

	texts := make([]string, len(accepted))
	for i, w := range accepted {
		texts[i] = w.Text
	}
	var out []Detection
	for _, pattern := range patterns {
		for _, run := range matchRuns(texts, pattern) {
			for _, idx := range run {
				w := accepted[idx]
				px := coords.New(
					w.Bounds.X,
					w.Bounds.Y,
					w.Bounds.X+w.Bounds.Width,
					w.Bounds.Y+w.Bounds.Height,
				)
				out = append(out, Detection{
					Pattern:    pattern,
					Box:        scale.ToPage(px),
					Source:     SourceOCR,
					Confidence: w.Confidence,
				})
			}
		}
	}
	return out
}
