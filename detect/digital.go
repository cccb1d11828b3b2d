package detect

import (
	"github.com/muqadar-ali/docshade/pdf"
)

// DigitalLocator scans a page's digital text layer for pattern occurrences.
// It is stateless: locating twice over the same words yields the same boxes.
type DigitalLocator struct{}

// Locate returns a detection per matched word box. A pattern absent from the
// page yields no detections and no error.
func (DigitalLocator) Locate(words []pdf.Word, patterns []string) []Detection {
	if len(words) == 0 || len(patterns) == 0 {
		return nil
	}
	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}
	var out []Detection
	for _, pattern := range patterns {
		for _, run := range matchRuns(texts, pattern) {
			for _, idx := range run {
				out = append(out, Detection{
					Pattern: pattern,
					Box:     words[idx].Box,
					Source:  SourceDigital,
				})
			}
		}
	}
	return out
}
