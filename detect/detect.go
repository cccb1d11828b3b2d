// Package detect locates occurrences of target patterns on a PDF page, in
// both the digital text layer and OCR output, and reports them as bounding
// boxes in page coordinate space.
//
// Matching semantics are fixed: patterns are trimmed on ingestion and matched
// as case-sensitive substrings. A multi-word pattern matches a run of
// adjacent words when each pattern token is contained in the corresponding
// word; every word of the run is reported as its own detection, so redacting
// each box independently still covers the whole pattern.
package detect

import (
	"strings"

	"github.com/muqadar-ali/docshade/coords"
)

// Source identifies which locator produced a detection.
type Source string

const (
	SourceDigital Source = "digital"
	SourceOCR     Source = "ocr"
)

const (
	// DefaultConfidenceThreshold discards low-confidence OCR words before
	// pattern matching, bounding false positives from noisy reads.
	DefaultConfidenceThreshold = 0.3

	// DefaultDedupIoU is the overlap ratio above which boxes from different
	// sources count as one redaction for reporting purposes.
	DefaultDedupIoU = 0.8
)

// Detection is one located occurrence of a pattern.
type Detection struct {
	Pattern string
	Box     coords.BBox
	Source  Source
	// Confidence is retained for OCR-sourced detections only; digital
	// matches carry zero.
	Confidence float64
}

// ParsePatterns splits newline-delimited user input into a pattern set,
// trimming each line and dropping empty ones.
func ParsePatterns(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchRuns finds every run of adjacent words matching the pattern and
// returns the word indices of each run. Single-token patterns reduce to a
// per-word substring scan.
func matchRuns(words []string, pattern string) [][]int {
	tokens := strings.Fields(pattern)
	if len(tokens) == 0 || len(words) < len(tokens) {
		return nil
	}
	var runs [][]int
	for i := 0; i+len(tokens) <= len(words); i++ {
		matched := true
		for j, tok := range tokens {
			if !strings.Contains(words[i+j], tok) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		run := make([]int, len(tokens))
		for j := range tokens {
			run[j] = i + j
		}
		runs = append(runs, run)
	}
	return runs
}
