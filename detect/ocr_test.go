package detect

import (
	"math"
	"testing"

	"github.com/muqadar-ali/docshade/coords"
	"github.com/muqadar-ali/docshade/ocr"
)

func scaleForLetter(t *testing.T) coords.ScaleMap {
	t.Helper()
	// 300 DPI render of a US Letter page.
	m, err := coords.NewScaleMap(612, 792, 2550, 3300)
	if err != nil {
		t.Fatalf("NewScaleMap() error = %v", err)
	}
	return m
}

func scanResult(confidence float64) ocr.Result {
	return ocr.Result{
		InputID:   "page-0",
		PlainText: "CONFIDENTIAL",
		Words: []ocr.Word{{
			Text:       "CONFIDENTIAL",
			Bounds:     ocr.Region{X: 1000, Y: 300, Width: 600, Height: 80},
			Confidence: confidence,
		}},
	}
}

func TestOCRLocatorAcceptsAboveThreshold(t *testing.T) {
	dets := OCRLocator{}.Locate(scanResult(0.9), []string{"CONFIDENTIAL"}, scaleForLetter(t))
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1: %+v", len(dets), dets)
	}
	d := dets[0]
	if d.Source != SourceOCR {
		t.Fatalf("source = %q, want ocr", d.Source)
	}
	if d.Confidence != 0.9 {
		t.Fatalf("confidence not retained: %f", d.Confidence)
	}
}

func TestOCRLocatorDiscardsBelowThreshold(t *testing.T) {
	if dets := (OCRLocator{}).Locate(scanResult(0.1), []string{"CONFIDENTIAL"}, scaleForLetter(t)); len(dets) != 0 {
		t.Fatalf("low-confidence word must be discarded, got %+v", dets)
	}
}

func TestOCRLocatorCustomThreshold(t *testing.T) {
	l := OCRLocator{ConfidenceThreshold: 0.95}
	if dets := l.Locate(scanResult(0.9), []string{"CONFIDENTIAL"}, scaleForLetter(t)); len(dets) != 0 {
		t.Fatalf("0.9 must fail a 0.95 threshold, got %+v", dets)
	}
}

func TestOCRLocatorMapsPixelBoxToPageSpace(t *testing.T) {
	dets := OCRLocator{}.Locate(scanResult(0.9), []string{"CONFIDENTIAL"}, scaleForLetter(t))
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	b := dets[0].Box
	// 2550 px spans 612 pt, so the scale is 0.24 on both axes here, and
	// the Y axis flips: pixel row 300 is near the top of the page.
	if math.Abs(b.X0-240) > 1e-9 || math.Abs(b.X1-384) > 1e-9 {
		t.Fatalf("x mapping wrong: %v", b)
	}
	wantY1 := 792 - 300*0.24
	wantY0 := 792 - 380*0.24
	if math.Abs(b.Y1-wantY1) > 1e-9 || math.Abs(b.Y0-wantY0) > 1e-9 {
		t.Fatalf("y mapping wrong: %v, want [%.2f, %.2f]", b, wantY0, wantY1)
	}
	if !b.Inside(612, 792) {
		t.Fatalf("mapped box escapes page: %v", b)
	}
}

func TestOCRLocatorMultiWordWindow(t *testing.T) {
	res := ocr.Result{Words: []ocr.Word{
		{Text: "TOP", Bounds: ocr.Region{X: 10, Y: 10, Width: 50, Height: 20}, Confidence: 0.8},
		{Text: "SECRET", Bounds: ocr.Region{X: 70, Y: 10, Width: 90, Height: 20}, Confidence: 0.7},
	}}
	m, err := coords.NewScaleMap(612, 792, 612, 792)
	if err != nil {
		t.Fatalf("NewScaleMap() error = %v", err)
	}
	dets := OCRLocator{}.Locate(res, []string{"TOP SECRET"}, m)
	if len(dets) != 2 {
		t.Fatalf("got %d detections, want one per matched word: %+v", len(dets), dets)
	}
	if dets[0].Confidence != 0.8 || dets[1].Confidence != 0.7 {
		t.Fatalf("per-word confidence not retained: %+v", dets)
	}
}

func TestOCRLocatorSkipsBlankWords(t *testing.T) {
	res := ocr.Result{Words: []ocr.Word{
		{Text: "   ", Bounds: ocr.Region{X: 0, Y: 0, Width: 5, Height: 5}, Confidence: 0.99},
	}}
	m, _ := coords.NewScaleMap(612, 792, 612, 792)
	if dets := (OCRLocator{}).Locate(res, []string{" "}, m); len(dets) != 0 {
		t.Fatalf("blank OCR words must not match, got %+v", dets)
	}
}
