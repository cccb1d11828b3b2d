package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/muqadar-ali/docshade/coords"
	"github.com/muqadar-ali/docshade/ocr"
	"github.com/muqadar-ali/docshade/pdf"
)

// fakePage records mutations in call order so tests can assert the
// locate-redact-watermark sequencing.
type fakePage struct {
	index    int
	w, h     float64
	words    []pdf.Word
	wordsErr error

	mu  sync.Mutex
	ops []string
}

func (p *fakePage) Index() int      { return p.index }
func (p *fakePage) Width() float64  { return p.w }
func (p *fakePage) Height() float64 { return p.h }

func (p *fakePage) Words() ([]pdf.Word, error) {
	if p.wordsErr != nil {
		return nil, p.wordsErr
	}
	return p.words, nil
}

func (p *fakePage) Rasterize(ctx context.Context, dpi int) (pdf.Raster, error) {
	if err := ctx.Err(); err != nil {
		return pdf.Raster{}, err
	}
	return pdf.Raster{
		PNG:    []byte("png"),
		Width:  int(p.w / 72 * float64(dpi)),
		Height: int(p.h / 72 * float64(dpi)),
		DPI:    dpi,
	}, nil
}

func (p *fakePage) record(op string) {
	p.mu.Lock()
	p.ops = append(p.ops, op)
	p.mu.Unlock()
}

func (p *fakePage) FillRect(box coords.BBox) error {
	p.record("fill")
	return nil
}

func (p *fakePage) RemoveText(box coords.BBox) error {
	p.record("remove")
	return pdf.ErrRemoveTextUnsupported
}

func (p *fakePage) WatermarkText(text string, style pdf.TextStyle) error {
	p.record("watermark " + text)
	return nil
}

type fakeDoc struct {
	pages []*fakePage
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Page(index int) (pdf.Page, error) {
	return d.pages[index], nil
}

func (d *fakeDoc) Bytes() ([]byte, error) { return []byte("%PDF"), nil }
func (d *fakeDoc) Close() error           { return nil }

// funcEngine adapts a function to the detection engine contract.
type funcEngine struct {
	recognize func(ctx context.Context, in ocr.Input) (ocr.Result, error)
}

func (e funcEngine) Name() string { return "fake" }

func (e funcEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return e.recognize(ctx, in)
}

func emptyEngine() ocr.Engine {
	return funcEngine{recognize: func(ctx context.Context, in ocr.Input) (ocr.Result, error) {
		return ocr.Result{InputID: in.ID}, nil
	}}
}

func letterPage(index int, words ...pdf.Word) *fakePage {
	return &fakePage{index: index, w: 612, h: 792, words: words}
}

func ssnWord() pdf.Word {
	return pdf.Word{Text: "SSN:", Box: coords.New(100, 700, 130, 710)}
}

func TestRedactionPrecedesWatermark(t *testing.T) {
	page := letterPage(0, ssnWord())
	doc := &fakeDoc{pages: []*fakePage{page}}

	proc := New(Config{
		Patterns:      []string{"SSN"},
		WatermarkText: DefaultWatermarkText,
	}, WithEngine(emptyEngine()))

	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	pg := res.Pages[0]
	if pg.Err != nil {
		t.Fatalf("page error: %v", pg.Err)
	}
	if pg.State != "done" {
		t.Fatalf("state = %q, want done", pg.State)
	}
	if pg.DigitalDetections != 1 || pg.MasksDrawn != 1 {
		t.Fatalf("digital=%d masks=%d, want 1/1", pg.DigitalDetections, pg.MasksDrawn)
	}

	sawWatermark := false
	for _, op := range page.ops {
		if op == "watermark "+DefaultWatermarkText {
			sawWatermark = true
		}
		if op == "fill" && sawWatermark {
			t.Fatalf("mask drawn after watermark: %v", page.ops)
		}
	}
	if !sawWatermark {
		t.Fatalf("no watermark drawn: %v", page.ops)
	}
}

func TestEmptyWatermarkTextRedactsOnly(t *testing.T) {
	page := letterPage(0, ssnWord())
	doc := &fakeDoc{pages: []*fakePage{page}}

	proc := New(Config{Patterns: []string{"SSN"}}, WithEngine(emptyEngine()))
	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Pages[0].MasksDrawn != 1 {
		t.Fatalf("masks = %d, want 1", res.Pages[0].MasksDrawn)
	}
	for _, op := range page.ops {
		if op != "fill" && op != "remove" {
			t.Fatalf("unexpected op %q", op)
		}
	}
}

func TestEmptyPatternsWatermarksOnly(t *testing.T) {
	page := letterPage(0)
	page.wordsErr = errors.New("must not be consulted")
	doc := &fakeDoc{pages: []*fakePage{page}}

	proc := New(Config{WatermarkText: "DRAFT"}, WithEngine(emptyEngine()))
	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	pg := res.Pages[0]
	if pg.Err != nil {
		t.Fatalf("page error: %v", pg.Err)
	}
	if pg.MasksDrawn != 0 {
		t.Fatalf("masks = %d, want 0", pg.MasksDrawn)
	}
	if len(page.ops) != 1 || page.ops[0] != "watermark DRAFT" {
		t.Fatalf("ops = %v, want only the watermark", page.ops)
	}
}

func TestOCRTimeoutDegradesSinglePage(t *testing.T) {
	const slow = 2
	pages := make([]*fakePage, 5)
	for i := range pages {
		pages[i] = letterPage(i, ssnWord())
	}
	doc := &fakeDoc{pages: pages}

	engine := funcEngine{recognize: func(ctx context.Context, in ocr.Input) (ocr.Result, error) {
		if in.PageIndex == slow {
			<-ctx.Done()
			return ocr.Result{}, ctx.Err()
		}
		return ocr.Result{InputID: in.ID}, nil
	}}

	proc := New(Config{
		Patterns:      []string{"SSN"},
		WatermarkText: DefaultWatermarkText,
		OCRTimeout:    50 * time.Millisecond,
	}, WithEngine(engine))

	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, pg := range res.Pages {
		if pg.Err != nil {
			t.Fatalf("page %d failed: %v", pg.Index, pg.Err)
		}
		if pg.MasksDrawn != 1 {
			t.Fatalf("page %d masks = %d, want the digital hit", pg.Index, pg.MasksDrawn)
		}
		if pg.State != "done" {
			t.Fatalf("page %d state = %q", pg.Index, pg.State)
		}
	}
	if got := res.DegradedPages(); len(got) != 1 || got[0] != slow {
		t.Fatalf("degraded = %v, want [%d]", got, slow)
	}
	var found bool
	for _, w := range res.Warnings {
		if w.Kind == WarnOCRDegraded && w.Page == slow {
			found = true
		}
	}
	if !found {
		t.Fatalf("no %s warning for page %d: %v", WarnOCRDegraded, slow, res.Warnings)
	}
}

func TestUnreadablePageFailsAlone(t *testing.T) {
	pages := []*fakePage{
		letterPage(0, ssnWord()),
		letterPage(1),
		letterPage(2, ssnWord()),
	}
	pages[1].wordsErr = fmt.Errorf("page 1: %w", pdf.ErrUnreadablePage)
	doc := &fakeDoc{pages: pages}

	proc := New(Config{
		Patterns:      []string{"SSN"},
		WatermarkText: DefaultWatermarkText,
	}, WithEngine(emptyEngine()))

	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := res.FailedPages(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("failed = %v, want [1]", got)
	}
	if !errors.Is(res.Pages[1].Err, pdf.ErrUnreadablePage) {
		t.Fatalf("page 1 err = %v, want ErrUnreadablePage", res.Pages[1].Err)
	}
	if res.Pages[0].State != "done" || res.Pages[2].State != "done" {
		t.Fatalf("neighbors not done: %q %q", res.Pages[0].State, res.Pages[2].State)
	}
}

func TestTextRemovalLimitationSurfaced(t *testing.T) {
	page := letterPage(0, ssnWord())
	doc := &fakeDoc{pages: []*fakePage{page}}

	proc := New(Config{Patterns: []string{"SSN"}}, WithEngine(emptyEngine()))
	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	var found bool
	for _, w := range res.Warnings {
		if w.Kind == WarnTextNotRemoved {
			found = true
		}
	}
	if !found {
		t.Fatalf("limitation not surfaced: %v", res.Warnings)
	}
}

func TestInvalidGeometryFailsPage(t *testing.T) {
	page := &fakePage{index: 0, w: 0, h: 792}
	doc := &fakeDoc{pages: []*fakePage{page}}

	proc := New(Config{WatermarkText: "X"}, WithEngine(emptyEngine()))
	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Pages[0].Err == nil {
		t.Fatal("want geometry error")
	}
	if len(page.ops) != 0 {
		t.Fatalf("mutations on a degenerate page: %v", page.ops)
	}
}

func TestCancelledContextAbortsWithoutOutput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &fakeDoc{pages: []*fakePage{letterPage(0, ssnWord())}}
	proc := New(Config{Patterns: []string{"SSN"}}, WithEngine(emptyEngine()))

	if _, err := proc.Process(ctx, doc); err == nil {
		t.Fatal("want error on cancelled context")
	}
}

func TestOCRDetectionsMapped(t *testing.T) {
	page := letterPage(0)
	doc := &fakeDoc{pages: []*fakePage{page}}

	engine := funcEngine{recognize: func(ctx context.Context, in ocr.Input) (ocr.Result, error) {
		return ocr.Result{
			InputID: in.ID,
			Words: []ocr.Word{{
				Text:       "CONFIDENTIAL",
				Bounds:     ocr.Region{X: 100, Y: 100, Width: 400, Height: 50},
				Confidence: 0.92,
			}},
		}, nil
	}}

	proc := New(Config{
		Patterns:      []string{"CONFIDENTIAL"},
		WatermarkText: DefaultWatermarkText,
	}, WithEngine(engine))

	res, err := proc.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	pg := res.Pages[0]
	if pg.OCRDetections != 1 {
		t.Fatalf("ocr detections = %d, want 1", pg.OCRDetections)
	}
	if pg.MasksDrawn != 1 {
		t.Fatalf("masks = %d, want 1", pg.MasksDrawn)
	}
}

func TestProcessBytesRejectsGarbage(t *testing.T) {
	proc := New(Config{}, WithEngine(emptyEngine()))
	if _, err := proc.ProcessBytes(context.Background(), "junk.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("want error for non-PDF input")
	}
}
