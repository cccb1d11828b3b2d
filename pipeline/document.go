package pipeline

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/muqadar-ali/docshade/observability"
	"github.com/muqadar-ali/docshade/ocr"
	"github.com/muqadar-ali/docshade/pdf"
)

// Option configures a Processor.
type Option func(*Processor)

// WithLogger installs a logger. Defaults to a no-op logger.
func WithLogger(log observability.Logger) Option {
	return func(p *Processor) { p.log = log }
}

// WithEngine replaces the detection engine. Defaults to the registered
// default engine.
func WithEngine(engine ocr.Engine) Option {
	return func(p *Processor) { p.engine = engine }
}

// Processor runs the locate-redact-watermark pipeline over documents. Safe
// for concurrent use.
type Processor struct {
	cfg    Config
	engine ocr.Engine
	log    observability.Logger
}

// New builds a Processor for one batch configuration.
func New(cfg Config, opts ...Option) *Processor {
	p := &Processor{
		cfg:    cfg.withDefaults(),
		engine: ocr.DefaultEngine(),
		log:    observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DocumentResult aggregates the page results of one document.
type DocumentResult struct {
	Pages []PageResult
	// Warnings collects every page warning in page order.
	Warnings []Warning
}

// FailedPages returns the indices of pages that could not be processed.
func (r DocumentResult) FailedPages() []int {
	var failed []int
	for _, pg := range r.Pages {
		if pg.Failed() {
			failed = append(failed, pg.Index)
		}
	}
	return failed
}

// DegradedPages returns the indices of pages processed with digital-only
// detection results.
func (r DocumentResult) DegradedPages() []int {
	var degraded []int
	for _, pg := range r.Pages {
		if pg.OCRDegraded {
			degraded = append(degraded, pg.Index)
		}
	}
	return degraded
}

// Clean reports whether every page completed without failure or warning.
func (r DocumentResult) Clean() bool {
	return len(r.Warnings) == 0 && len(r.FailedPages()) == 0
}

// Process runs every page of doc through the pipeline. Pages run
// concurrently up to MaxPageWorkers; a page failure is recorded in its
// PageResult and does not stop the other pages. Only caller cancellation
// returns an error, and then no result is delivered.
func (p *Processor) Process(ctx context.Context, doc pdf.Document) (DocumentResult, error) {
	n := doc.PageCount()
	results := make([]PageResult, n)

	pp := &pageProcessor{
		cfg:    p.cfg,
		engine: p.engine,
		log:    p.log,
		ocrSem: semaphore.NewWeighted(p.cfg.MaxOCRConcurrent),
	}
	if p.cfg.OCRPerSecond > 0 {
		pp.limiter = rate.NewLimiter(p.cfg.OCRPerSecond, 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxPageWorkers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := doc.Page(i)
			if err != nil {
				results[i] = PageResult{
					Index: i,
					State: stateLoaded.String(),
					Err:   err,
				}
				return nil
			}
			results[i] = pp.process(gctx, page)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DocumentResult{}, fmt.Errorf("process aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return DocumentResult{}, fmt.Errorf("process aborted: %w", err)
	}

	res := DocumentResult{Pages: results}
	for _, pg := range results {
		res.Warnings = append(res.Warnings, pg.Warnings...)
	}
	sort.SliceStable(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].Page < res.Warnings[j].Page
	})
	p.log.Info("document processed",
		observability.Int("pages", n),
		observability.Int("failed", len(res.FailedPages())),
		observability.Int("degraded", len(res.DegradedPages())),
		observability.Int("warnings", len(res.Warnings)))
	return res, nil
}

// ProcessedDocument is the output of ProcessBytes: the rewritten PDF plus
// its per-page manifest.
type ProcessedDocument struct {
	Name   string
	Data   []byte
	Result DocumentResult
}

// ProcessBytes opens raw PDF bytes, runs the pipeline, and serializes the
// result. The name is carried through for batch packaging and reporting.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte, opts ...pdf.OpenOption) (ProcessedDocument, error) {
	doc, err := pdf.Open(data, append([]pdf.OpenOption{pdf.WithLogger(p.log)}, opts...)...)
	if err != nil {
		return ProcessedDocument{}, fmt.Errorf("%s: %w", name, err)
	}
	defer doc.Close()

	result, err := p.Process(ctx, doc)
	if err != nil {
		return ProcessedDocument{}, fmt.Errorf("%s: %w", name, err)
	}
	out, err := doc.Bytes()
	if err != nil {
		return ProcessedDocument{}, fmt.Errorf("%s: %w", name, err)
	}
	return ProcessedDocument{Name: name, Data: out, Result: result}, nil
}
