package pdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/muqadar-ali/docshade/coords"
	"github.com/muqadar-ali/docshade/observability"
)

// OpenOption configures Open.
type OpenOption func(*fileDocument)

// WithLogger installs a logger on the document.
func WithLogger(log observability.Logger) OpenOption {
	return func(d *fileDocument) { d.log = log }
}

// WithRasterizer replaces the default poppler-backed rasterizer.
func WithRasterizer(r Rasterizer) OpenOption {
	return func(d *fileDocument) { d.raster = r }
}

// Open parses raw PDF bytes into a Document. The bytes are staged in a
// temporary file because the underlying toolkits operate on files; Close
// removes it.
func Open(data []byte, opts ...OpenOption) (Document, error) {
	f, err := os.CreateTemp("", "docshade-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("stage pdf: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("stage pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("stage pdf: %w", err)
	}

	doc := &fileDocument{
		path:   path,
		conf:   model.NewDefaultConfiguration(),
		log:    observability.NopLogger{},
		raster: PopplerRasterizer{},
	}
	for _, opt := range opts {
		opt(doc)
	}

	ctx, err := pdfapi.ReadContextFile(path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := pdfapi.ValidateContext(ctx); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}
	doc.ctx = ctx
	return doc, nil
}

type fileDocument struct {
	path   string
	conf   *model.Configuration
	ctx    *model.Context
	log    observability.Logger
	raster Rasterizer

	// mu guards the staged file: pages may be read concurrently, but a
	// stamp rewrites the file in place and must be exclusive.
	mu sync.RWMutex
}

func (d *fileDocument) PageCount() int { return d.ctx.PageCount }

func (d *fileDocument) Page(index int) (Page, error) {
	if index < 0 || index >= d.ctx.PageCount {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, d.ctx.PageCount)
	}
	// PageDict resolves inherited attributes; the media box may live on an
	// ancestor Pages node.
	_, _, attrs, err := d.ctx.PageDict(index+1, false)
	if err != nil {
		return nil, fmt.Errorf("page %d dict: %v: %w", index, err, ErrUnreadablePage)
	}
	if attrs == nil || attrs.MediaBox == nil {
		return nil, fmt.Errorf("page %d has no media box: %w", index, ErrUnreadablePage)
	}
	return &filePage{
		doc:    d,
		index:  index,
		width:  attrs.MediaBox.Width(),
		height: attrs.MediaBox.Height(),
	}, nil
}

func (d *fileDocument) Bytes() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, err := os.ReadFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return data, nil
}

func (d *fileDocument) Close() error {
	return os.Remove(d.path)
}

type filePage struct {
	doc    *fileDocument
	index  int
	width  float64
	height float64
}

func (p *filePage) Index() int      { return p.index }
func (p *filePage) Width() float64  { return p.width }
func (p *filePage) Height() float64 { return p.height }

func (p *filePage) Rasterize(ctx context.Context, dpi int) (Raster, error) {
	p.doc.mu.RLock()
	defer p.doc.mu.RUnlock()
	return p.doc.raster.Render(ctx, p.doc.path, p.index, dpi)
}

// FillRect draws the box by stamping a generated opaque image at absolute
// coordinates, the same mechanism pdfcpu uses for signature stamps.
func (p *filePage) FillRect(box coords.BBox) error {
	if box.Empty() {
		return fmt.Errorf("fill rect: empty box %v", box)
	}
	w := int(math.Ceil(box.Width()))
	h := int(math.Ceil(box.Height()))
	stamp, err := writeMaskImage(w, h)
	if err != nil {
		return fmt.Errorf("fill rect: %w", err)
	}
	defer os.Remove(stamp)

	wm, err := pdfcpu.ParseImageWatermarkDetails(stamp, maskStampDesc, true, types.POINTS)
	if err != nil {
		return fmt.Errorf("fill rect: %w", err)
	}
	wm.Dx = box.X0
	wm.Dy = box.Y0
	return p.stamp(wm)
}

// RemoveText reports the pdfcpu adapter's limitation: matched regions are
// masked visually, but the text objects underneath stay in the content
// stream. Callers surface this to the user instead of hiding it.
func (p *filePage) RemoveText(box coords.BBox) error {
	return fmt.Errorf("page %d box %v: %w", p.index, box, ErrRemoveTextUnsupported)
}

func (p *filePage) WatermarkText(text string, style TextStyle) error {
	if text == "" {
		return nil
	}
	wm, err := pdfcpu.ParseTextWatermarkDetails(text, textStampDesc(style), true, types.POINTS)
	if err != nil {
		return fmt.Errorf("watermark: %w", err)
	}
	return p.stamp(wm)
}

func (p *filePage) stamp(wm *model.Watermark) error {
	p.doc.mu.Lock()
	defer p.doc.mu.Unlock()
	pages := []string{strconv.Itoa(p.index + 1)}
	if err := pdfapi.AddWatermarksFile(p.doc.path, "", pages, wm, p.doc.conf); err != nil {
		return fmt.Errorf("stamp page %d: %w", p.index, err)
	}
	return nil
}
