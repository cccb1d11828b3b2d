// Package tesseract provides the gosseract-backed implementation of the
// ocr.Engine contract. It requires the Tesseract runtime to be installed on
// the host system.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/muqadar-ali/docshade/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewEngine())
}

// Engine implements ocr.Engine and ocr.BatchEngine using the gosseract
// client.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize performs OCR on a single page image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}
	c := e.clientFactory()
	defer c.Close()
	return recognizeWithClient(c, in)
}

// RecognizeBatch processes multiple inputs sequentially. Each input gets a
// fresh client so a failing image cannot poison the next one.
func (e *Engine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Result, error) {
	results := make([]ocr.Result, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		res, err := e.Recognize(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func recognizeWithClient(c *gosseract.Client, in ocr.Input) (ocr.Result, error) {
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: strings.TrimSpace(text),
		Words:     extractWords(c),
	}, nil
}

// extractWords pulls word-level boxes out of the client. Tesseract reports
// confidence in [0, 100]; the contract uses [0, 1].
func extractWords(c *gosseract.Client) []ocr.Word {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil
	}
	words := make([]ocr.Word, 0, len(boxes))
	for _, b := range boxes {
		w := strings.TrimSpace(b.Word)
		if w == "" {
			continue
		}
		words = append(words, ocr.Word{
			Text: w,
			Bounds: ocr.Region{
				X:      float64(b.Box.Min.X),
				Y:      float64(b.Box.Min.Y),
				Width:  float64(b.Box.Dx()),
				Height: float64(b.Box.Dy()),
			},
			Confidence: b.Confidence / 100.0,
		})
	}
	return words
}
