package watermark

import (
	"fmt"

	"github.com/muqadar-ali/docshade/pdf"
)

// Fixed overlay style: diagonal gray text at half opacity, centered on the
// page before rotation.
const (
	Rotation = 45.0
	Opacity  = 0.5
	Fill     = "#808080"
)

// Composer writes the watermark overlay onto pages. The zero value with an
// empty Text applies nothing.
type Composer struct {
	Text string
}

// Apply computes the adaptive font size from the page geometry and writes
// the overlay. An empty watermark text is valid and applies nothing. The
// overlay must be applied after redaction so masks are never obscured.
func (c Composer) Apply(page pdf.Page) error {
	if c.Text == "" {
		return nil
	}
	size, err := FontSize(page.Width(), page.Height())
	if err != nil {
		return err
	}
	if err := page.WatermarkText(c.Text, pdf.TextStyle{
		Points:   size,
		Rotation: Rotation,
		Opacity:  Opacity,
		Fill:     Fill,
	}); err != nil {
		return fmt.Errorf("apply watermark: %w", err)
	}
	return nil
}
