package pdf

import (
	"fmt"
	"sort"
	"unicode"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/muqadar-ali/docshade/coords"
)

// Line grouping tolerances, in points. Character runs whose baselines differ
// by more than lineTolerance belong to different lines; a horizontal gap
// wider than gapFactor times the font size starts a new word.
const (
	lineTolerance   = 2.0
	gapFactor       = 0.3
	defaultFontSize = 10.0
)

// Words extracts the positioned spans of the digital text layer.
func (p *filePage) Words() (words []Word, err error) {
	// ledongthuc/pdf panics on some malformed font structures; a page we
	// cannot parse is an unreadable page, not a crash.
	defer func() {
		if r := recover(); r != nil {
			words = nil
			err = fmt.Errorf("page %d text layer: %v: %w", p.index, r, ErrUnreadablePage)
		}
	}()

	p.doc.mu.RLock()
	defer p.doc.mu.RUnlock()

	f, r, err := lpdf.Open(p.doc.path)
	if err != nil {
		return nil, fmt.Errorf("page %d text layer: %v: %w", p.index, err, ErrUnreadablePage)
	}
	defer f.Close()

	if p.index+1 > r.NumPage() {
		return nil, fmt.Errorf("page %d missing from text layer: %w", p.index, ErrUnreadablePage)
	}
	pg := r.Page(p.index + 1)
	if pg.V.IsNull() {
		return nil, fmt.Errorf("page %d dictionary is null: %w", p.index, ErrUnreadablePage)
	}
	return groupWords(pg.Content().Text), nil
}

type charBox struct {
	ch       rune
	x0, x1   float64
	baseline float64
	fontSize float64
}

// explode splits text runs into per-character boxes. Run widths are divided
// evenly across the characters; precise glyph metrics are not available at
// this layer.
func explode(items []lpdf.Text) []charBox {
	var chars []charBox
	for _, item := range items {
		runes := []rune(item.S)
		if len(runes) == 0 {
			continue
		}
		fs := item.FontSize
		if fs <= 0 {
			fs = defaultFontSize
		}
		charWidth := item.W / float64(len(runes))
		x := item.X
		for _, ch := range runes {
			chars = append(chars, charBox{
				ch:       ch,
				x0:       x,
				x1:       x + charWidth,
				baseline: item.Y,
				fontSize: fs,
			})
			x += charWidth
		}
	}
	return chars
}

// groupWords assembles characters into words: reading order top-to-bottom,
// left-to-right, split at whitespace, baseline changes, and wide gaps. Word
// boxes extend from 20% of the font size below the baseline to 80% above it,
// in page coordinates (bottom-left origin).
func groupWords(items []lpdf.Text) []Word {
	chars := explode(items)
	if len(chars) == 0 {
		return nil
	}
	sort.SliceStable(chars, func(i, j int) bool {
		if di := chars[i].baseline - chars[j].baseline; di > lineTolerance || di < -lineTolerance {
			return chars[i].baseline > chars[j].baseline
		}
		return chars[i].x0 < chars[j].x0
	})

	var words []Word
	var cur []charBox
	flush := func() {
		if len(cur) == 0 {
			return
		}
		text := make([]rune, 0, len(cur))
		fs := 0.0
		x0, x1 := cur[0].x0, cur[0].x1
		base := cur[0].baseline
		for _, c := range cur {
			text = append(text, c.ch)
			if c.fontSize > fs {
				fs = c.fontSize
			}
			if c.x0 < x0 {
				x0 = c.x0
			}
			if c.x1 > x1 {
				x1 = c.x1
			}
		}
		words = append(words, Word{
			Text: string(text),
			Box:  coords.New(x0, base-0.2*fs, x1, base+0.8*fs),
		})
		cur = nil
	}

	for _, c := range chars {
		if unicode.IsSpace(c.ch) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			sameLine := c.baseline-prev.baseline <= lineTolerance && prev.baseline-c.baseline <= lineTolerance
			gap := c.x0 - prev.x1
			maxGap := gapFactor * prev.fontSize
			if maxGap < 1 {
				maxGap = 1
			}
			if !sameLine || gap > maxGap {
				flush()
			}
		}
		cur = append(cur, c)
	}
	flush()
	return words
}
