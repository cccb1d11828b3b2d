package pdf

import (
	"testing"

	lpdf "github.com/ledongthuc/pdf"
)

func run(s string, x, y, w, fs float64) lpdf.Text {
	return lpdf.Text{S: s, X: x, Y: y, W: w, FontSize: fs}
}

func TestGroupWordsSplitsOnSpaces(t *testing.T) {
	words := groupWords([]lpdf.Text{run("SSN 123-45-6789", 72, 700, 150, 12)})
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2: %+v", len(words), words)
	}
	if words[0].Text != "SSN" || words[1].Text != "123-45-6789" {
		t.Fatalf("unexpected words: %q %q", words[0].Text, words[1].Text)
	}
	for _, w := range words {
		if w.Box.Empty() {
			t.Fatalf("word %q has empty box", w.Text)
		}
	}
}

func TestGroupWordsMergesAdjacentRuns(t *testing.T) {
	// One word emitted as two consecutive runs, as subsetted fonts often do.
	words := groupWords([]lpdf.Text{
		run("CONFID", 100, 500, 60, 12),
		run("ENTIAL", 160, 500, 60, 12),
	})
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1: %+v", len(words), words)
	}
	if words[0].Text != "CONFIDENTIAL" {
		t.Fatalf("got %q, want CONFIDENTIAL", words[0].Text)
	}
	if words[0].Box.X0 != 100 || words[0].Box.X1 != 220 {
		t.Fatalf("box does not span both runs: %v", words[0].Box)
	}
}

func TestGroupWordsSeparatesLines(t *testing.T) {
	words := groupWords([]lpdf.Text{
		run("top", 100, 500, 30, 12),
		run("bottom", 100, 480, 60, 12),
	})
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2: %+v", len(words), words)
	}
	// Reading order: higher baseline first.
	if words[0].Text != "top" || words[1].Text != "bottom" {
		t.Fatalf("unexpected order: %q %q", words[0].Text, words[1].Text)
	}
	if words[0].Box.Y0 <= words[1].Box.Y1 {
		t.Fatalf("line boxes overlap: %v vs %v", words[0].Box, words[1].Box)
	}
}

func TestGroupWordsBoxStraddlesBaseline(t *testing.T) {
	words := groupWords([]lpdf.Text{run("x", 10, 100, 6, 10)})
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	b := words[0].Box
	if b.Y0 != 98 || b.Y1 != 108 {
		t.Fatalf("box %v, want y0=98 y1=108", b)
	}
}

func TestGroupWordsIdempotent(t *testing.T) {
	items := []lpdf.Text{
		run("Account", 72, 700, 70, 12),
		run("SSN", 150, 700, 30, 12),
		run("more", 72, 680, 40, 12),
	}
	first := groupWords(items)
	second := groupWords(items)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("word %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGroupWordsEmpty(t *testing.T) {
	if got := groupWords(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %+v", got)
	}
}
