// Package report renders a batch manifest for humans: Markdown for logs and
// terminals, HTML for embedding in a delivery page.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/muqadar-ali/docshade/batch"
)

// Markdown renders the manifest as a GFM document: one summary table plus a
// warnings section per document that has any.
func Markdown(m batch.Manifest) string {
	var b strings.Builder
	b.WriteString("# Protection report\n\n")
	if !m.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s.\n\n", m.GeneratedAt.Format(time.RFC3339))
	}

	b.WriteString("| Input | Output | Pages | Masks | Status |\n")
	b.WriteString("|---|---|---:|---:|---|\n")
	for _, e := range m.Documents {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %s |\n",
			e.Input, orDash(e.Output), e.Pages, e.Masks, status(e))
	}

	for _, e := range m.Documents {
		if e.Error == "" && len(e.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", e.Input)
		if e.Error != "" {
			fmt.Fprintf(&b, "- failed: %s\n", e.Error)
			continue
		}
		for _, w := range e.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		if e.Digest != "" {
			fmt.Fprintf(&b, "- sha3-256: `%s`\n", e.Digest)
		}
	}
	return b.String()
}

// HTML renders the manifest through goldmark with GFM tables enabled.
func HTML(m batch.Manifest) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(m)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func status(e batch.Entry) string {
	switch {
	case e.Error != "":
		return "failed"
	case len(e.FailedPages) > 0:
		return fmt.Sprintf("partial (%d page(s) failed)", len(e.FailedPages))
	case len(e.DegradedPages) > 0:
		return fmt.Sprintf("degraded (%d page(s) digital-only)", len(e.DegradedPages))
	default:
		return "ok"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
