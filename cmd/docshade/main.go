package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/muqadar-ali/docshade/batch"
	"github.com/muqadar-ali/docshade/detect"
	"github.com/muqadar-ali/docshade/observability"
	_ "github.com/muqadar-ali/docshade/ocr/tesseract" // registers the default detection engine
	"github.com/muqadar-ali/docshade/pipeline"
	"github.com/muqadar-ali/docshade/report"
)

type options struct {
	inputs       []string
	outDir       string
	watermark    string
	patternsPath string
	dpi          int
	confidence   float64
	ocrTimeout   time.Duration
	languages    string
	reportPath   string
	verbose      bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docshade: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "docshade: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: docshade [flags] <pdf> [<pdf>...]\n")
		flag.PrintDefaults()
	}
	watermark := flag.String("watermark", pipeline.DefaultWatermarkText, "Watermark text; empty disables the overlay")
	patterns := flag.String("patterns", "", "File with redaction patterns, one per line; empty redacts nothing")
	dpi := flag.Int("dpi", 300, "Rasterization DPI for OCR detection")
	confidence := flag.Float64("confidence", detect.DefaultConfidenceThreshold, "Minimum OCR word confidence")
	ocrTimeout := flag.Duration("ocr-timeout", 90*time.Second, "Per-page OCR budget; on expiry the page degrades to digital-only")
	languages := flag.String("languages", "eng", "Comma-separated OCR language hints")
	outDir := flag.String("out", ".", "Directory for the protected output")
	reportPath := flag.String("report", "", "Write an HTML protection report to this path")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("missing pdf path")
	}
	opts.inputs = flag.Args()
	opts.outDir = *outDir
	opts.watermark = *watermark
	opts.patternsPath = *patterns
	opts.dpi = *dpi
	opts.confidence = *confidence
	opts.ocrTimeout = *ocrTimeout
	opts.languages = *languages
	opts.reportPath = *reportPath
	opts.verbose = *verbose
	return opts, nil
}

func run(opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := observability.Slog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	patterns, err := loadPatterns(opts.patternsPath)
	if err != nil {
		return err
	}

	cfg := pipeline.Config{
		Patterns:            patterns,
		WatermarkText:       opts.watermark,
		DPI:                 opts.dpi,
		ConfidenceThreshold: opts.confidence,
		OCRTimeout:          opts.ocrTimeout,
		OCRLanguages:        splitComma(opts.languages),
	}

	inputs := make([]batch.Input, 0, len(opts.inputs))
	for _, path := range opts.inputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		inputs = append(inputs, batch.Input{Name: filepath.Base(path), Data: data})
	}

	coord := batch.NewCoordinator(cfg, batch.WithLogger(log))
	res, err := coord.Run(ctx, inputs)
	if err != nil {
		return err
	}

	outPath := filepath.Join(opts.outDir, res.Name)
	if err := os.WriteFile(outPath, res.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("wrote %s\n", outPath)

	for _, entry := range res.Manifest.Documents {
		if entry.Error != "" {
			fmt.Fprintf(os.Stderr, "docshade: %s failed: %s\n", entry.Input, entry.Error)
			continue
		}
		for _, w := range entry.Warnings {
			fmt.Fprintf(os.Stderr, "docshade: %s: %s\n", entry.Input, w)
		}
	}

	if opts.reportPath != "" {
		html, err := report.HTML(res.Manifest)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.reportPath, html, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("wrote %s\n", opts.reportPath)
	}
	return nil
}

// loadPatterns reads a newline-delimited pattern file; an empty path means
// no redaction targets.
func loadPatterns(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	return detect.ParsePatterns(string(data)), nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
