// Package batch coordinates the pipeline across multiple input files and
// packages the deliverable: a single processed PDF when the batch has one
// input, a zip archive when it has several. Every document is processed
// independently, each under its own configuration when one is supplied.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/muqadar-ali/docshade/observability"
	"github.com/muqadar-ali/docshade/pdf"
	"github.com/muqadar-ali/docshade/pipeline"
)

const (
	// OutputPrefix marks processed files, preserving the original name.
	OutputPrefix = "protected_"
	// ArchiveName is the deliverable name for multi-document batches.
	ArchiveName = "protected_batch.zip"

	defaultWorkers = 2
)

// Input is one document submitted to a batch. A nil Config inherits the
// coordinator's defaults.
type Input struct {
	Name   string
	Data   []byte
	Config *pipeline.Config
}

// DocumentProcessor is the slice of the pipeline the coordinator needs.
type DocumentProcessor interface {
	ProcessBytes(ctx context.Context, name string, data []byte, opts ...pdf.OpenOption) (pipeline.ProcessedDocument, error)
}

// ProcessorFactory builds a processor for one document's configuration.
type ProcessorFactory func(pipeline.Config) DocumentProcessor

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger installs a logger. Defaults to a no-op logger.
func WithLogger(log observability.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithWorkers bounds concurrent documents. Defaults to 2.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithFactory replaces the pipeline-backed processor factory.
func WithFactory(f ProcessorFactory) Option {
	return func(c *Coordinator) { c.factory = f }
}

// Coordinator fans a batch out over documents and assembles the deliverable.
type Coordinator struct {
	defaults pipeline.Config
	log      observability.Logger
	workers  int
	factory  ProcessorFactory
}

// NewCoordinator builds a Coordinator with the given per-batch defaults.
func NewCoordinator(defaults pipeline.Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		defaults: defaults,
		log:      observability.NopLogger{},
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		log := c.log
		c.factory = func(cfg pipeline.Config) DocumentProcessor {
			return pipeline.New(cfg, pipeline.WithLogger(log))
		}
	}
	return c
}

// Result is the batch deliverable plus its manifest.
type Result struct {
	// Name is the deliverable filename: the prefixed input name for a
	// single document, ArchiveName for several.
	Name string
	Data []byte
	// Archive reports whether Data is a zip bundle.
	Archive  bool
	Manifest Manifest
}

// Run processes every input and packages the successful outputs. Individual
// document failures are recorded in the manifest and do not stop the batch;
// Run errors only when the context is cancelled, the batch is empty, or no
// document succeeded.
func (c *Coordinator) Run(ctx context.Context, inputs []Input) (Result, error) {
	if len(inputs) == 0 {
		return Result{}, errors.New("batch: no inputs")
	}

	docs := make([]pipeline.ProcessedDocument, len(inputs))
	failures := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := c.defaults
			if in.Config != nil {
				cfg = *in.Config
			}
			docs[i], failures[i] = c.factory(cfg).ProcessBytes(gctx, in.Name, in.Data)
			if failures[i] != nil {
				c.log.Warn("document failed",
					observability.String("name", in.Name),
					observability.Error("cause", failures[i]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("batch aborted: %w", err)
	}

	manifest := buildManifest(inputs, docs, failures)
	ok := 0
	for i := range inputs {
		if failures[i] == nil {
			ok++
		}
	}
	if ok == 0 {
		return Result{Manifest: manifest}, fmt.Errorf("batch: all %d document(s) failed", len(inputs))
	}

	c.log.Info("batch complete",
		observability.Int("documents", len(inputs)),
		observability.Int("failed", len(inputs)-ok))

	if len(inputs) == 1 {
		return Result{
			Name:     OutputPrefix + inputs[0].Name,
			Data:     docs[0].Data,
			Manifest: manifest,
		}, nil
	}
	data, err := packArchive(docs, failures)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Name:     ArchiveName,
		Data:     data,
		Archive:  true,
		Manifest: manifest,
	}, nil
}

// packArchive bundles every successful document, preserving input order and
// prefixing each original name.
func packArchive(docs []pipeline.ProcessedDocument, failures []error) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, doc := range docs {
		if failures[i] != nil {
			continue
		}
		w, err := zw.Create(OutputPrefix + doc.Name)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", doc.Name, err)
		}
		if _, err := w.Write(doc.Data); err != nil {
			return nil, fmt.Errorf("archive %s: %w", doc.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	return buf.Bytes(), nil
}
