// Package consolidate runs the PDF batch: every input PDF is extracted,
// assembled into a competition record and collected for export.
package consolidate

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/okian/bandboard/internal/adapters/pdf"
	"github.com/okian/bandboard/internal/domain/assemble"
	"github.com/okian/bandboard/internal/domain/extract"
	"github.com/okian/bandboard/internal/domain/model"
	"github.com/okian/bandboard/pkg/logger"
	"github.com/okian/bandboard/pkg/metrics"
)

// Document is an open PDF the extractor can read.
type Document interface {
	extract.PageSource
	Close() error
}

// Opener opens the PDF at path.
type Opener func(path string) (Document, error)

// Skip records a file that produced no competition record.
type Skip struct {
	File   string
	Reason string
}

// Result is the outcome of a batch, in input order.
type Result struct {
	Competitions []model.CompetitionRecord
	Skipped      []Skip
}

// Consolidator processes PDFs one at a time.
type Consolidator struct {
	open   Opener
	logger logger.Logger
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithOpener replaces the PDF opener.
func WithOpener(open Opener) Option {
	return func(c *Consolidator) {
		c.open = open
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Consolidator) {
		c.logger = l
	}
}

// New creates a Consolidator backed by the PDF adapter.
func New(opts ...Option) *Consolidator {
	c := &Consolidator{open: openPDF}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("consolidate")
	}
	return c
}

func openPDF(path string) (Document, error) {
	d, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Consolidate processes files sequentially. A file that fails or yields no
// rows is skipped. Cancellation is checked between files; the partial
// result is returned together with the context error.
func (c *Consolidator) Consolidate(ctx context.Context, files []string) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoInputs
	}

	res := &Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("consolidation interrupted: %w", err)
		}

		record, err := c.ProcessFile(ctx, path)
		if err != nil {
			c.logger.Warn(ctx, "skipping pdf", logger.String("file", path), logger.Error(err))
			res.Skipped = append(res.Skipped, Skip{File: path, Reason: err.Error()})
			continue
		}
		res.Competitions = append(res.Competitions, *record)
	}
	return res, nil
}

// ProcessFile extracts and assembles one PDF.
func (c *Consolidator) ProcessFile(ctx context.Context, path string) (*model.CompetitionRecord, error) {
	start := time.Now()
	record, err := c.processFile(ctx, path)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordPdfParsed(outcome, float64(time.Since(start).Milliseconds()))
	return record, err
}

func (c *Consolidator) processFile(ctx context.Context, path string) (*model.CompetitionRecord, error) {
	doc, err := c.open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			c.logger.Warn(ctx, "failed to close pdf", logger.String("file", path), logger.Error(cerr))
		}
	}()

	rows, method, err := extract.Extract(doc)
	if err != nil {
		return nil, err
	}
	metrics.RecordRowsExtracted(string(method), len(rows))
	c.logger.Debug(ctx, "extracted rows",
		logger.String("file", path),
		logger.String("method", string(method)),
		logger.Int("rows", len(rows)))

	record, err := assemble.Assemble(filepath.Base(path), rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return record, nil
}
