// Package batch runs the F.931 engine over a set of documents: it linearizes
// PDFs, extracts one record per document in parallel and consolidates them.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/f931-consolidator/internal/consolidate"
	"github.com/a3tai/f931-consolidator/internal/form931"
	"github.com/a3tai/f931-consolidator/internal/pdf"
)

// TextSource lists documents and linearizes their text
type TextSource interface {
	ListDocuments(directory string) ([]pdf.FileInfo, error)
	ReadDocument(path string) (*pdf.TextResult, error)
}

// Processor extracts and consolidates batches of documents. It is safe for
// concurrent use; each call works on its own batch.
type Processor struct {
	extractor *form931.Extractor
	source    TextSource
	workers   int
	logger    *slog.Logger
}

// Option configures a Processor
type Option func(*Processor)

// WithSource sets where LoadDirectory and ExtractDocument read PDFs from
func WithSource(source TextSource) Option {
	return func(p *Processor) {
		p.source = source
	}
}

// WithWorkers bounds the number of documents processed at once
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger for batch events
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProcessor creates a processor around an extractor
func NewProcessor(extractor *form931.Extractor, opts ...Option) *Processor {
	p := &Processor{
		extractor: extractor,
		workers:   runtime.NumCPU(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extractor returns the extractor the processor applies
func (p *Processor) Extractor() *form931.Extractor {
	return p.extractor
}

// Result is the outcome of one batch
type Result struct {
	ID            uuid.UUID           `json:"id"`
	Records       []form931.Record    `json:"records"`
	Consolidation *consolidate.Result `json:"consolidation"`
	Warnings      []form931.Warning   `json:"warnings,omitempty"`

	rules form931.RuleSet
}

// Tables pivots every company of the batch, in first-seen order
func (r *Result) Tables() []*consolidate.Table {
	groups := r.Consolidation.Companies()
	tables := make([]*consolidate.Table, 0, len(groups))
	for _, g := range groups {
		tables = append(tables, consolidate.BuildTable(g, r.rules))
	}
	return tables
}

// Table pivots one company, looked up by any spelling of its key
func (r *Result) Table(company string) (*consolidate.Table, bool) {
	g, ok := r.Consolidation.Find(company)
	if !ok {
		return nil, false
	}
	return consolidate.BuildTable(g, r.rules), true
}

// Process extracts every document and consolidates the records. Submission
// order is the slice order: each document's Seq is set to its index. A
// cancelled context discards the whole batch.
func (p *Processor) Process(ctx context.Context, docs []form931.RawText) (*Result, error) {
	start := time.Now()
	id := uuid.New()

	records := make([]form931.Record, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc.Seq = i
			records[i] = p.extractor.Extract(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.logger.Warn("batch.extract.cancelled", "batch_id", id.String(), "err", err)
		return nil, fmt.Errorf("batch %s: %w", id, err)
	}

	cons := consolidate.Consolidate(records)

	var warnings []form931.Warning
	for _, rec := range records {
		warnings = append(warnings, rec.Warnings...)
	}
	warnings = append(warnings, cons.Warnings()...)

	result := &Result{
		ID:            id,
		Records:       records,
		Consolidation: cons,
		Warnings:      dedupeWarnings(warnings),
		rules:         p.extractor.Rules(),
	}

	p.logger.Info("batch.extract.ok",
		"batch_id", id.String(),
		"documents", len(docs),
		"companies", len(cons.Order),
		"excluded", len(cons.Excluded),
		"skipped", len(cons.Skipped),
		"warnings", len(result.Warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// LoadDirectory linearizes every PDF in directory, in name order. A PDF that
// cannot be read yields empty text and an UnreadableDocument warning.
func (p *Processor) LoadDirectory(ctx context.Context, directory string) ([]form931.RawText, []form931.Warning, error) {
	if p.source == nil {
		return nil, nil, fmt.Errorf("no document source configured")
	}

	files, err := p.source.ListDocuments(directory)
	if err != nil {
		return nil, nil, fmt.Errorf("list documents: %w", err)
	}

	texts := make([]form931.RawText, len(files))
	failures := make([]*form931.Warning, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			texts[i] = form931.RawText{Name: file.Name, Seq: i}

			res, err := p.source.ReadDocument(file.Path)
			if err != nil {
				w := form931.NewWarning(form931.WarningUnreadableDocument, file.Name, "", "%v", err)
				failures[i] = &w
				p.logger.Warn("batch.read.failed", "file", file.Path, "err", err)
				return nil
			}
			texts[i].Text = res.Text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []form931.Warning
	for _, w := range failures {
		if w != nil {
			warnings = append(warnings, *w)
		}
	}
	return texts, warnings, nil
}

// ProcessDirectory loads and processes every PDF in directory
func (p *Processor) ProcessDirectory(ctx context.Context, directory string) (*Result, error) {
	texts, readWarnings, err := p.LoadDirectory(ctx, directory)
	if err != nil {
		return nil, err
	}

	result, err := p.Process(ctx, texts)
	if err != nil {
		return nil, err
	}
	result.Warnings = dedupeWarnings(append(readWarnings, result.Warnings...))
	return result, nil
}

// ExtractDocument reads and extracts a single PDF
func (p *Processor) ExtractDocument(path string) (form931.Record, error) {
	if p.source == nil {
		return form931.Record{}, fmt.Errorf("no document source configured")
	}

	res, err := p.source.ReadDocument(path)
	if err != nil {
		return form931.Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	return p.extractor.Extract(form931.RawText{Name: res.Name, Text: res.Text}), nil
}

// dedupeWarnings keeps the first warning of each type for each document,
// except field-level warnings, which are kept per field
func dedupeWarnings(warnings []form931.Warning) []form931.Warning {
	type key struct {
		wt     form931.WarningType
		origin string
		field  string
	}

	seen := make(map[key]bool, len(warnings))
	out := make([]form931.Warning, 0, len(warnings))
	for _, w := range warnings {
		k := key{w.Type, w.Origin, w.Field}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, w)
	}
	return out
}
