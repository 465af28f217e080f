// Package pipeline drives queued documents through the extraction service
// under a bounded-concurrency policy. Per-item failures become terminal error
// statuses; they never abort the batch or other items.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/ingest"
	"github.com/showcasekit/showcase-extractor/internal/llm"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

// ErrBusy is returned when a run is requested while a batch is in flight;
// callers gate duplicate submissions on it.
var ErrBusy = errors.New("a batch is already being processed")

// Config holds behavior knobs for the processor.
type Config struct {
	// Concurrency caps in-flight extraction calls. Small by default to stay
	// inside the extraction service's rate limits.
	Concurrency int
}

// Processor coordinates read-bytes then extract-fields per queued item.
type Processor struct {
	log       *slog.Logger
	cfg       Config
	queue     *queue.Queue
	extractor llm.FieldExtractor

	busy atomic.Bool
}

func NewProcessor(logger *slog.Logger, cfg Config, q *queue.Queue, extractor llm.FieldExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 2
	}
	return &Processor{log: logger, cfg: cfg, queue: q, extractor: extractor}
}

// Busy reports whether a batch run is in flight.
func (p *Processor) Busy() bool {
	return p.busy.Load()
}

// Run enqueues files and processes them, blocking until every item reaches a
// terminal state. Returns ErrBusy if a run is already in flight; per-item
// failures are absorbed into item statuses and never returned.
func (p *Processor) Run(ctx context.Context, files []ingest.File) ([]queue.Item, error) {
	items, err := p.begin(files)
	if err != nil {
		return nil, err
	}
	p.process(ctx, files, items)
	return items, nil
}

// Start is the non-blocking form of Run: it claims the busy flag and enqueues
// synchronously, then processes in the background. The returned snapshots are
// the freshly enqueued pending items.
func (p *Processor) Start(ctx context.Context, files []ingest.File) ([]queue.Item, error) {
	items, err := p.begin(files)
	if err != nil {
		return nil, err
	}
	go p.process(context.WithoutCancel(ctx), files, items)
	return items, nil
}

func (p *Processor) begin(files []ingest.File) ([]queue.Item, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return p.queue.Enqueue(names...), nil
}

// process owns the busy flag claimed by begin and releases it when the whole
// batch has settled, failures included.
func (p *Processor) process(ctx context.Context, files []ingest.File, items []queue.Item) {
	defer p.busy.Store(false)

	start := time.Now()
	p.log.Info("pipeline.batch.start", "files", len(files), "concurrency", p.cfg.Concurrency)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i := range files {
		file, id := files[i], items[i].ID
		g.Go(func() error {
			p.processItem(ctx, id, file)
			return nil
		})
	}
	_ = g.Wait()

	p.log.Info("pipeline.batch.done",
		"files", len(files),
		"progress", p.queue.Progress(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}

// processItem walks one item through processing to a terminal state. Status
// writes are keyed by item ID, so a late completion after the user removed
// the item is a no-op.
func (p *Processor) processItem(ctx context.Context, id uuid.UUID, file ingest.File) {
	p.queue.UpdateStatusByID(id, constants.StatusProcessing, nil)

	data, err := file.Open(ctx)
	if err != nil {
		p.log.Error("pipeline.item.read_failed", "item_id", id, "file_name", file.Name, "error", err)
		p.queue.UpdateStatusByID(id, constants.StatusError, nil)
		return
	}

	fields, _, err := p.extractor.ExtractFields(ctx, llm.ExtractRequest{
		Data:         data,
		MIMEType:     file.MIMEType,
		FilenameHint: file.Name,
	})
	if err != nil {
		p.log.Error("pipeline.item.extract_failed", "item_id", id, "file_name", file.Name, "error", err)
		p.queue.UpdateStatusByID(id, constants.StatusError, nil)
		return
	}

	p.queue.UpdateStatusByID(id, constants.StatusDone, &fields)
	p.log.Info("pipeline.item.done", "item_id", id, "file_name", file.Name, "team", fields.TeamName)
}
