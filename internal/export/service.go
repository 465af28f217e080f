package export

import (
	"log/slog"
	"time"

	"github.com/showcasekit/showcase-extractor/internal/llm"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

// Service is a tiny façade over the batch queue that produces export bytes
// from the completed records, in original enqueue order.
type Service struct {
	queue  *queue.Queue
	title  string
	logger *slog.Logger
}

func NewService(q *queue.Queue, title string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if title == "" {
		title = DefaultReportTitle
	}
	return &Service{queue: q, title: title, logger: logger}
}

// ReportDoc renders the Word-compatible report from the currently completed
// items.
func (s *Service) ReportDoc() ([]byte, error) {
	start := time.Now()
	records := s.completedRecords()

	doc, err := RenderTeamsDoc(s.title, records)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.doc.ok",
		"teams", len(records),
		"bytes", len(doc),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// SummaryXLSX renders the tabular companion workbook from the currently
// completed items.
func (s *Service) SummaryXLSX() ([]byte, error) {
	start := time.Now()
	records := s.completedRecords()

	wb, err := RenderTeamsXLSX(records)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"teams", len(records),
		"bytes", len(wb),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return wb, nil
}

func (s *Service) completedRecords() []llm.TeamFields {
	items := s.queue.CompletedItems()
	records := make([]llm.TeamFields, 0, len(items))
	for _, it := range items {
		if it.Data != nil { // set iff done; guarded anyway
			records = append(records, *it.Data)
		}
	}
	return records
}
