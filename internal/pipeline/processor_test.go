package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/common"
	"github.com/showcasekit/showcase-extractor/internal/ingest"
	"github.com/showcasekit/showcase-extractor/internal/llm"
	"github.com/showcasekit/showcase-extractor/internal/queue"
)

type extractFunc func(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error)

func (f extractFunc) ExtractFields(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
	return f(ctx, req)
}

func okExtractor() extractFunc {
	return func(_ context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
		return llm.TeamFields{
			TeamName:        "队伍-" + req.FilenameHint,
			CompetitionName: "挑战杯",
			AwardLevel:      "省级一等奖",
			College:         llm.NotMentioned,
			Members:         llm.NotMentioned,
			Instructors:     llm.NotMentioned,
			ProjectIntro:    "intro",
			Reflection:      "reflection",
		}, nil, nil
	}
}

// failFor fails extraction for the named files and succeeds otherwise.
func failFor(names ...string) extractFunc {
	ok := okExtractor()
	return func(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
		for _, n := range names {
			if req.FilenameHint == n {
				return llm.TeamFields{}, nil,
					common.NewAppError("EXTRACTION_FAILED", "malformed response", common.ErrExtractionFailure)
			}
		}
		return ok(ctx, req)
	}
}

func memFiles(names ...string) []ingest.File {
	files := make([]ingest.File, 0, len(names))
	for _, n := range names {
		mime := "application/pdf"
		if strings.HasSuffix(n, ".png") {
			mime = "image/png"
		}
		files = append(files, ingest.FromBytes(n, mime, []byte("doc-bytes")))
	}
	return files
}

func statusByName(t *testing.T, q *queue.Queue) map[string]constants.ItemStatus {
	t.Helper()
	out := make(map[string]constants.ItemStatus)
	for _, it := range q.Items() {
		out[it.FileName] = it.Status
	}
	return out
}

func TestRunAllSucceed(t *testing.T) {
	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 2}, q, okExtractor())

	items, err := p.Run(context.Background(), memFiles("a.pdf", "b.png", "c.jpg"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("enqueued = %d, want 3", len(items))
	}
	if p.Busy() {
		t.Error("busy flag still set after Run returned")
	}
	if got := q.Progress(); got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
	done := q.CompletedItems()
	if len(done) != 3 {
		t.Fatalf("completed = %d, want 3", len(done))
	}
	// report order follows enqueue order regardless of completion order
	for i, want := range []string{"a.pdf", "b.png", "c.jpg"} {
		if done[i].FileName != want {
			t.Errorf("completed[%d] = %s, want %s", i, done[i].FileName, want)
		}
		if done[i].Data == nil {
			t.Errorf("completed[%d] has no record", i)
		}
	}
}

func TestFailureIsolation(t *testing.T) {
	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 1}, q, failFor("b.png"))

	if _, err := p.Run(context.Background(), memFiles("a.pdf", "b.png", "c.jpg")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	statuses := statusByName(t, q)
	if statuses["a.pdf"] != constants.StatusDone || statuses["c.jpg"] != constants.StatusDone {
		t.Errorf("failure of one item changed its neighbors: %v", statuses)
	}
	if statuses["b.png"] != constants.StatusError {
		t.Errorf("b.png = %s, want error", statuses["b.png"])
	}
	if got := q.Progress(); got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
	if got := len(q.CompletedItems()); got != 2 {
		t.Errorf("completed = %d, want 2", got)
	}
}

func TestMixedBatchScenario(t *testing.T) {
	// extraction returns a valid record for a.pdf and a malformed response
	// for b.png
	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 2}, q, failFor("b.png"))

	if _, err := p.Run(context.Background(), memFiles("a.pdf", "b.png")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	statuses := statusByName(t, q)
	if statuses["a.pdf"] != constants.StatusDone {
		t.Errorf("a.pdf = %s, want done", statuses["a.pdf"])
	}
	if statuses["b.png"] != constants.StatusError {
		t.Errorf("b.png = %s, want error", statuses["b.png"])
	}
	if got := q.Progress(); got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
	if got := len(q.CompletedItems()); got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
}

func TestReadFailureMarksItemError(t *testing.T) {
	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 1}, q, okExtractor())

	files := memFiles("ok.pdf")
	files = append(files, ingest.File{
		Name:     "broken.pdf",
		MIMEType: "application/pdf",
		Open: func(context.Context) ([]byte, error) {
			return nil, common.NewAppError("READ_FAILED", "boom", common.ErrReadFailure)
		},
	})

	if _, err := p.Run(context.Background(), files); err != nil {
		t.Fatalf("Run: %v", err)
	}
	statuses := statusByName(t, q)
	if statuses["ok.pdf"] != constants.StatusDone {
		t.Errorf("ok.pdf = %s, want done", statuses["ok.pdf"])
	}
	if statuses["broken.pdf"] != constants.StatusError {
		t.Errorf("broken.pdf = %s, want error", statuses["broken.pdf"])
	}
}

func TestBusyGatesDuplicateSubmission(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	blocking := extractFunc(func(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
		once.Do(func() { close(started) })
		<-release
		return okExtractor()(ctx, req)
	})

	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 1}, q, blocking)

	if _, err := p.Start(context.Background(), memFiles("a.pdf")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	if !p.Busy() {
		t.Error("busy flag not set during a run")
	}

	if _, err := p.Run(context.Background(), memFiles("b.png")); !errors.Is(err, ErrBusy) {
		t.Errorf("second submission error = %v, want ErrBusy", err)
	}

	close(release)
	waitFor(t, func() bool { return !p.Busy() })
	if got := q.Progress(); got != 100 {
		t.Errorf("progress = %d, want 100", got)
	}
}

func TestRerunAppendsIndependentItems(t *testing.T) {
	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: 1}, q, okExtractor())

	if _, err := p.Run(context.Background(), memFiles("a.pdf")); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := p.Run(context.Background(), memFiles("a.pdf")); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	items := q.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 (re-running appends, never merges)", len(items))
	}
	if items[0].ID == items[1].ID {
		t.Error("re-enqueued item shares an ID with the prior entry")
	}
	for _, it := range items {
		if it.Status != constants.StatusDone {
			t.Errorf("%s = %s, want done", it.FileName, it.Status)
		}
	}
}

func TestRemoveWhileInFlight(t *testing.T) {
	// removing an item mid-extraction lets the call finish; its late status
	// write is a no-op
	q := queue.New(nil)

	removing := extractFunc(func(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
		q.Remove(req.FilenameHint)
		return okExtractor()(ctx, req)
	})
	p := NewProcessor(nil, Config{Concurrency: 1}, q, removing)

	if _, err := p.Run(context.Background(), memFiles("a.pdf")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("len = %d, want 0 (late update must not resurrect the item)", q.Len())
	}
	if p.Busy() {
		t.Error("busy flag still set")
	}
}

func TestBoundedConcurrency(t *testing.T) {
	const limit = 2
	var mu sync.Mutex
	inFlight, peak := 0, 0

	counting := extractFunc(func(ctx context.Context, req llm.ExtractRequest) (llm.TeamFields, []byte, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return okExtractor()(ctx, req)
	})

	q := queue.New(nil)
	p := NewProcessor(nil, Config{Concurrency: limit}, q, counting)

	var names []string
	for i := 0; i < 8; i++ {
		names = append(names, fmt.Sprintf("f%d.pdf", i))
	}
	if _, err := p.Run(context.Background(), memFiles(names...)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak > limit {
		t.Errorf("peak in-flight extractions = %d, want <= %d", peak, limit)
	}
	if got := len(q.CompletedItems()); got != 8 {
		t.Errorf("completed = %d, want 8", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
