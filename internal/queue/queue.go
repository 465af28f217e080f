// Package queue owns the in-memory batch state: an ordered collection of
// items with a per-item lifecycle state machine. It is the single shared
// mutable resource of a batch run; every read returns a snapshot copy, so
// consumers never observe partial mutations.
package queue

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/llm"
)

type Queue struct {
	mu    sync.RWMutex
	items []*Item
	log   *slog.Logger
}

func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{log: logger}
}

// Enqueue appends one pending item per file name, preserving input order, and
// returns snapshots of the created items. Duplicate names become distinct
// entries.
func (q *Queue) Enqueue(fileNames ...string) []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	created := make([]Item, 0, len(fileNames))
	for _, name := range fileNames {
		it := &Item{
			ID:       uuid.New(),
			FileName: name,
			Status:   constants.StatusPending,
		}
		q.items = append(q.items, it)
		created = append(created, it.clone())
	}
	q.log.Debug("queue.enqueue", "count", len(created), "total", len(q.items))
	return created
}

// UpdateStatus transitions the first item (in insertion order) with the given
// file name. data is only applied when status is done; any other status
// clears it. Invalid transitions and unknown names are rejected.
func (q *Queue) UpdateStatus(fileName string, status constants.ItemStatus, data *llm.TeamFields) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.FileName == fileName {
			return q.apply(it, status, data)
		}
	}
	q.log.Warn("queue.update.unknown_item", "file_name", fileName, "status", status)
	return false
}

// UpdateStatusByID is the unambiguous form of UpdateStatus; a no-op returning
// false when the item has been removed in the meantime.
func (q *Queue) UpdateStatusByID(id uuid.UUID, status constants.ItemStatus, data *llm.TeamFields) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.ID == id {
			return q.apply(it, status, data)
		}
	}
	q.log.Warn("queue.update.unknown_item", "item_id", id, "status", status)
	return false
}

func (q *Queue) apply(it *Item, status constants.ItemStatus, data *llm.TeamFields) bool {
	if !status.Valid() || !transitionAllowed(it.Status, status) {
		q.log.Warn("queue.update.invalid_transition",
			"item_id", it.ID, "file_name", it.FileName,
			"from", it.Status, "to", status)
		return false
	}
	it.Status = status
	if status == constants.StatusDone && data != nil {
		record := *data
		it.Data = &record
	} else {
		it.Data = nil
	}
	q.log.Debug("queue.update", "item_id", it.ID, "file_name", it.FileName, "status", status)
	return true
}

// Remove deletes the first item with the given file name; order of the
// remaining items is unaffected.
func (q *Queue) Remove(fileName string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, it := range q.items {
		if it.FileName == fileName {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveByID deletes the item with the given ID.
func (q *Queue) RemoveByID(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, it := range q.items {
		if it.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops every item.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Items returns a snapshot of the whole queue in insertion order.
func (q *Queue) Items() []Item {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Item, 0, len(q.items))
	for _, it := range q.items {
		out = append(out, it.clone())
	}
	return out
}

// CompletedItems returns the done items, in original insertion order.
func (q *Queue) CompletedItems() []Item {
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []Item
	for _, it := range q.items {
		if it.Status == constants.StatusDone {
			out = append(out, it.clone())
		}
	}
	return out
}

// Len returns the current number of items.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Progress returns the percentage (0-100) of items in a terminal state, 0 for
// an empty queue.
func (q *Queue) Progress() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	total := len(q.items)
	if total == 0 {
		return 0
	}
	terminal := 0
	for _, it := range q.items {
		if it.Status.Terminal() {
			terminal++
		}
	}
	return int(math.Round(float64(terminal) / float64(total) * 100))
}

// HasCompleted reports whether at least one item is done.
func (q *Queue) HasCompleted() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, it := range q.items {
		if it.Status == constants.StatusDone {
			return true
		}
	}
	return false
}
