package queue

import (
	"github.com/google/uuid"

	"github.com/showcasekit/showcase-extractor/constants"
	"github.com/showcasekit/showcase-extractor/internal/llm"
)

// Item represents one file's journey through the pipeline.
//
// FileName is the user-facing identifier; duplicates are allowed across (and
// within) batches, so every enqueue also receives a unique ID. Name-keyed
// operations resolve to the first occurrence in insertion order.
//
// Data is set if and only if Status is done.
type Item struct {
	ID       uuid.UUID            `json:"id"`
	FileName string               `json:"fileName"`
	Status   constants.ItemStatus `json:"status"`
	Data     *llm.TeamFields      `json:"data,omitempty"`
}

// clone returns a deep copy so snapshots stay consistent while the queue
// keeps mutating.
func (it *Item) clone() Item {
	out := Item{ID: it.ID, FileName: it.FileName, Status: it.Status}
	if it.Data != nil {
		data := *it.Data
		out.Data = &data
	}
	return out
}

// validTransitions encodes the per-item state machine:
// pending → processing → {done | error}. Terminal states are only left via
// explicit remove, and no item may skip processing.
var validTransitions = map[constants.ItemStatus][]constants.ItemStatus{
	constants.StatusPending:    {constants.StatusProcessing},
	constants.StatusProcessing: {constants.StatusDone, constants.StatusError},
}

func transitionAllowed(from, to constants.ItemStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
