package constants

// ItemStatus is the canonical lifecycle state of a queued document.
type ItemStatus string

// Stable values (exposed verbatim over the API).
const (
	StatusPending    ItemStatus = "pending"    // enqueued, not yet picked up
	StatusProcessing ItemStatus = "processing" // extraction in flight
	StatusDone       ItemStatus = "done"       // terminal success, record attached
	StatusError      ItemStatus = "error"      // terminal failure
)

var allStatuses = []ItemStatus{
	StatusPending,
	StatusProcessing,
	StatusDone,
	StatusError,
}

// Valid reports whether s is one of the known lifecycle states.
func (s ItemStatus) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final state: no automatic transition leaves
// it, only an explicit remove.
func (s ItemStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}
