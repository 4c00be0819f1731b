// Package syncrun models one synchronization run between the source store and the index.
package syncrun

import "time"

// State is a phase of the sync run state machine.
type State string

// Run states: idle -> fetching -> indexing -> succeeded | failed.
const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateIndexing  State = "indexing"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Status is the whole-run outcome reported to the caller.
type Status string

// Run status values. Error is reserved for whole-run failures.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ItemStatus is the outcome of syncing a single record.
type ItemStatus string

// Per-record status values.
const (
	ItemOK    ItemStatus = "ok"
	ItemError ItemStatus = "error"
)

// Outcome is the result of mapping and upserting one record.
type Outcome struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful per-record outcome.
func NewOK(id string) Outcome { return Outcome{id: id, status: ItemOK} }

// NewError creates a failed per-record outcome.
func NewError(id string, err error) Outcome { return Outcome{id: id, status: ItemError, err: err} }

// ID returns the tender id.
func (o Outcome) ID() string { return o.id }

// Status returns the per-record outcome.
func (o Outcome) Status() ItemStatus { return o.status }

// Err returns the error, if any.
func (o Outcome) Err() error { return o.err }

// Tally is the fold accumulator over per-record outcomes.
type Tally struct {
	Indexed   int
	Failed    int
	FailedIDs []string
}

// Add folds one outcome into the tally and returns the new tally.
func (t Tally) Add(o Outcome) Tally {
	if o.status == ItemOK {
		t.Indexed++
		return t
	}
	t.Failed++
	t.FailedIDs = append(t.FailedIDs, o.id)
	return t
}

// Fold reduces outcomes, in order, into a Tally.
func Fold(outcomes []Outcome) Tally {
	var t Tally
	for _, o := range outcomes {
		t = t.Add(o)
	}
	return t
}

// Report summarizes one full sync run. Not persisted.
type Report struct {
	RunID   string
	Status  Status
	State   State
	Total   int
	Tally   Tally
	Elapsed time.Duration
	Err     error
}

// Succeeded builds a success report from the fold result.
func Succeeded(runID string, total int, t Tally, elapsed time.Duration) Report {
	return Report{
		RunID:   runID,
		Status:  StatusSuccess,
		State:   StateSucceeded,
		Total:   total,
		Tally:   t,
		Elapsed: elapsed,
	}
}

// Failed builds a whole-run failure report.
func Failed(runID string, total int, t Tally, elapsed time.Duration, err error) Report {
	return Report{
		RunID:   runID,
		Status:  StatusError,
		State:   StateFailed,
		Total:   total,
		Tally:   t,
		Elapsed: elapsed,
		Err:     err,
	}
}
