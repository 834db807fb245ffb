package batch

import "time"

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK      ItemStatus = "ok"
	StatusSkipped ItemStatus = "skipped" // another run already produced the record
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewSkipped creates a result for an item that was already processed elsewhere.
func NewSkipped(id string) Result { return Result{id: id, status: StatusSkipped} }

// NewError creates a failed batch result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the item identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Stage names a pipeline stage.
type Stage string

// Pipeline stages.
const (
	StageEnrich Stage = "enrich"
	StageEmbed  Stage = "embed"
)

// Report summarizes one pipeline invocation.
type Report struct {
	RunID    string
	Stage    Stage
	Items    []Result
	Duration time.Duration
}

// Selected returns the number of records picked for this run.
func (r *Report) Selected() int { return len(r.Items) }

// Processed returns the number of records this run created.
func (r *Report) Processed() int { return r.count(StatusOK) }

// Skipped returns the number of records another run created first.
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// Failed returns the number of items that failed and remain eligible for retry.
func (r *Report) Failed() int { return r.count(StatusError) }

func (r *Report) count(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status() == s {
			n++
		}
	}
	return n
}
