package patentdex

import "time"

// Document is a source patent record. ID and Abstract are required.
type Document struct {
	ID             string
	Title          string
	Abstract       string
	Classification string
	FilingDate     time.Time
	ClaimCount     int
	Metadata       map[string]string
}

// AddResult is the outcome of one document in AddDocuments.
// Err wraps ErrAlreadyExists for an ID that is already loaded.
type AddResult struct {
	ID  string
	OK  bool
	Err error
}

// ItemStatus is the outcome of one document in a pipeline batch.
type ItemStatus string

// ItemStatus values.
const (
	ItemOK      ItemStatus = "ok"
	ItemSkipped ItemStatus = "skipped"
	ItemError   ItemStatus = "error"
)

// ItemResult is the outcome of one document in a pipeline batch.
type ItemResult struct {
	ID     string
	Status ItemStatus
	Err    error
}

// StageReport summarizes one Enrich or Embed batch.
type StageReport struct {
	RunID     string
	Stage     string // "enrich" or "embed"
	Selected  int
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Items     []ItemResult
}

// DrainReport totals one Drain.
type DrainReport struct {
	Rounds   int
	Enriched int
	Embedded int
	Failed   int
	Duration time.Duration
}

// SearchResult is a single search hit. Distance is the cosine distance to the query.
type SearchResult struct {
	ID       string
	Title    string
	Abstract string
	Distance float64
}

// ImportReport totals one ImportFile.
type ImportReport struct {
	Read     int
	Inserted int
	Existing int
	Invalid  int
}

// Stats is the size of each record set and the pipeline backlog.
type Stats struct {
	Documents  int64
	Summaries  int64
	Embeddings int64
	Unenriched int64
	Unembedded int64
}
