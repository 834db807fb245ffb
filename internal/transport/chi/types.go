package chi

import (
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/domain/search/result"
	"github.com/kailas-cloud/patentdex/internal/usecase/stats"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeNotFound          = "not_found"
	CodeQuotaExceeded     = "quota_exceeded"
	CodeRateLimited       = "rate_limited"
	CodeModelError        = "model_error"
	CodeModelUnavailable  = "model_unavailable"
	CodeDimensionMismatch = "dimension_mismatch"
	CodeInternalError     = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Abstract string  `json:"abstract"`
	Distance float64 `json:"distance"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	Query   string             `json:"query"`
	K       int                `json:"k"`
	Results []SearchResultItem `json:"results"`
}

// BatchItem is the outcome of one document in a pipeline batch.
type BatchItem struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchReport is the body of POST /pipeline/{stage}.
type BatchReport struct {
	RunID      string      `json:"run_id"`
	Stage      string      `json:"stage"`
	Selected   int         `json:"selected"`
	Processed  int         `json:"processed"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	DurationMs int64       `json:"duration_ms"`
	Items      []BatchItem `json:"items"`
}

// SummaryView is the stored summary of a document.
type SummaryView struct {
	Text      string    `json:"text"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingView describes a stored embedding without its vector.
type EmbeddingView struct {
	Dimensions int       `json:"dimensions"`
	Truncated  bool      `json:"truncated"`
	TokenCount float64   `json:"token_count"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentResponse is the body of GET /documents/{id}.
type DocumentResponse struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Abstract       string            `json:"abstract"`
	Classification string            `json:"classification,omitempty"`
	FilingDate     *time.Time        `json:"filing_date,omitempty"`
	ClaimCount     int               `json:"claim_count,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Summary        *SummaryView      `json:"summary"`
	Embedding      *EmbeddingView    `json:"embedding"`
}

// PeriodUsage is the token budget state of one period.
type PeriodUsage struct {
	Limit     int64     `json:"limit"`
	Used      int64     `json:"used"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Documents  int64        `json:"documents"`
	Summaries  int64        `json:"summaries"`
	Embeddings int64        `json:"embeddings"`
	Unenriched int64        `json:"unenriched"`
	Unembedded int64        `json:"unembedded"`
	Daily      *PeriodUsage `json:"daily,omitempty"`
	Monthly    *PeriodUsage `json:"monthly,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SearchItemsFrom converts ranked hits to their wire form.
func SearchItemsFrom(results []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(results))
	for i := range results {
		r := &results[i]
		items[i] = SearchResultItem{
			ID:       r.ID(),
			Title:    r.Title(),
			Abstract: r.Abstract(),
			Distance: r.Distance(),
		}
	}
	return items
}

// BatchReportFrom converts a stage report to its wire form. Item errors are reduced
// to their sentinel message.
func BatchReportFrom(rep *batch.Report) BatchReport {
	items := make([]BatchItem, len(rep.Items))
	for i, it := range rep.Items {
		items[i] = BatchItem{ID: it.ID(), Status: string(it.Status())}
		if it.Err() != nil {
			items[i].Error = safeDomainMessage(it.Err())
		}
	}
	return BatchReport{
		RunID:      rep.RunID,
		Stage:      string(rep.Stage),
		Selected:   rep.Selected(),
		Processed:  rep.Processed(),
		Skipped:    rep.Skipped(),
		Failed:     rep.Failed(),
		DurationMs: rep.Duration.Milliseconds(),
		Items:      items,
	}
}

func documentToResponse(doc *patent.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:             doc.ID(),
		Title:          doc.Title(),
		Abstract:       doc.Abstract(),
		Classification: doc.Classification(),
		ClaimCount:     doc.ClaimCount(),
		Metadata:       doc.Metadata(),
	}
	if fd := doc.FilingDate(); !fd.IsZero() {
		resp.FilingDate = &fd
	}
	return resp
}

func summaryToView(s *patent.Summary) *SummaryView {
	return &SummaryView{Text: s.Text(), Model: s.Model(), CreatedAt: s.CreatedAt()}
}

func embeddingToView(e *patent.Embedding) *EmbeddingView {
	return &EmbeddingView{
		Dimensions: e.Dimensions(),
		Truncated:  e.Truncated(),
		TokenCount: e.TokenCount(),
		Model:      e.Model(),
		CreatedAt:  e.CreatedAt(),
	}
}

// StatsFrom converts a stats report to its wire form.
func StatsFrom(r *stats.Report) StatsResponse {
	resp := StatsResponse{
		Documents:  r.Counts.Documents,
		Summaries:  r.Counts.Summaries,
		Embeddings: r.Counts.Embeddings,
		Unenriched: r.Unenriched,
		Unembedded: r.Unembedded,
	}
	if r.Daily != nil {
		resp.Daily = periodToResponse(r.Daily)
	}
	if r.Monthly != nil {
		resp.Monthly = periodToResponse(r.Monthly)
	}
	return resp
}

func periodToResponse(p *stats.PeriodUsage) *PeriodUsage {
	return &PeriodUsage{Limit: p.Limit, Used: p.Used, Remaining: p.Remaining, ResetsAt: p.ResetsAt}
}
