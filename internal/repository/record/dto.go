package record

import (
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

const dateLayout = "2006-01-02"

type documentJSON struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Abstract       string            `json:"abstract"`
	Classification string            `json:"classification,omitempty"`
	FilingDate     string            `json:"filing_date,omitempty"`
	ClaimCount     int               `json:"claim_count,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type summaryJSON struct {
	Text      string    `json:"text"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type embeddingJSON struct {
	Vector     []float64 `json:"vector"`
	Truncated  bool      `json:"truncated,omitempty"`
	TokenCount float64   `json:"token_count,omitempty"`
	Model      string    `json:"model,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func documentToJSON(d *patent.Document) documentJSON {
	out := documentJSON{
		ID:             d.ID(),
		Title:          d.Title(),
		Abstract:       d.Abstract(),
		Classification: d.Classification(),
		ClaimCount:     d.ClaimCount(),
		Metadata:       d.Metadata(),
	}
	if !d.FilingDate().IsZero() {
		out.FilingDate = d.FilingDate().Format(dateLayout)
	}
	return out
}

func (j documentJSON) toDomain() patent.Document {
	f := patent.Fields{
		Classification: j.Classification,
		ClaimCount:     j.ClaimCount,
		Metadata:       j.Metadata,
	}
	if j.FilingDate != "" {
		if t, err := time.Parse(dateLayout, j.FilingDate); err == nil {
			f.FilingDate = t
		}
	}
	return patent.Reconstruct(j.ID, j.Title, j.Abstract, f)
}

func summaryToJSON(s *patent.Summary) summaryJSON {
	return summaryJSON{Text: s.Text(), Model: s.Model(), CreatedAt: s.CreatedAt()}
}

func (j summaryJSON) toDomain(id string) patent.Summary {
	return patent.ReconstructSummary(id, j.Text, j.Model, j.CreatedAt)
}

func embeddingToJSON(e *patent.Embedding) embeddingJSON {
	return embeddingJSON{
		Vector:     e.Vector(),
		Truncated:  e.Truncated(),
		TokenCount: e.TokenCount(),
		Model:      e.Model(),
		CreatedAt:  e.CreatedAt(),
	}
}

func (j embeddingJSON) toDomain(id string) patent.Embedding {
	return patent.ReconstructEmbedding(id, j.Vector, patent.EmbeddingMeta{
		Truncated:  j.Truncated,
		TokenCount: j.TokenCount,
		Model:      j.Model,
	}, j.CreatedAt)
}
