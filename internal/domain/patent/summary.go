package patent

import (
	"fmt"
	"strings"
	"time"
)

// Summary is the generated keyword summary of a document. Created once, never updated.
type Summary struct {
	documentID string
	text       string
	model      string
	createdAt  time.Time
}

// NewSummary validates and creates a Summary.
func NewSummary(documentID, text, model string, createdAt time.Time) (Summary, error) {
	if err := ValidateID(documentID); err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Summary{}, fmt.Errorf("summary for %s: text is empty", documentID)
	}
	return Summary{documentID: documentID, text: text, model: model, createdAt: createdAt.UTC()}, nil
}

// ReconstructSummary creates a Summary without validation (storage hydration).
func ReconstructSummary(documentID, text, model string, createdAt time.Time) Summary {
	return Summary{documentID: documentID, text: text, model: model, createdAt: createdAt}
}

// DocumentID returns the source document identifier.
func (s *Summary) DocumentID() string { return s.documentID }

// Text returns the generated summary.
func (s *Summary) Text() string { return s.text }

// Model returns the generation model that produced the summary.
func (s *Summary) Model() string { return s.model }

// CreatedAt returns the creation time.
func (s *Summary) CreatedAt() time.Time { return s.createdAt }
