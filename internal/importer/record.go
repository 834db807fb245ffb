package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Record is one input row. Either ID or PublicationNumber identifies the document;
// CPC and Classification are aliases.
type Record struct {
	ID                string            `json:"id"`
	PublicationNumber string            `json:"publication_number"`
	Title             string            `json:"title"`
	Abstract          string            `json:"abstract"`
	CPC               string            `json:"cpc"`
	Classification    string            `json:"classification"`
	FilingDate        string            `json:"filing_date"`
	ClaimsCount       int               `json:"claims_count"`
	Metadata          map[string]string `json:"metadata"`
}

// Document validates the record and builds a patent document.
func (r *Record) Document() (patent.Document, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		id = strings.TrimSpace(r.PublicationNumber)
	}
	class := r.CPC
	if class == "" {
		class = r.Classification
	}
	filed, err := parseFilingDate(r.FilingDate)
	if err != nil {
		return patent.Document{}, fmt.Errorf("document %s: %w", id, err)
	}
	return patent.New(id, strings.TrimSpace(r.Title), strings.TrimSpace(r.Abstract), patent.Fields{
		Classification: class,
		FilingDate:     filed,
		ClaimCount:     r.ClaimsCount,
		Metadata:       r.Metadata,
	})
}

// parseFilingDate accepts ISO dates and the compact YYYYMMDD integer form used by
// public patent datasets. Empty and zero values mean unknown.
func parseFilingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.DateOnly, "20060102", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if days, err := strconv.Atoi(s); err == nil && days > 0 && days < 100000 {
		return time.Unix(0, 0).UTC().AddDate(0, 0, days), nil
	}
	return time.Time{}, fmt.Errorf("filing date %q: unsupported format", s)
}
