package patent

import (
	"fmt"
	"maps"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// MaxIDLength bounds document identifiers (they become storage keys).
const MaxIDLength = 256

// MaxAbstractSize is the maximum abstract size in bytes.
const MaxAbstractSize = 163840 // 160KB

// Document is an immutable source record owned by the record store.
type Document struct {
	id             string
	title          string
	abstract       string
	classification string
	filingDate     time.Time
	claimCount     int
	metadata       map[string]string
}

// Fields holds the optional static metadata of a document.
type Fields struct {
	Classification string
	FilingDate     time.Time
	ClaimCount     int
	Metadata       map[string]string
}

// New validates and creates a Document.
func New(id, title, abstract string, f Fields) (Document, error) {
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	if abstract == "" {
		return Document{}, fmt.Errorf("document %s: abstract is required", id)
	}
	if len(abstract) > MaxAbstractSize {
		return Document{}, fmt.Errorf("document %s: abstract too large (max %d bytes)", id, MaxAbstractSize)
	}
	if f.ClaimCount < 0 {
		return Document{}, fmt.Errorf("document %s: claim count must be non-negative", id)
	}
	return Document{
		id:             id,
		title:          title,
		abstract:       abstract,
		classification: f.Classification,
		filingDate:     f.FilingDate,
		claimCount:     f.ClaimCount,
		metadata:       maps.Clone(f.Metadata),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, abstract string, f Fields) Document {
	return Document{
		id:             id,
		title:          title,
		abstract:       abstract,
		classification: f.Classification,
		filingDate:     f.FilingDate,
		claimCount:     f.ClaimCount,
		metadata:       f.Metadata,
	}
}

// ValidateID checks a document identifier: 1-256 chars, alphanumeric plus _ . : -
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID %q must be alphanumeric with _ . : - separators", id)
	}
	return nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Abstract returns the body text used as summarization input.
func (d *Document) Abstract() string { return d.abstract }

// Classification returns the classification code (e.g. CPC).
func (d *Document) Classification() string { return d.classification }

// FilingDate returns the filing date (zero if unknown).
func (d *Document) FilingDate() time.Time { return d.filingDate }

// ClaimCount returns the number of claims.
func (d *Document) ClaimCount() int { return d.claimCount }

// Metadata returns the free-form metadata fields.
func (d *Document) Metadata() map[string]string { return d.metadata }

// Fields returns the optional metadata as a Fields value.
func (d *Document) Fields() Fields {
	return Fields{
		Classification: d.classification,
		FilingDate:     d.filingDate,
		ClaimCount:     d.claimCount,
		Metadata:       d.metadata,
	}
}
