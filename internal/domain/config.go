package domain

import (
	"fmt"
	"strings"
)

// Prompt template placeholders.
const (
	PlaceholderAbstract = "{abstract}"
	PlaceholderTitle    = "{title}"
)

// DefaultPromptTemplate is the keyword-extraction prompt used by the enrichment pipeline.
const DefaultPromptTemplate = "Identify the areas of work or keywords in this abstract: " + PlaceholderAbstract

// PromptTemplate renders the generation prompt for a single document.
type PromptTemplate struct {
	text string
}

// NewPromptTemplate validates a template. It must reference the abstract.
func NewPromptTemplate(text string) (PromptTemplate, error) {
	if strings.TrimSpace(text) == "" {
		return PromptTemplate{}, fmt.Errorf("prompt template is empty: %w", ErrInvalidArgument)
	}
	if !strings.Contains(text, PlaceholderAbstract) {
		return PromptTemplate{}, fmt.Errorf(
			"prompt template must contain %s: %w", PlaceholderAbstract, ErrInvalidArgument,
		)
	}
	return PromptTemplate{text: text}, nil
}

// MustPromptTemplate calls NewPromptTemplate and panics on error.
func MustPromptTemplate(text string) PromptTemplate {
	t, err := NewPromptTemplate(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render substitutes title and abstract into the template.
func (t PromptTemplate) Render(title, abstract string) string {
	r := strings.NewReplacer(PlaceholderAbstract, abstract, PlaceholderTitle, title)
	return r.Replace(t.text)
}

// String returns the raw template text.
func (t PromptTemplate) String() string { return t.text }

// IndexConfig is the per-corpus configuration passed into pipelines and search at
// construction time.
type IndexConfig struct {
	Prompt              PromptTemplate
	GenerationModel     string
	EmbeddingModel      string
	Dimensions          int // 0 = established by the first stored embedding
	ContextWindowTokens int
}

// DefaultIndexConfig returns defaults tuned for text-embedding-3-small.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		Prompt:              MustPromptTemplate(DefaultPromptTemplate),
		GenerationModel:     "gpt-4o-mini",
		EmbeddingModel:      "text-embedding-3-small",
		Dimensions:          0,
		ContextWindowTokens: 8191,
	}
}
