package patent

// Counts is the number of rows in each of the three stores.
type Counts struct {
	Documents  int64 `json:"documents"`
	Summaries  int64 `json:"summaries"`
	Embeddings int64 `json:"embeddings"`
}

// Pending returns how many documents still lack a summary and how many summaries lack an embedding.
func (c Counts) Pending() (unenriched, unembedded int64) {
	return max(c.Documents-c.Summaries, 0), max(c.Summaries-c.Embeddings, 0)
}
