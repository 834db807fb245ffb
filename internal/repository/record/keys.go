package record

// DefaultPrefix namespaces every key the repository writes.
const DefaultPrefix = "patentdex:"

// keys builds storage keys under a fixed prefix.
type keys struct {
	prefix string
}

func (k keys) doc(id string) string       { return k.prefix + "doc:" + id }
func (k keys) summary(id string) string   { return k.prefix + "summary:" + id }
func (k keys) embedding(id string) string { return k.prefix + "embedding:" + id }

func (k keys) docIndex() string       { return k.prefix + "idx:docs" }
func (k keys) summaryIndex() string   { return k.prefix + "idx:summaries" }
func (k keys) embeddingIndex() string { return k.prefix + "idx:embeddings" }

func (k keys) meta() string { return k.prefix + "meta" }

func (k keys) many(ids []string, fn func(string) string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fn(id)
	}
	return out
}
