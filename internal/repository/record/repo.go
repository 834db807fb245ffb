package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/patentdex/internal/db"
	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// scanPageSize is how many index members one round-trip fetches during anti-joins and scans.
const scanPageSize = 256

const dimensionsField = "dimensions"

// store is the consumer interface for the record repository (ISP).
type store interface {
	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	ExistsMulti(ctx context.Context, keys []string) ([]bool, error)
	ZRangeAfter(ctx context.Context, key, after string, count int) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
	HSetNX(ctx context.Context, key, field, value string) (bool, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	InsertUnique(ctx context.Context, key string, value []byte, indexKey, member string) (bool, error)
}

// Repo is the record store over Redis/Valkey: one JSON value per record plus a
// lexically ordered ZSET index per stage.
type Repo struct {
	store  store
	keys   keys
	closer func()
}

// Option configures a Repo.
type Option func(*Repo)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) Option {
	return func(r *Repo) {
		if prefix != "" {
			r.keys.prefix = prefix
		}
	}
}

// WithCloser registers a function run by Close (typically the db.Store's Close).
func WithCloser(fn func()) Option {
	return func(r *Repo) { r.closer = fn }
}

// New creates a record repository.
func New(s store, opts ...Option) *Repo {
	r := &Repo{store: s, keys: keys{prefix: DefaultPrefix}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Ping checks storage connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Close releases the underlying connection if a closer was registered.
func (r *Repo) Close() error {
	if r.closer != nil {
		r.closer()
	}
	return nil
}

// InsertDocument stores a document unless its ID is already present. Documents are immutable.
func (r *Repo) InsertDocument(ctx context.Context, doc patent.Document) error {
	data, err := json.Marshal(documentToJSON(&doc))
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID(), err)
	}
	ok, err := r.store.InsertUnique(ctx, r.keys.doc(doc.ID()), data, r.keys.docIndex(), doc.ID())
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID(), err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}
	return nil
}

// GetDocument returns a document by ID.
func (r *Repo) GetDocument(ctx context.Context, id string) (patent.Document, error) {
	raw, err := r.store.Get(ctx, r.keys.doc(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return patent.Document{}, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return patent.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	var j documentJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return patent.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return j.toDomain(), nil
}

// GetDocuments fetches several documents in one round-trip. Missing IDs are absent from the map.
func (r *Repo) GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error) {
	out := make(map[string]patent.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := r.store.MGet(ctx, r.keys.many(ids, r.keys.doc))
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	for i, raw := range vals {
		if raw == nil {
			continue
		}
		var j documentJSON
		if err := json.Unmarshal(raw, &j); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", ids[i], err)
		}
		out[ids[i]] = j.toDomain()
	}
	return out, nil
}

// GetSummary returns the summary of a document.
func (r *Repo) GetSummary(ctx context.Context, id string) (patent.Summary, error) {
	raw, err := r.store.Get(ctx, r.keys.summary(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return patent.Summary{}, fmt.Errorf("summary %s: %w", id, domain.ErrNotFound)
		}
		return patent.Summary{}, fmt.Errorf("get summary %s: %w", id, err)
	}
	var j summaryJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return patent.Summary{}, fmt.Errorf("decode summary %s: %w", id, err)
	}
	return j.toDomain(id), nil
}

// GetEmbedding returns the embedding of a document.
func (r *Repo) GetEmbedding(ctx context.Context, id string) (patent.Embedding, error) {
	raw, err := r.store.Get(ctx, r.keys.embedding(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return patent.Embedding{}, fmt.Errorf("embedding %s: %w", id, domain.ErrNotFound)
		}
		return patent.Embedding{}, fmt.Errorf("get embedding %s: %w", id, err)
	}
	var j embeddingJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return patent.Embedding{}, fmt.Errorf("decode embedding %s: %w", id, err)
	}
	return j.toDomain(id), nil
}

// UnenrichedIDs returns up to limit document IDs without a summary, in ascending ID order.
func (r *Repo) UnenrichedIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := r.missing(ctx, r.keys.docIndex(), r.keys.summary, limit)
	if err != nil {
		return nil, fmt.Errorf("select unenriched: %w", err)
	}
	return ids, nil
}

// UnembeddedIDs returns up to limit summarized document IDs without an embedding, in ascending ID order.
func (r *Repo) UnembeddedIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := r.missing(ctx, r.keys.summaryIndex(), r.keys.embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("select unembedded: %w", err)
	}
	return ids, nil
}

// missing walks the upstream index in order and keeps members whose downstream key is absent.
func (r *Repo) missing(ctx context.Context, upstream string, downstream func(string) string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	out := make([]string, 0, limit)
	after := ""
	for len(out) < limit {
		members, err := r.store.ZRangeAfter(ctx, upstream, after, scanPageSize)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			break
		}
		exists, err := r.store.ExistsMulti(ctx, r.keys.many(members, downstream))
		if err != nil {
			return nil, err
		}
		for i, id := range members {
			if exists[i] {
				continue
			}
			out = append(out, id)
			if len(out) == limit {
				break
			}
		}
		if len(members) < scanPageSize {
			break
		}
		after = members[len(members)-1]
	}
	return out, nil
}

// InsertSummary stores a summary; returns ErrAlreadyProcessed if one already exists.
func (r *Repo) InsertSummary(ctx context.Context, s patent.Summary) error {
	data, err := json.Marshal(summaryToJSON(&s))
	if err != nil {
		return fmt.Errorf("marshal summary %s: %w", s.DocumentID(), err)
	}
	ok, err := r.store.InsertUnique(ctx, r.keys.summary(s.DocumentID()), data, r.keys.summaryIndex(), s.DocumentID())
	if err != nil {
		return fmt.Errorf("insert summary %s: %w", s.DocumentID(), err)
	}
	if !ok {
		return fmt.Errorf("summary %s: %w", s.DocumentID(), domain.ErrAlreadyProcessed)
	}
	return nil
}

// InsertEmbedding stores an embedding; returns ErrAlreadyProcessed if one already exists.
func (r *Repo) InsertEmbedding(ctx context.Context, e patent.Embedding) error {
	data, err := json.Marshal(embeddingToJSON(&e))
	if err != nil {
		return fmt.Errorf("marshal embedding %s: %w", e.DocumentID(), err)
	}
	ok, err := r.store.InsertUnique(ctx, r.keys.embedding(e.DocumentID()), data, r.keys.embeddingIndex(), e.DocumentID())
	if err != nil {
		return fmt.Errorf("insert embedding %s: %w", e.DocumentID(), err)
	}
	if !ok {
		return fmt.Errorf("embedding %s: %w", e.DocumentID(), domain.ErrAlreadyProcessed)
	}
	return nil
}

// ScanEmbeddings calls fn for every document that has a summary and an embedding, in
// ascending ID order. Each call starts over from the first ID; an error from fn stops
// the scan and is returned.
func (r *Repo) ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error {
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ids, err := r.store.ZRangeAfter(ctx, r.keys.embeddingIndex(), after, scanPageSize)
		if err != nil {
			return fmt.Errorf("scan embeddings: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		vals, err := r.store.MGet(ctx, r.keys.many(ids, r.keys.embedding))
		if err != nil {
			return fmt.Errorf("scan embeddings: %w", err)
		}
		complete, err := r.completeChains(ctx, ids)
		if err != nil {
			return fmt.Errorf("scan embeddings: %w", err)
		}
		for i, raw := range vals {
			if raw == nil || !complete[i] {
				continue
			}
			var j embeddingJSON
			if err := json.Unmarshal(raw, &j); err != nil {
				return fmt.Errorf("decode embedding %s: %w", ids[i], err)
			}
			if err := fn(patent.StoredVector{DocumentID: ids[i], Vector: j.Vector}); err != nil {
				return err
			}
		}
		if len(ids) < scanPageSize {
			return nil
		}
		after = ids[len(ids)-1]
	}
}

// completeChains reports, per id, whether both its document and its summary exist.
func (r *Repo) completeChains(ctx context.Context, ids []string) ([]bool, error) {
	keys := append(r.keys.many(ids, r.keys.summary), r.keys.many(ids, r.keys.doc)...)
	exists, err := r.store.ExistsMulti(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(ids))
	for i := range ids {
		out[i] = exists[i] && exists[len(ids)+i]
	}
	return out, nil
}

// Counts returns the size of each stage index.
func (r *Repo) Counts(ctx context.Context) (patent.Counts, error) {
	var c patent.Counts
	var err error
	if c.Documents, err = r.store.ZCard(ctx, r.keys.docIndex()); err != nil {
		return c, fmt.Errorf("count documents: %w", err)
	}
	if c.Summaries, err = r.store.ZCard(ctx, r.keys.summaryIndex()); err != nil {
		return c, fmt.Errorf("count summaries: %w", err)
	}
	if c.Embeddings, err = r.store.ZCard(ctx, r.keys.embeddingIndex()); err != nil {
		return c, fmt.Errorf("count embeddings: %w", err)
	}
	return c, nil
}

// EstablishDimensions records n as the corpus dimensionality if none is recorded yet and
// returns the recorded value.
func (r *Repo) EstablishDimensions(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("dimensions must be positive: %w", domain.ErrInvalidArgument)
	}
	written, err := r.store.HSetNX(ctx, r.keys.meta(), dimensionsField, strconv.Itoa(n))
	if err != nil {
		return 0, fmt.Errorf("establish dimensions: %w", err)
	}
	if written {
		return n, nil
	}
	meta, err := r.store.HGetAll(ctx, r.keys.meta())
	if err != nil {
		return 0, fmt.Errorf("read dimensions: %w", err)
	}
	dims, err := strconv.Atoi(meta[dimensionsField])
	if err != nil {
		return 0, fmt.Errorf("parse dimensions %q: %w", meta[dimensionsField], err)
	}
	return dims, nil
}
