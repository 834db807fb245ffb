package sqlstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

const dateLayout = "2006-01-02"

// InsertDocument stores a document unless its ID already exists.
func (s *Store) InsertDocument(ctx context.Context, doc patent.Document) error {
	meta, err := json.Marshal(doc.Metadata())
	if err != nil {
		return fmt.Errorf("marshal metadata %s: %w", doc.ID(), err)
	}
	var filed string
	if !doc.FilingDate().IsZero() {
		filed = doc.FilingDate().Format(dateLayout)
	}
	ok, err := s.insertOnce(ctx, `
		INSERT INTO documents (id, title, abstract, classification, filing_date, claim_count, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		doc.ID(), doc.Title(), doc.Abstract(), doc.Classification(), filed, doc.ClaimCount(), string(meta))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID(), err)
	}
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID(), domain.ErrAlreadyExists)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (patent.Document, error) {
	var (
		id, title, abstract, class, filed, meta string
		claims                                  int
	)
	if err := row.Scan(&id, &title, &abstract, &class, &filed, &claims, &meta); err != nil {
		return patent.Document{}, err
	}
	f := patent.Fields{Classification: class, ClaimCount: claims}
	if filed != "" {
		if t, err := time.Parse(dateLayout, filed); err == nil {
			f.FilingDate = t
		}
	}
	if meta != "" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &f.Metadata); err != nil {
			return patent.Document{}, fmt.Errorf("decode metadata %s: %w", id, err)
		}
	}
	return patent.Reconstruct(id, title, abstract, f), nil
}

const documentColumns = `id, title, abstract, classification, filing_date, claim_count, metadata`

// GetDocument returns a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (patent.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return patent.Document{}, notFound("document", id, err)
	}
	return doc, nil
}

// GetDocuments fetches several documents in one query. Missing IDs are absent from the map.
func (s *Store) GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error) {
	out := make(map[string]patent.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[doc.ID()] = doc
	}
	return out, rows.Err()
}

// GetSummary returns the summary of a document.
func (s *Store) GetSummary(ctx context.Context, id string) (patent.Summary, error) {
	var text, model, created string
	err := s.db.QueryRowContext(ctx,
		`SELECT text, model, created_at FROM summaries WHERE document_id = ?`, id).
		Scan(&text, &model, &created)
	if err != nil {
		return patent.Summary{}, notFound("summary", id, err)
	}
	return patent.ReconstructSummary(id, text, model, parseTime(created)), nil
}

// GetEmbedding returns the embedding of a document.
func (s *Store) GetEmbedding(ctx context.Context, id string) (patent.Embedding, error) {
	var (
		blob           []byte
		truncated      bool
		tokens         float64
		model, created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT vector, truncated, token_count, model, created_at FROM embeddings WHERE document_id = ?`, id).
		Scan(&blob, &truncated, &tokens, &model, &created)
	if err != nil {
		return patent.Embedding{}, notFound("embedding", id, err)
	}
	return patent.ReconstructEmbedding(id, decodeVector(blob), patent.EmbeddingMeta{
		Truncated:  truncated,
		TokenCount: tokens,
		Model:      model,
	}, parseTime(created)), nil
}

// UnenrichedIDs returns up to limit document IDs without a summary, in ascending ID order.
func (s *Store) UnenrichedIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := s.selectIDs(ctx, `
		SELECT d.id FROM documents d
		LEFT JOIN summaries s ON s.document_id = d.id
		WHERE s.document_id IS NULL
		ORDER BY d.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select unenriched: %w", err)
	}
	return ids, nil
}

// UnembeddedIDs returns up to limit summarized document IDs without an embedding, in ascending ID order.
func (s *Store) UnembeddedIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := s.selectIDs(ctx, `
		SELECT s.document_id FROM summaries s
		LEFT JOIN embeddings e ON e.document_id = s.document_id
		WHERE e.document_id IS NULL
		ORDER BY s.document_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select unembedded: %w", err)
	}
	return ids, nil
}

func (s *Store) selectIDs(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertSummary stores a summary; returns ErrAlreadyProcessed if one already exists.
func (s *Store) InsertSummary(ctx context.Context, sum patent.Summary) error {
	ok, err := s.insertOnce(ctx, `
		INSERT INTO summaries (document_id, text, model, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id) DO NOTHING`,
		sum.DocumentID(), sum.Text(), sum.Model(), formatTime(sum.CreatedAt()))
	if err != nil {
		return fmt.Errorf("insert summary %s: %w", sum.DocumentID(), err)
	}
	if !ok {
		return fmt.Errorf("summary %s: %w", sum.DocumentID(), domain.ErrAlreadyProcessed)
	}
	return nil
}

// InsertEmbedding stores an embedding; returns ErrAlreadyProcessed if one already exists.
func (s *Store) InsertEmbedding(ctx context.Context, e patent.Embedding) error {
	ok, err := s.insertOnce(ctx, `
		INSERT INTO embeddings (document_id, vector, dimensions, truncated, token_count, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO NOTHING`,
		e.DocumentID(), encodeVector(e.Vector()), e.Dimensions(), e.Truncated(), e.TokenCount(), e.Model(),
		formatTime(e.CreatedAt()))
	if err != nil {
		return fmt.Errorf("insert embedding %s: %w", e.DocumentID(), err)
	}
	if !ok {
		return fmt.Errorf("embedding %s: %w", e.DocumentID(), domain.ErrAlreadyProcessed)
	}
	return nil
}

// ScanEmbeddings calls fn for every document that has a summary and an embedding, in
// ascending ID order. Rows are read page by page (keyset pagination) so fn never runs
// while a query holds the connection.
func (s *Store) ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error {
	after := ""
	for {
		page, err := s.scanPage(ctx, after)
		if err != nil {
			return fmt.Errorf("scan embeddings: %w", err)
		}
		for _, v := range page {
			if err := fn(v); err != nil {
				return err
			}
		}
		if len(page) < scanPageSize {
			return nil
		}
		after = page[len(page)-1].DocumentID
	}
}

func (s *Store) scanPage(ctx context.Context, after string) ([]patent.StoredVector, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.document_id, e.vector FROM embeddings e
		JOIN summaries s ON s.document_id = e.document_id
		JOIN documents d ON d.id = e.document_id
		WHERE e.document_id > ?
		ORDER BY e.document_id LIMIT ?`, after, scanPageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	page := make([]patent.StoredVector, 0, scanPageSize)
	for rows.Next() {
		var (
			id   string
			blob []byte
		)
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		page = append(page, patent.StoredVector{DocumentID: id, Vector: decodeVector(blob)})
	}
	return page, rows.Err()
}

// Counts returns the number of rows in each table.
func (s *Store) Counts(ctx context.Context) (patent.Counts, error) {
	var c patent.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM summaries),
			(SELECT COUNT(*) FROM embeddings)`).
		Scan(&c.Documents, &c.Summaries, &c.Embeddings)
	if err != nil {
		return patent.Counts{}, fmt.Errorf("count records: %w", err)
	}
	return c, nil
}

// encodeVector serializes []float64 to a BLOB (8 bytes per float, little-endian).
func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// decodeVector deserializes a BLOB written by encodeVector.
func decodeVector(b []byte) []float64 {
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
