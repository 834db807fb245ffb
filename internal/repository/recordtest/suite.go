// Package recordtest holds a behavioural suite every record store backend must pass.
package recordtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Store is the full record store surface exercised by the suite.
type Store interface {
	InsertDocument(ctx context.Context, doc patent.Document) error
	GetDocument(ctx context.Context, id string) (patent.Document, error)
	GetDocuments(ctx context.Context, ids []string) (map[string]patent.Document, error)
	GetSummary(ctx context.Context, id string) (patent.Summary, error)
	GetEmbedding(ctx context.Context, id string) (patent.Embedding, error)
	UnenrichedIDs(ctx context.Context, limit int) ([]string, error)
	UnembeddedIDs(ctx context.Context, limit int) ([]string, error)
	InsertSummary(ctx context.Context, s patent.Summary) error
	InsertEmbedding(ctx context.Context, e patent.Embedding) error
	ScanEmbeddings(ctx context.Context, fn func(patent.StoredVector) error) error
	Counts(ctx context.Context) (patent.Counts, error)
	EstablishDimensions(ctx context.Context, n int) (int, error)
}

// Run executes the suite. newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s Store)
	}{
		{"DocumentRoundTrip", testDocumentRoundTrip},
		{"DocumentImmutable", testDocumentImmutable},
		{"GetDocumentsSkipsMissing", testGetDocumentsSkipsMissing},
		{"UnenrichedOrderedAndBounded", testUnenrichedOrderedAndBounded},
		{"UnenrichedPagesPastProcessed", testUnenrichedPagesPastProcessed},
		{"SummaryInsertOnce", testSummaryInsertOnce},
		{"UnembeddedFollowsSummaries", testUnembeddedFollowsSummaries},
		{"EmbeddingRoundTrip", testEmbeddingRoundTrip},
		{"ScanOrderedAndRestartable", testScanOrderedAndRestartable},
		{"ScanStopsOnCallbackError", testScanStopsOnCallbackError},
		{"ScanSkipsIncompleteChains", testScanSkipsIncompleteChains},
		{"Counts", testCounts},
		{"EstablishDimensionsFirstWins", testEstablishDimensionsFirstWins},
		{"ConcurrentSummaryInsert", testConcurrentSummaryInsert},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

var created = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Doc builds a valid document for tests.
func Doc(t *testing.T, id string) patent.Document {
	t.Helper()
	d, err := patent.New(id, "Title "+id, "Abstract of "+id, patent.Fields{
		Classification: "G06F40/30",
		FilingDate:     time.Date(2019, 5, 17, 0, 0, 0, 0, time.UTC),
		ClaimCount:     12,
		Metadata:       map[string]string{"assignee": "Acme"},
	})
	require.NoError(t, err)
	return d
}

// Summary builds a valid summary for tests.
func Summary(t *testing.T, id string) patent.Summary {
	t.Helper()
	s, err := patent.NewSummary(id, "keywords for "+id, "gen-model", created)
	require.NoError(t, err)
	return s
}

// Embedding builds a valid embedding for tests.
func Embedding(t *testing.T, id string, vec []float64) patent.Embedding {
	t.Helper()
	e, err := patent.NewEmbedding(id, vec, patent.EmbeddingMeta{TokenCount: 7, Model: "emb-model"}, created)
	require.NoError(t, err)
	return e
}

func seed(t *testing.T, s Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.InsertDocument(context.Background(), Doc(t, id)))
	}
}

func testDocumentRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "US-1")

	got, err := s.GetDocument(ctx, "US-1")
	require.NoError(t, err)
	assert.Equal(t, "US-1", got.ID())
	assert.Equal(t, "Title US-1", got.Title())
	assert.Equal(t, "Abstract of US-1", got.Abstract())
	assert.Equal(t, "G06F40/30", got.Classification())
	assert.Equal(t, 12, got.ClaimCount())
	assert.True(t, got.FilingDate().Equal(time.Date(2019, 5, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Acme", got.Metadata()["assignee"])

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testDocumentImmutable(t *testing.T, s Store) {
	seed(t, s, "US-1")
	err := s.InsertDocument(context.Background(), Doc(t, "US-1"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func testGetDocumentsSkipsMissing(t *testing.T, s Store) {
	seed(t, s, "a", "b")
	got, err := s.GetDocuments(context.Background(), []string{"a", "x", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.NotContains(t, got, "x")
}

func testUnenrichedOrderedAndBounded(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "c", "a", "d", "b")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "b")))

	ids, err := s.UnenrichedIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)

	ids, err = s.UnenrichedIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids)
}

func testUnenrichedPagesPastProcessed(t *testing.T, s Store) {
	ctx := context.Background()
	for i := range 300 {
		seed(t, s, fmt.Sprintf("doc-%03d", i))
	}
	for i := range 280 {
		require.NoError(t, s.InsertSummary(ctx, Summary(t, fmt.Sprintf("doc-%03d", i))))
	}

	ids, err := s.UnenrichedIDs(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-280", "doc-281", "doc-282", "doc-283", "doc-284"}, ids)
}

func testSummaryInsertOnce(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "a")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "a")))

	other, err := patent.NewSummary("a", "a different text", "gen-model", created)
	require.NoError(t, err)
	assert.ErrorIs(t, s.InsertSummary(ctx, other), domain.ErrAlreadyProcessed)

	got, err := s.GetSummary(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "keywords for a", got.Text())
	assert.Equal(t, "gen-model", got.Model())

	_, err = s.GetSummary(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testUnembeddedFollowsSummaries(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "a", "b", "c")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "c")))
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "a")))

	ids, err := s.UnembeddedIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)

	require.NoError(t, s.InsertEmbedding(ctx, Embedding(t, "a", []float64{1, 0})))
	ids, err = s.UnembeddedIDs(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)
}

func testEmbeddingRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "a")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "a")))

	vec := []float64{0.1, 0.2, 0.30000000000000004, -1e-9}
	e, err := patent.NewEmbedding("a", vec, patent.EmbeddingMeta{Truncated: true, TokenCount: 8191, Model: "m"}, created)
	require.NoError(t, err)
	require.NoError(t, s.InsertEmbedding(ctx, e))
	assert.ErrorIs(t, s.InsertEmbedding(ctx, e), domain.ErrAlreadyProcessed)

	got, err := s.GetEmbedding(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, vec, got.Vector())
	assert.True(t, got.Truncated())
	assert.InDelta(t, 8191, got.TokenCount(), 0)
	assert.Equal(t, "m", got.Model())

	_, err = s.GetEmbedding(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testScanOrderedAndRestartable(t *testing.T, s Store) {
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		seed(t, s, id)
		require.NoError(t, s.InsertSummary(ctx, Summary(t, id)))
		require.NoError(t, s.InsertEmbedding(ctx, Embedding(t, id, []float64{1, float64(len(id))})))
	}

	collect := func() []string {
		var ids []string
		require.NoError(t, s.ScanEmbeddings(ctx, func(v patent.StoredVector) error {
			require.Len(t, v.Vector, 2)
			ids = append(ids, v.DocumentID)
			return nil
		}))
		return ids
	}
	assert.Equal(t, []string{"a", "b", "c"}, collect())
	assert.Equal(t, []string{"a", "b", "c"}, collect())
}

func testScanStopsOnCallbackError(t *testing.T, s Store) {
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		seed(t, s, id)
		require.NoError(t, s.InsertSummary(ctx, Summary(t, id)))
		require.NoError(t, s.InsertEmbedding(ctx, Embedding(t, id, []float64{1, 2})))
	}
	stop := errors.New("stop")
	calls := 0
	err := s.ScanEmbeddings(ctx, func(patent.StoredVector) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func testScanSkipsIncompleteChains(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "P1", "P2")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "P2")))
	require.NoError(t, s.InsertEmbedding(ctx, Embedding(t, "P2", []float64{0, 1})))

	// Backends with referential integrity reject these writes outright; the rest
	// must keep them out of the scan.
	_ = s.InsertEmbedding(ctx, Embedding(t, "P1", []float64{1, 0}))
	_ = s.InsertEmbedding(ctx, Embedding(t, "P3", []float64{1, 1}))

	var ids []string
	require.NoError(t, s.ScanEmbeddings(ctx, func(v patent.StoredVector) error {
		ids = append(ids, v.DocumentID)
		return nil
	}))
	assert.Equal(t, []string{"P2"}, ids)
}

func testCounts(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "a", "b", "c")
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "a")))
	require.NoError(t, s.InsertSummary(ctx, Summary(t, "b")))
	require.NoError(t, s.InsertEmbedding(ctx, Embedding(t, "a", []float64{1})))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, patent.Counts{Documents: 3, Summaries: 2, Embeddings: 1}, c)
}

func testEstablishDimensionsFirstWins(t *testing.T, s Store) {
	ctx := context.Background()
	n, err := s.EstablishDimensions(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.EstablishDimensions(ctx, 1536)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.EstablishDimensions(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func testConcurrentSummaryInsert(t *testing.T, s Store) {
	ctx := context.Background()
	seed(t, s, "a")

	const writers = 8
	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range writers {
		wg.Go(func() {
			err := s.InsertSummary(ctx, Summary(t, "a"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrAlreadyProcessed):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
}
