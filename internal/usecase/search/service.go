// Package search resolves free-text queries by exact cosine-distance scan over all
// stored embeddings.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/domain/search/result"
	"github.com/kailas-cloud/patentdex/internal/domain/vector"
	"github.com/kailas-cloud/patentdex/internal/logger"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

// Defaults for the result size.
const (
	DefaultK = 10
	MaxK     = 100
)

// Config holds the search limits.
type Config struct {
	DefaultK   int
	MaxK       int
	Dimensions int // 0 = accept any query length; stored vectors still must match
	Logger     *zap.Logger
}

// Service is the similarity search engine.
type Service struct {
	store    Store
	embed    domain.Embedder
	defaultK int
	maxK     int
	logger   *zap.Logger
}

// New creates a search service.
func New(store Store, emb Embedder, cfg Config) *Service {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = DefaultK
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = MaxK
	}
	return &Service{
		store:    store,
		embed:    domain.NewDimensionGuard(emb, cfg.Dimensions, nil),
		defaultK: min(cfg.DefaultK, cfg.MaxK),
		maxK:     cfg.MaxK,
		logger:   cfg.Logger,
	}
}

// DefaultK is the result size used when the caller does not pass one.
func (s *Service) DefaultK() int { return s.defaultK }

// Search returns up to k documents ordered by ascending cosine distance to the query,
// ties broken by ascending ID. Documents without an embedding are never candidates.
func (s *Service) Search(ctx context.Context, query string, k int) ([]result.Result, error) {
	start := time.Now()
	results, err := s.search(ctx, query, k)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.SearchRequestsTotal.WithLabelValues(status).Inc()
	return results, err
}

func (s *Service) search(ctx context.Context, query string, k int) ([]result.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query text is empty: %w", domain.ErrInvalidArgument)
	}
	if k <= 0 || k > s.maxK {
		return nil, fmt.Errorf("k must be in [1, %d], got %d: %w", s.maxK, k, domain.ErrInvalidArgument)
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	if emb.Truncated {
		return nil, fmt.Errorf("query exceeds the embedding context window: %w", domain.ErrModelError)
	}
	q, err := vector.NewQuery(emb.Vector)
	if err != nil {
		// Query vectors come from the model.
		return nil, fmt.Errorf("query vector: %w: %w", domain.ErrModelError, err)
	}

	ranked, scanned, err := s.rank(ctx, q, k)
	if err != nil {
		return nil, err
	}
	metrics.SearchCandidates.Observe(float64(scanned))

	return s.join(ctx, ranked)
}

// rank scores every stored vector and keeps the k nearest.
func (s *Service) rank(ctx context.Context, q vector.Query, k int) ([]result.Ranked, int, error) {
	top := newTopK(k)
	scanned := 0
	err := s.store.ScanEmbeddings(ctx, func(sv patent.StoredVector) error {
		d, err := q.Distance(sv.Vector)
		if err != nil {
			return fmt.Errorf("score %s: %w", sv.DocumentID, err)
		}
		scanned++
		top.offer(result.Ranked{ID: sv.DocumentID, Distance: d})
		return nil
	})
	if err != nil {
		return nil, scanned, fmt.Errorf("scan embeddings: %w", err)
	}
	return top.sorted(), scanned, nil
}

// join attaches title and abstract. Candidates whose document is gone are dropped.
func (s *Service) join(ctx context.Context, ranked []result.Ranked) ([]result.Result, error) {
	if len(ranked) == 0 {
		return []result.Result{}, nil
	}
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.ID
	}
	docs, err := s.store.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	out := make([]result.Result, 0, len(ranked))
	for _, r := range ranked {
		doc, ok := docs[r.ID]
		if !ok {
			logger.FromContextOr(ctx, s.logger).Warn("Search hit has no document, excluding",
				zap.String("id", r.ID), zap.Error(domain.ErrNotFound))
			continue
		}
		out = append(out, result.New(r.ID, doc.Title(), doc.Abstract(), r.Distance))
	}
	return out, nil
}
