// Package chi exposes the patentdex HTTP API on a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/usecase/health"
)

// DefaultBatchSize is used by /pipeline routes when batch_size is absent.
const DefaultBatchSize = 50

// maxBatchSize caps a single synchronous pipeline request.
const maxBatchSize = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Services groups the use cases served over HTTP.
type Services struct {
	Search    Searcher
	Enrich    StageRunner
	Embed     StageRunner
	Documents DocumentReader
	Stats     StatsReporter
	Health    HealthChecker

	// BatchSize is the default for /pipeline routes; 0 means DefaultBatchSize.
	BatchSize int
}

// Server holds the HTTP handlers.
type Server struct {
	svc           Services
	batchSize     int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	batchSize := svc.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	s := &Server{svc: svc, batchSize: batchSize, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusBadGateway, CodeModelUnavailable),
		sentinelHandler(domain.ErrModelError, http.StatusBadGateway, CodeModelError),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusInternalServerError, CodeDimensionMismatch),
		// Zero query vectors also carry ErrModelError and stop above.
		sentinelHandler(domain.ErrZeroVector, http.StatusInternalServerError, CodeInternalError),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.Search)
	r.Post("/pipeline/enrich", s.RunEnrich)
	r.Post("/pipeline/embed", s.RunEmbed)
	r.Get("/documents/{id}", s.GetDocument)
	r.Get("/stats", s.Stats)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// Search handles GET /search?q=&k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var (
		q string
		k *int
	)
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query parameter q is required")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", r.URL.Query(), &k); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query parameter k must be an integer")
		return
	}
	limit := s.svc.Search.DefaultK()
	if k != nil {
		limit = *k
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results, err := s.svc.Search.Search(ctx, q, limit)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   strings.TrimSpace(q),
		K:       limit,
		Results: SearchItemsFrom(results),
	})
}

// RunEnrich handles POST /pipeline/enrich.
func (s *Server) RunEnrich(w http.ResponseWriter, r *http.Request) {
	s.runStage(w, r, s.svc.Enrich)
}

// RunEmbed handles POST /pipeline/embed.
func (s *Server) RunEmbed(w http.ResponseWriter, r *http.Request) {
	s.runStage(w, r, s.svc.Embed)
}

func (s *Server) runStage(w http.ResponseWriter, r *http.Request, stage StageRunner) {
	var size *int
	if err := runtime.BindQueryParameter("form", true, false, "batch_size", r.URL.Query(), &size); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "query parameter batch_size must be an integer")
		return
	}
	batchSize := s.batchSize
	if size != nil {
		batchSize = *size
	}
	if batchSize < 1 || batchSize > maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeBadRequest,
			"batch_size must be between 1 and "+strconv.Itoa(maxBatchSize))
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rep, err := stage.Run(ctx, batchSize)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BatchReportFrom(&rep))
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := patent.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	doc, err := s.svc.Documents.GetDocument(ctx, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := documentToResponse(&doc)

	sum, err := s.svc.Documents.GetSummary(ctx, id)
	switch {
	case err == nil:
		resp.Summary = summaryToView(&sum)
	case !errors.Is(err, domain.ErrNotFound):
		s.handleDomainError(w, err)
		return
	}

	emb, err := s.svc.Documents.GetEmbedding(ctx, id)
	switch {
	case err == nil:
		resp.Embedding = embeddingToView(&emb)
	case !errors.Is(err, domain.ErrNotFound):
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Stats.Report(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsFrom(&rep))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == health.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.ModelUsage) {
	if usage.Used() {
		w.Header().Set("X-Model-Tokens", strconv.FormatInt(usage.TotalTokens(), 10))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// A dimension mismatch keeps both lengths.
func safeDomainMessage(err error) string {
	var dme *domain.DimensionMismatchError
	if errors.As(err, &dme) {
		return dme.Error()
	}
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrZeroVector,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrAlreadyProcessed,
		domain.ErrQuotaExceeded,
		domain.ErrRateLimited,
		domain.ErrModelUnavailable,
		domain.ErrModelError,
		domain.ErrDimensionMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
