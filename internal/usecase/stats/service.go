// Package stats reports corpus progress and model token usage.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/domain/patent"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

// PeriodUsage is the token budget state for one period. Limit 0 means unlimited and
// Remaining is then -1.
type PeriodUsage struct {
	Limit     int64
	Used      int64
	Remaining int64
	ResetsAt  time.Time
}

// Report is the /stats payload.
type Report struct {
	Counts     patent.Counts
	Unenriched int64
	Unembedded int64
	Daily      *PeriodUsage // nil without a budget tracker
	Monthly    *PeriodUsage
}

// Service builds stats reports.
type Service struct {
	counter Counter
	br      BudgetReader
	now     func() time.Time
}

// New creates a Service. br can be nil.
func New(counter Counter, br BudgetReader) *Service {
	return &Service{counter: counter, br: br, now: time.Now}
}

// Report reads the store counts and refreshes the backlog gauges.
func (s *Service) Report(ctx context.Context) (Report, error) {
	counts, err := s.counter.Counts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("count records: %w", err)
	}
	unenriched, unembedded := counts.Pending()
	metrics.PipelineBacklog.WithLabelValues(string(batch.StageEnrich)).Set(float64(unenriched))
	metrics.PipelineBacklog.WithLabelValues(string(batch.StageEmbed)).Set(float64(unembedded))

	r := Report{Counts: counts, Unenriched: unenriched, Unembedded: unembedded}
	if s.br == nil {
		return r, nil
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	r.Daily = &PeriodUsage{
		Limit:     s.br.DailyLimit(),
		Used:      s.br.DailyUsed(),
		Remaining: s.br.RemainingDaily(),
		ResetsAt:  dayStart.AddDate(0, 0, 1),
	}
	r.Monthly = &PeriodUsage{
		Limit:     s.br.MonthlyLimit(),
		Used:      s.br.MonthlyUsed(),
		Remaining: s.br.RemainingMonthly(),
		ResetsAt:  monthStart.AddDate(0, 1, 0),
	}
	return r, nil
}
