package stats

import (
	"context"

	"github.com/kailas-cloud/patentdex/internal/domain/patent"
)

// Counter reports the size of each record set.
type Counter interface {
	Counts(ctx context.Context) (patent.Counts, error)
}

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	DailyLimit() int64
	MonthlyLimit() int64
	DailyUsed() int64
	MonthlyUsed() int64
	RemainingDaily() int64
	RemainingMonthly() int64
}
