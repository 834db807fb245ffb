package modelgw

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/patentdex/internal/domain"
)

func newTracker(daily, monthly int64, action BudgetAction) *BudgetTracker {
	return NewBudgetTracker(BudgetConfig{
		KeyPrefix:    "patentdex:",
		Provider:     "openai",
		DailyLimit:   daily,
		MonthlyLimit: monthly,
		Action:       action,
	}, zap.NewNop())
}

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionReject)
	bt.Record(100)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := newTracker(100, 0, BudgetActionWarn)
	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
}

func TestBudgetTracker_DefaultActionIsWarn(t *testing.T) {
	bt := newTracker(10, 0, "")
	bt.Record(50)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected warn by default, got %v", err)
	}
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := newTracker(0, 500, BudgetActionReject)
	bt.Record(500)

	err := bt.Check(context.Background())
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestBudgetTracker_UnlimitedWhenZero(t *testing.T) {
	bt := newTracker(0, 0, BudgetActionReject)
	bt.Record(999999999)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for unlimited budget, got %v", err)
	}
	if bt.RemainingDaily() != -1 || bt.RemainingMonthly() != -1 {
		t.Errorf("expected -1 remaining for unlimited, got %d/%d", bt.RemainingDaily(), bt.RemainingMonthly())
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := newTracker(1000, 10000, BudgetActionWarn)
	bt.Record(300)

	if got := bt.RemainingDaily(); got != 700 {
		t.Errorf("expected daily remaining 700, got %d", got)
	}
	if got := bt.RemainingMonthly(); got != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", got)
	}

	bt.Record(5000)
	if got := bt.RemainingDaily(); got != 0 {
		t.Errorf("expected remaining clamped to 0, got %d", got)
	}
}

func TestBudgetTracker_IgnoresNonPositive(t *testing.T) {
	bt := newTracker(1000, 0, BudgetActionWarn)
	bt.Record(0)
	bt.Record(-5)

	if bt.DailyUsed() != 0 {
		t.Errorf("expected 0 used, got %d", bt.DailyUsed())
	}
}

func TestBudgetTracker_DailyRollover(t *testing.T) {
	bt := newTracker(100, 1000, BudgetActionReject)
	day := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return day }
	bt.lastDayReset = truncateToDay(day)
	bt.lastMonthReset = truncateToMonth(day)

	bt.Record(100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before rollover")
	}

	day = day.Add(2 * time.Hour)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected daily counter reset, got %v", err)
	}
	if bt.MonthlyUsed() != 100 {
		t.Errorf("monthly counter must survive a day rollover, got %d", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_WithStore_LoadsValues(t *testing.T) {
	store := newMockBudgetStore()
	bt := newTracker(1000, 10000, BudgetActionReject)
	store.data[bt.dailyKey(bt.lastDayReset)] = 300
	store.data[bt.monthlyKey(bt.lastMonthReset)] = 5000

	bt.WithStore(context.Background(), store)

	if bt.DailyUsed() != 300 {
		t.Errorf("expected daily_used=300, got %d", bt.DailyUsed())
	}
	if bt.MonthlyUsed() != 5000 {
		t.Errorf("expected monthly_used=5000, got %d", bt.MonthlyUsed())
	}
}

func TestBudgetTracker_Record_PersistsToStore(t *testing.T) {
	store := newMockBudgetStore()
	bt := newTracker(10000, 100000, BudgetActionWarn)
	bt.WithStore(context.Background(), store)

	bt.Record(100)
	bt.Record(200)

	if got := store.value(bt.dailyKey(bt.lastDayReset)); got != 300 {
		t.Errorf("expected store daily=300, got %d", got)
	}
	if got := store.value(bt.monthlyKey(bt.lastMonthReset)); got != 300 {
		t.Errorf("expected store monthly=300, got %d", got)
	}
}

func TestBudgetTracker_WithStore_LoadError(t *testing.T) {
	store := newMockBudgetStore()
	store.getErr = errors.New("connection refused")

	bt := newTracker(1000, 10000, BudgetActionReject)
	bt.WithStore(context.Background(), store)

	if bt.DailyUsed() != 0 || bt.MonthlyUsed() != 0 {
		t.Errorf("expected zero counters on load error, got %d/%d", bt.DailyUsed(), bt.MonthlyUsed())
	}
}

func TestBudgetTracker_Record_StoreWriteError(t *testing.T) {
	store := newMockBudgetStore()
	bt := newTracker(1000, 10000, BudgetActionWarn)
	bt.WithStore(context.Background(), store)
	store.setErr = errors.New("write timeout")

	bt.Record(50)

	if bt.DailyUsed() != 50 {
		t.Errorf("expected daily_used=50 even with store error, got %d", bt.DailyUsed())
	}
}

func TestBudgetTracker_KeyFormat(t *testing.T) {
	bt := newTracker(0, 0, BudgetActionWarn)
	ts := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	if got := bt.dailyKey(ts); got != "patentdex:budget:openai:daily:2026-01-02" {
		t.Errorf("unexpected daily key %q", got)
	}
	if got := bt.monthlyKey(ts); got != "patentdex:budget:openai:monthly:2026-01" {
		t.Errorf("unexpected monthly key %q", got)
	}
}
