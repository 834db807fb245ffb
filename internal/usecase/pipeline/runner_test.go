package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
	"github.com/kailas-cloud/patentdex/internal/logger"
	"github.com/kailas-cloud/patentdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

func fixedIDs(ids ...string) SelectFunc {
	return func(_ context.Context, limit int) ([]string, error) {
		if len(ids) > limit {
			return ids[:limit], nil
		}
		return ids, nil
	}
}

func newTestRunner(workers int) *Runner {
	r := NewRunner(batch.StageEnrich, workers, nil)
	r.newID = func() string { return "run-1" }
	return r
}

func TestRunner_InvalidBatchSize(t *testing.T) {
	r := newTestRunner(1)
	called := false
	_, err := r.Run(context.Background(), 0, func(context.Context, int) ([]string, error) {
		called = true
		return nil, nil
	}, nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if called {
		t.Fatal("selection must not run for an invalid batch size")
	}
}

func TestRunner_Outcomes(t *testing.T) {
	r := newTestRunner(2)
	report, err := r.Run(context.Background(), 10, fixedIDs("a", "b", "c"), func(_ context.Context, id string) error {
		switch id {
		case "b":
			return fmt.Errorf("summary b: %w", domain.ErrAlreadyProcessed)
		case "c":
			return fmt.Errorf("generate c: %w", domain.ErrModelError)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.RunID != "run-1" || report.Stage != batch.StageEnrich {
		t.Errorf("unexpected report header %+v", report)
	}
	if report.Selected() != 3 || report.Processed() != 1 || report.Skipped() != 1 || report.Failed() != 1 {
		t.Errorf("unexpected counts: selected=%d processed=%d skipped=%d failed=%d",
			report.Selected(), report.Processed(), report.Skipped(), report.Failed())
	}
	if report.Items[2].ID() != "c" || !errors.Is(report.Items[2].Err(), domain.ErrModelError) {
		t.Errorf("items must keep selection order, got %+v", report.Items[2])
	}
}

func TestRunner_EmptySelection(t *testing.T) {
	r := newTestRunner(1)
	report, err := r.Run(context.Background(), 5, fixedIDs(), func(context.Context, string) error {
		t.Fatal("process must not be called")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Processed() != 0 {
		t.Fatalf("expected 0 processed, got %d", report.Processed())
	}
}

func TestRunner_BatchSizeBoundsSelection(t *testing.T) {
	r := newTestRunner(1)
	var calls atomic.Int32
	report, err := r.Run(context.Background(), 2, fixedIDs("a", "b", "c", "d"), func(context.Context, string) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 || report.Processed() != 2 {
		t.Fatalf("expected 2 processed, got calls=%d processed=%d", calls.Load(), report.Processed())
	}
}

func TestRunner_SelectError(t *testing.T) {
	r := newTestRunner(1)
	boom := errors.New("redis down")
	_, err := r.Run(context.Background(), 1, func(context.Context, int) ([]string, error) {
		return nil, boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected select error, got %v", err)
	}
}

func TestRunner_FatalStopsBatch(t *testing.T) {
	r := newTestRunner(1)
	var calls atomic.Int32
	report, err := r.Run(context.Background(), 10, fixedIDs("a", "b", "c", "d"), func(_ context.Context, id string) error {
		calls.Add(1)
		if id == "b" {
			return domain.NewDimensionMismatch(3, 4)
		}
		return nil
	})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if calls.Load() > 2 {
		t.Errorf("items after the fatal one must not reach the model, got %d calls", calls.Load())
	}
	if report.Processed() != 1 {
		t.Errorf("expected the first item to be kept, got %d processed", report.Processed())
	}
}

func TestRunner_AllUnavailableIsFatal(t *testing.T) {
	r := newTestRunner(3)
	_, err := r.Run(context.Background(), 10, fixedIDs("a", "b", "c"), func(context.Context, string) error {
		return fmt.Errorf("generate: %w", domain.ErrModelUnavailable)
	})
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestRunner_PartialUnavailableIsNotFatal(t *testing.T) {
	r := newTestRunner(3)
	report, err := r.Run(context.Background(), 10, fixedIDs("a", "b"), func(_ context.Context, id string) error {
		if id == "a" {
			return domain.ErrModelUnavailable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Failed() != 1 || report.Processed() != 1 {
		t.Fatalf("expected 1 failed and 1 processed, got %d/%d", report.Failed(), report.Processed())
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	r := newTestRunner(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, 10, fixedIDs("a"), func(context.Context, string) error {
		t.Fatal("process must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunner_LogsToFallbackLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRunner(batch.StageEnrich, 2, zap.New(core))
	r.newID = func() string { return "run-1" }

	_, err := r.Run(context.Background(), 10, fixedIDs("a", "b"), func(_ context.Context, id string) error {
		if id == "a" {
			return domain.ErrModelError
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	failed := logs.FilterMessage("Pipeline item failed").All()
	if len(failed) != 1 || failed[0].ContextMap()["id"] != "a" {
		t.Errorf("expected one item failure for a, got %v", failed)
	}
	finished := logs.FilterMessage("Pipeline batch finished").All()
	if len(finished) != 1 {
		t.Fatalf("expected one batch line, got %d", len(finished))
	}
	fields := finished[0].ContextMap()
	if fields["run_id"] != "run-1" || fields["failed"] != int64(1) || fields["processed"] != int64(1) {
		t.Errorf("unexpected batch fields: %v", fields)
	}
}

func TestRunner_ContextLoggerWins(t *testing.T) {
	fallbackCore, fallbackLogs := observer.New(zap.DebugLevel)
	reqCore, reqLogs := observer.New(zap.DebugLevel)
	r := NewRunner(batch.StageEmbed, 1, zap.New(fallbackCore))

	ctx := logger.ContextWithLogger(context.Background(), zap.New(reqCore))
	if _, err := r.Run(ctx, 1, fixedIDs("a"), func(context.Context, string) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallbackLogs.Len() != 0 {
		t.Errorf("fallback logger used despite context logger: %v", fallbackLogs.All())
	}
	if reqLogs.FilterMessage("Pipeline batch finished").Len() != 1 {
		t.Errorf("expected batch line on context logger, got %v", reqLogs.All())
	}
}
