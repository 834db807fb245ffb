package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/patentdex/internal/domain"
	"github.com/kailas-cloud/patentdex/internal/domain/batch"
)

// fakeStage processes up to batchSize of its remaining items per call.
type fakeStage struct {
	mu        sync.Mutex
	remaining int
	feed      *fakeStage // receives processed items
	failEvery bool
	err       error
	calls     int
}

func (f *fakeStage) Run(_ context.Context, batchSize int) (batch.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return batch.Report{}, f.err
	}
	n := min(batchSize, f.remaining)
	items := make([]batch.Result, n)
	for i := range n {
		id := fmt.Sprintf("D%d", i)
		if f.failEvery {
			items[i] = batch.NewError(id, domain.ErrModelError)
			continue
		}
		items[i] = batch.NewOK(id)
	}
	if !f.failEvery {
		f.remaining -= n
		if f.feed != nil {
			f.feed.mu.Lock()
			f.feed.remaining += n
			f.feed.mu.Unlock()
		}
	}
	return batch.Report{Items: items}, nil
}

func TestDrain_ProcessesEverything(t *testing.T) {
	embed := &fakeStage{}
	enrich := &fakeStage{remaining: 7, feed: embed}
	d := NewDrainer(enrich, embed, 3, 0)

	res, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Enriched != 7 || res.Embedded != 7 {
		t.Fatalf("expected 7/7, got %d/%d", res.Enriched, res.Embedded)
	}
	if res.Rounds != 4 {
		t.Errorf("expected 3 working rounds plus an idle one, got %d", res.Rounds)
	}
}

func TestDrain_StopsOnAllFailures(t *testing.T) {
	enrich := &fakeStage{remaining: 5, failEvery: true}
	d := NewDrainer(enrich, &fakeStage{}, 10, 0)

	res, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rounds != 1 || res.Failed != 5 {
		t.Fatalf("expected a single failing round, got rounds=%d failed=%d", res.Rounds, res.Failed)
	}
}

func TestDrain_MaxRounds(t *testing.T) {
	enrich := &fakeStage{remaining: 100}
	d := NewDrainer(enrich, &fakeStage{}, 10, 2)

	res, err := d.Drain(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rounds != 2 || res.Enriched != 20 {
		t.Fatalf("expected 2 rounds and 20 enriched, got %d/%d", res.Rounds, res.Enriched)
	}
}

func TestDrain_StageErrorStops(t *testing.T) {
	embed := &fakeStage{err: domain.ErrDimensionMismatch}
	d := NewDrainer(&fakeStage{remaining: 3, feed: embed}, embed, 10, 0)

	_, err := d.Drain(context.Background())
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	enrich := &fakeStage{remaining: 3}

	_, err := NewDrainer(enrich, &fakeStage{}, 10, 0).Drain(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if enrich.calls != 0 {
		t.Fatalf("expected no stage calls, got %d", enrich.calls)
	}
}

func TestRunner_StopsOnCancel(t *testing.T) {
	enrich := &fakeStage{}
	r := NewRunner(NewDrainer(enrich, &fakeStage{}, 1, 0), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}

	enrich.mu.Lock()
	defer enrich.mu.Unlock()
	if enrich.calls < 2 {
		t.Errorf("expected repeated drains, got %d", enrich.calls)
	}
}

func TestDrain_LogsToConfiguredLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	embed := &fakeStage{}
	enrich := &fakeStage{remaining: 2, feed: embed}
	d := NewDrainer(enrich, embed, 10, 0).WithLogger(zap.New(core))

	if _, err := d.Drain(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := logs.FilterMessage("Drain finished").All()
	if len(entries) != 1 {
		t.Fatalf("expected one drain line, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["enriched"]; got != int64(2) {
		t.Errorf("enriched = %v, want 2", got)
	}
}
