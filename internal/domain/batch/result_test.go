package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("doc-1")
	if r.ID() != "doc-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("doc-2", err)
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestReport_Counts(t *testing.T) {
	rep := Report{
		Stage: StageEnrich,
		Items: []Result{
			NewOK("a"),
			NewOK("b"),
			NewSkipped("c"),
			NewError("d", errors.New("boom")),
		},
	}
	if rep.Selected() != 4 {
		t.Errorf("Selected() = %d, want 4", rep.Selected())
	}
	if rep.Processed() != 2 {
		t.Errorf("Processed() = %d, want 2", rep.Processed())
	}
	if rep.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", rep.Skipped())
	}
	if rep.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", rep.Failed())
	}
}

func TestReport_Empty(t *testing.T) {
	var rep Report
	if rep.Selected() != 0 || rep.Processed() != 0 {
		t.Error("empty report must count zero")
	}
}
