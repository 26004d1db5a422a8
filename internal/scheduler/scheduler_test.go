package scheduler

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterRejectsBadExpression(t *testing.T) {
	s := NewScheduler(context.Background(), Jobs{
		Ingest: func(context.Context) error { return nil },
	}, nil)
	if err := s.Register("not a cron", "", ""); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestRegisterSkipsNilJobs(t *testing.T) {
	s := NewScheduler(context.Background(), Jobs{}, nil)
	// No jobs registered, so the invalid expressions are never parsed.
	if err := s.Register("x", "y", "z"); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRunAllNowOrderAndErrors(t *testing.T) {
	var order []string
	s := NewScheduler(context.Background(), Jobs{
		Ingest: func(context.Context) error {
			order = append(order, "ingest")
			return errors.New("boom")
		},
		Stats: func(context.Context) error {
			order = append(order, "stats")
			return nil
		},
		Notify: func(context.Context) error {
			order = append(order, "notify")
			return nil
		},
	}, nil)

	s.RunAllNow()

	want := []string{"ingest", "stats", "notify"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
}
