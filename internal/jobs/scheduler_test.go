package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

type blockingReconciler struct {
	calls    atomic.Int32
	started  chan struct{}
	release  chan struct{}
	deadline atomic.Bool
	err      error
}

func newBlockingReconciler() *blockingReconciler {
	return &blockingReconciler{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (r *blockingReconciler) ReconcileFixtures(ctx context.Context) (usecase.ReconcileResult, error) {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); ok {
		r.deadline.Store(true)
	}
	r.started <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return usecase.ReconcileResult{}, ctx.Err()
	}
	return usecase.ReconcileResult{Count: 3}, r.err
}

func TestNewScheduler_RejectsInvalidSchedule(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"", "every day", "0 0 * * *"} {
		if _, err := NewScheduler(newBlockingReconciler(), logging.NewNop(), SchedulerConfig{Schedule: spec}); err == nil {
			t.Fatalf("expected error for schedule %q", spec)
		}
	}
}

func TestScheduler_NextRunIsDailyMidnightUTC(t *testing.T) {
	t.Parallel()

	s, err := NewScheduler(newBlockingReconciler(), logging.NewNop(), SchedulerConfig{Schedule: "0 0 0 * * *"})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.Start()
	defer func() { _ = s.Stop(context.Background()) }()

	next := s.NextRun().UTC()
	if next.IsZero() {
		t.Fatalf("expected a next run time")
	}
	if next.Hour() != 0 || next.Minute() != 0 || next.Second() != 0 {
		t.Fatalf("expected midnight, got=%s", next)
	}
}

func TestScheduler_SkipsTickWhileRunActive(t *testing.T) {
	t.Parallel()

	reconciler := newBlockingReconciler()
	s, err := NewScheduler(reconciler, logging.NewNop(), SchedulerConfig{Schedule: "0 0 0 * * *", Timeout: time.Minute})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.job.Run()
		close(done)
	}()
	<-reconciler.started

	s.job.Run()
	if got := reconciler.calls.Load(); got != 1 {
		t.Fatalf("expected overlapping tick to be skipped, got=%d calls", got)
	}
	if !reconciler.deadline.Load() {
		t.Fatalf("expected run to carry a timeout")
	}

	close(reconciler.release)
	<-done

	s.job.Run()
	if got := reconciler.calls.Load(); got != 2 {
		t.Fatalf("expected run after previous finished, got=%d calls", got)
	}
}

func TestScheduler_StopCancelsActiveRun(t *testing.T) {
	t.Parallel()

	reconciler := newBlockingReconciler()
	reconciler.err = errors.New("unused")
	s, err := NewScheduler(reconciler, logging.NewNop(), SchedulerConfig{Schedule: "0 0 0 * * *"})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.job.Run()
		close(done)
	}()
	<-reconciler.started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected active run to return after stop")
	}
}
