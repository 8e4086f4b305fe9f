package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/reskit/component"
	"github.com/skillsenselab/reskit/logger"
)

func TestScheduler_Interface(t *testing.T) {
	s := NewScheduler(logger.NewDefault("test"))
	var _ component.Component = s
	var _ component.Describable = s
}

func TestScheduler_RunsJobs(t *testing.T) {
	var runs atomic.Int64
	job := JobFunc{
		JobName:     "tick",
		JobInterval: 5 * time.Millisecond,
		Fn: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	}

	s := NewScheduler(logger.NewDefault("test"), job)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if runs.Load() == 0 {
		t.Error("expected the job to have run at least once")
	}
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	s := NewScheduler(logger.NewDefault("test"))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Errorf("second Start should be a no-op, got %v", err)
	}
	s.Stop(context.Background())
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(logger.NewDefault("test"))

	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop on a stopped scheduler should be a no-op, got %v", err)
	}

	s.Start(context.Background())
	s.Stop(context.Background())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestScheduler_StopDrainsJobs(t *testing.T) {
	var running atomic.Bool
	job := JobFunc{
		JobName:     "slow",
		JobInterval: time.Millisecond,
		Fn: func(ctx context.Context) error {
			running.Store(true)
			defer running.Store(false)
			time.Sleep(10 * time.Millisecond)
			return nil
		},
	}

	s := NewScheduler(logger.NewDefault("test"), job)
	s.Start(context.Background())
	time.Sleep(5 * time.Millisecond)

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if running.Load() {
		t.Error("Stop must not return while a job is still running")
	}
}

func TestScheduler_RejectsNonPositiveInterval(t *testing.T) {
	job := JobFunc{JobName: "bad", JobInterval: 0, Fn: func(context.Context) error { return nil }}
	s := NewScheduler(logger.NewDefault("test"), job)

	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for non-positive interval")
		s.Stop(context.Background())
	}
}

func TestScheduler_Health(t *testing.T) {
	s := NewScheduler(logger.NewDefault("test"))

	if h := s.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %s", h.Status)
	}

	s.Start(context.Background())
	if h := s.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after Start, got %s", h.Status)
	}
	s.Stop(context.Background())
}
