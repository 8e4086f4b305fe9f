// Package schedule provides a lifecycle-managed pool of periodic background
// jobs. It satisfies the same idempotent start/stop contract as the database
// component: Start on a running scheduler and Stop on a stopped one are
// no-ops, and Stop drains every job goroutine before returning.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/skillsenselab/reskit/component"
	"github.com/skillsenselab/reskit/logger"
)

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job, used for logging.
	Name() string

	// Interval returns how often the job runs.
	Interval() time.Duration

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}

// JobFunc adapts a function into a Job.
type JobFunc struct {
	JobName     string
	JobInterval time.Duration
	Fn          func(ctx context.Context) error
}

func (j JobFunc) Name() string            { return j.JobName }
func (j JobFunc) Interval() time.Duration { return j.JobInterval }
func (j JobFunc) Run(ctx context.Context) error {
	return j.Fn(ctx)
}

// Scheduler runs each registered job on its own ticker.
type Scheduler struct {
	log  *logger.Logger
	jobs []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler component with the given jobs. Jobs are
// declared up front; the set is immutable once the scheduler starts.
func NewScheduler(log *logger.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		log:  log.WithComponent("schedule"),
		jobs: jobs,
	}
}

var _ component.Component = (*Scheduler)(nil)

// Name returns the component name.
func (s *Scheduler) Name() string { return "schedule" }

// Start launches one goroutine per job. Starting a running scheduler is a
// no-op.
func (s *Scheduler) Start(_ context.Context) error {
	if s.cancel != nil {
		s.log.Info("Skipping start; job pool already running.")
		return nil
	}

	for _, job := range s.jobs {
		if job.Interval() <= 0 {
			return fmt.Errorf("job %q has a non-positive interval", job.Name())
		}
	}

	s.log.Info("Starting job pool.", logger.Fields("jobs", len(s.jobs)))

	// Jobs outlive the Start call; cancellation comes from Stop, not from
	// the orchestrator's start context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(runCtx, job)
	}
	return nil
}

// Stop cancels all jobs and waits for them to drain. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop(_ context.Context) error {
	if s.cancel == nil {
		s.log.Info("Skipping stop; job pool not running.")
		return nil
	}

	s.log.Info("Stopping job pool.")
	s.cancel()
	s.wg.Wait()
	s.cancel = nil
	return nil
}

// Health reports whether the job pool is running.
func (s *Scheduler) Health(_ context.Context) component.Health {
	if s.cancel == nil {
		return component.Health{
			Name:    s.Name(),
			Status:  component.StatusUnhealthy,
			Message: "job pool not running",
		}
	}
	return component.Health{
		Name:   s.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns summary info for startup display.
func (s *Scheduler) Describe() component.Description {
	return component.Description{
		Name:    "Job Scheduler",
		Type:    "scheduler",
		Details: fmt.Sprintf("jobs=%d", len(s.jobs)),
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn("Job failed", logger.ErrorFields(job.Name(), err))
			}
		}
	}
}
