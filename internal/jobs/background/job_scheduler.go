package background

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"carrental/internal/logger"
	"carrental/internal/models"

	"github.com/go-co-op/gocron/v2"
)

const rentalActivationJob = "rental-activation"

// RentalActivator moves pending rentals whose start date has arrived to active.
type RentalActivator interface {
	ActivateDue(ctx context.Context, today models.Date) (int, error)
}

type SchedulerConfig struct {
	ActivationEnabled  bool
	ActivationInterval time.Duration
}

// JobScheduler runs the periodic rental jobs in-process.
type JobScheduler struct {
	scheduler gocron.Scheduler
	rentals   RentalActivator
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
	log       *slog.Logger
	now       func() time.Time
}

func NewJobScheduler(rentals RentalActivator, cfg SchedulerConfig) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		rentals:   rentals,
		jobs:      make(map[string]gocron.Job),
		log:       logger.WithComponent("scheduler"),
		now:       time.Now,
	}

	if err := js.registerJobs(cfg); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info("starting background job scheduler", "jobs", len(js.jobs))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.log.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs(cfg SchedulerConfig) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if !cfg.ActivationEnabled {
		js.log.Info("rental activation job disabled")
		return nil
	}

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(cfg.ActivationInterval),
		gocron.NewTask(js.activateDueRentals),
		gocron.WithName(rentalActivationJob),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s job: %w", rentalActivationJob, err)
	}
	js.jobs[rentalActivationJob] = job
	return nil
}

// activateDueRentals receives the job context from gocron, cancelled on shutdown.
func (js *JobScheduler) activateDueRentals(ctx context.Context) error {
	today := models.NewDate(js.now())
	n, err := js.rentals.ActivateDue(ctx, today)
	if err != nil {
		js.log.Error("rental activation failed", "date", today, "error", err)
		return err
	}
	js.log.Debug("rental activation run", "date", today, "activated", n)
	return nil
}

// GetJobStatus reports the registered jobs and their next run.
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	next := make(map[string]string, len(js.jobs))
	for name, job := range js.jobs {
		names = append(names, name)
		if t, err := job.NextRun(); err == nil && !t.IsZero() {
			next[name] = t.UTC().Format(time.RFC3339)
		}
	}
	sort.Strings(names)

	return map[string]interface{}{
		"total_jobs": len(names),
		"jobs":       names,
		"next_run":   next,
	}
}
