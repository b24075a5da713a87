package background

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"hotspotpay/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const reaperJobName = "stale-transaction-reaper"

// JobScheduler runs the periodic maintenance jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	reaper    services.ReaperService
	timeout   time.Duration
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates the scheduler and registers the reaper to run every
// reaperInterval, starting immediately. A zero interval leaves the reaper unscheduled.
func NewJobScheduler(reaper services.ReaperService, reaperInterval time.Duration) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		reaper:    reaper,
		timeout:   30 * time.Second,
		jobs:      make(map[string]gocron.Job),
	}

	if reaperInterval > 0 {
		if err := js.registerReaper(reaperInterval); err != nil {
			return nil, err
		}
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop waits for running jobs and stops the scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerReaper(interval time.Duration) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.expireStaleTransactions),
		gocron.WithName(reaperJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to create reaper job: %w", err)
	}

	js.jobs[reaperJobName] = job
	return nil
}

// expireStaleTransactions times out pushes that never got a callback
func (js *JobScheduler) expireStaleTransactions() error {
	ctx, cancel := context.WithTimeout(context.Background(), js.timeout)
	defer cancel()

	if _, err := js.reaper.ExpireStale(ctx); err != nil {
		log.Printf("ERROR: stale transaction sweep failed: %v", err)
		return err
	}
	return nil
}

type JobStatus struct {
	Name    string     `json:"name"`
	LastRun *time.Time `json:"last_run,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	statuses := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		status := JobStatus{Name: name}
		if last, err := job.LastRun(); err == nil && !last.IsZero() {
			status.LastRun = &last
		}
		if next, err := job.NextRun(); err == nil && !next.IsZero() {
			status.NextRun = &next
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}
