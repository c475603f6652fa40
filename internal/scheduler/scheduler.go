package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// Job is a unit of background work; it returns how many items it processed
type Job func(ctx context.Context) (int, error)

// Scheduler runs a named job on a cron schedule
type Scheduler struct {
	cron *cron.Cron
	name string
	job  Job
	log  *logrus.Logger
}

// New registers job under a standard five-field cron expression evaluated in loc
func New(name, schedule string, loc *time.Location, job Job, log *logrus.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
		name: name,
		job:  job,
		log:  log,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q for %s: %w", schedule, name, err)
	}
	return s, nil
}

// Run executes the job once and logs the outcome
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.job(ctx)
	entry := s.log.WithFields(logrus.Fields{
		"job":      s.name,
		"count":    n,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.Errorf("Scheduled job failed: %v", err)
		return
	}
	entry.Info("Scheduled job finished")
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.log.Infof("Starting scheduler for %s", s.name)
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warnf("Scheduler for %s stopped before job completed", s.name)
	}
}
