package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/station-dayplot/internal/logger"
)

var errNoInterval = errors.New("scheduler interval must be positive")

// Job is one batch of work, e.g. a full plotting run.
type Job func(ctx context.Context) error

// Scheduler re-runs a Job at a fixed interval. Runs never overlap.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       Job
	interval  time.Duration
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Scheduler.
func New(interval time.Duration, job Job, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		job:       job,
		interval:  interval,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start schedules the job, runs it once immediately and returns.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errNoInterval
	}

	_, err := s.scheduler.Every(s.interval).Do(s.runOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	s.log.Infow("scheduler: running plot job", "interval", s.interval.String())
	started := time.Now()
	if err := s.job(s.ctx); err != nil {
		s.log.Errorw("scheduler: plot job failed", "err", err, "elapsed", time.Since(started).String())
		return
	}
	s.log.Infow("scheduler: plot job completed", "elapsed", time.Since(started).String())
}

// Stop cancels the in-flight run and all future ones.
func (s *Scheduler) Stop() {
	s.cancel()
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
