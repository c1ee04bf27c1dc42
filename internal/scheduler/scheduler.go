// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	plog "produtivo/internal/log"
)

// Job is one scheduled unit of work. The context is cancelled when the
// scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner whose jobs never overlap themselves.
type Scheduler struct {
	cron   *cron.Cron
	log    *plog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(loc *time.Location, logger *plog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = plog.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:    logger.WithComponent(plog.ComponentScheduler),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers job under a standard five-field cron spec or a
// descriptor such as "@hourly" or "@every 10m".
func (s *Scheduler) Schedule(name, spec string, job Job) (cron.EntryID, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	return s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
}

// RunNow executes job once, synchronously, with the same logging as a
// scheduled run.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	s.log.Info("Job started", "job", name)
	if err := job(s.ctx); err != nil {
		s.log.Error("Job failed", "job", name, plog.FieldError, err,
			plog.FieldDuration, time.Since(start).Milliseconds())
		return
	}
	s.log.Info("Job finished", "job", name,
		plog.FieldDuration, time.Since(start).Milliseconds())
}

// Next returns the next activation time of id, zero when unknown.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs' context and waits for them to return, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
