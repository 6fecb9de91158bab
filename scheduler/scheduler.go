// Package scheduler runs the periodic maturity sweep in the background, in
// addition to the lazy sweep done before balance reads.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"growledger-go/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const defaultRunTimeout = 2 * time.Minute

type Sweeper interface {
	SweepAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	log     *logrus.Logger
	timeout time.Duration
}

// New registers the sweep under schedule (standard cron or a descriptor such as
// "@every 1m"). Overlapping runs are skipped.
func New(schedule string, sweeper Sweeper, log *logrus.Logger) (*Scheduler, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cl := cron.PrintfLogger(log)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		log:     log,
		timeout: defaultRunTimeout,
	}
	if _, err := s.cron.AddFunc(schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("maturity sweep scheduler started")
}

// Stop halts new runs and waits for a running sweep or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with a sweep still running")
	}
}

// RunOnce performs one global sweep and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweeper.SweepAll(ctx)
	metrics.RecordSweep(time.Since(start), err == nil)

	entry := s.log.WithFields(logrus.Fields{"contracts": n, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("maturity sweep finished with errors")
		return n, err
	}
	if n > 0 {
		entry.Info("maturity sweep settled contracts")
	} else {
		entry.Debug("maturity sweep found nothing to settle")
	}
	return n, nil
}
