package offline

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/teemow/courses/internal/logging"
)

// Flusher replays pending work. Session implements it.
type Flusher interface {
	Flush(ctx context.Context) (int, error)
}

// Scheduler flushes on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	flusher Flusher
	logger  logging.Logger
}

// NewScheduler creates a scheduler running flusher on spec, a standard
// five-field cron expression or a descriptor such as "@every 1m". A run has
// no deadline of its own; each request it makes is bounded by the client
// timeout. A run that is still going when the next one is due is skipped.
func NewScheduler(spec string, flusher Flusher, logger logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	s := &Scheduler{flusher: flusher, logger: logger}

	cl := cronLogger{logger}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running flush to finish or ctx
// to be done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	n, err := s.flusher.Flush(context.Background())
	switch {
	case errors.Is(err, ErrQueueReplayFailed):
		s.logger.Warn("scheduled sync stopped early", "applied", n, logging.Err(err))
	case err != nil:
		s.logger.Error("scheduled sync failed", logging.Err(err))
	case n > 0:
		s.logger.Info("scheduled sync applied mutations", "applied", n)
	}
}

// cronLogger routes cron's own messages to the package logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, logging.Err(err))...)
}
