package model

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// RetrainFunc runs one scheduled retrain.
type RetrainFunc func(ctx context.Context) error

// Scheduler triggers retrains on a five-field cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	log      logger.Logger
}

// NewScheduler parses spec (minute hour day month weekday) and prepares a
// scheduler that calls retrain on every tick. Overlapping ticks are skipped.
func NewScheduler(ctx context.Context, spec string, retrain RetrainFunc, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse training schedule %q: %w", spec, err)
	}

	cl := cronLogger{log: log}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{cron: c, schedule: schedule, spec: spec, log: log}
	c.Schedule(schedule, cron.FuncJob(func() {
		log.Info("Scheduled retrain starting")
		if runErr := retrain(ctx); runErr != nil {
			log.Error("Scheduled retrain failed", logger.Error(runErr))
			return
		}
		log.Info("Scheduled retrain finished", logger.Time("next_run", s.Next(time.Now())))
	}))
	return s, nil
}

// Next returns the first run time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	next := s.Next(time.Now())
	s.log.Info("Training scheduler started",
		logger.String("schedule", s.spec),
		logger.Time("next_run", next),
		logger.Duration("time_until_next", time.Until(next).Round(time.Second)),
	)
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running retrain to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Training scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Training scheduler stop timed out")
	}
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
