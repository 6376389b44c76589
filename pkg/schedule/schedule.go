// Package schedule fires a job on a cron expression.
package schedule

import (
	"context"

	"github.com/bottlerocket-os/switchdog/pkg/fault"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/robfig/cron/v3"
)

// Job is invoked once per tick.
type Job func(ctx context.Context)

// Parser accepts six-field expressions with a leading seconds field as well
// as the usual five-field form and the @every/@hourly descriptors.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs a Job on its schedule. Ticks that arrive while the previous
// run is still going are skipped.
type Scheduler struct {
	log  logging.Logger
	expr string
	spec cron.Schedule
	job  Job
}

// New parses expr and returns a Scheduler for job.
func New(log logging.Logger, expr string, job Job) (*Scheduler, error) {
	if expr == "" {
		return nil, fault.New(fault.Configuration, "schedule is required")
	}
	spec, err := Parser.Parse(expr)
	if err != nil {
		return nil, fault.Wrapf(fault.Configuration, err, "invalid schedule %q", expr)
	}
	return &Scheduler{log: log, expr: expr, spec: spec, job: job}, nil
}

// Schedule returns the parsed schedule.
func (s *Scheduler) Schedule() cron.Schedule {
	return s.spec
}

// Run blocks, firing the job on schedule until ctx is done. Jobs never see
// the cancellation: an in-flight run completes before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{s.log}
	c := cron.New(
		cron.WithParser(Parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	jobCtx := context.WithoutCancel(ctx)
	var id cron.EntryID
	id = c.Schedule(s.spec, cron.FuncJob(func() {
		s.job(jobCtx)
		s.log.WithField("next", c.Entry(id).Next).Info("next tick")
	}))

	c.Start()
	s.log.WithField("schedule", s.expr).
		WithField("next", c.Entry(id).Next).
		Info("scheduler started")

	<-ctx.Done()
	s.log.Debug("stopping scheduler")
	// Wait for an in-flight job to return.
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// cronLogger adapts the component logger to cron's logging interface.
type cronLogger struct {
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.entry(keysAndValues).Info("previous run still in progress, skipping tick")
		return
	}
	l.entry(keysAndValues).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).WithError(err).Error(msg)
}

func (l cronLogger) entry(keysAndValues []interface{}) logging.Logger {
	log := l.log
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		log = log.WithField(key, keysAndValues[i+1])
	}
	return log
}
