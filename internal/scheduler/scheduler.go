// Package scheduler re-runs ingestion on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/ingest"
)

// Ingester runs one ingestion.
type Ingester interface {
	Ingest(ctx context.Context) (*ingest.Result, error)
}

// Scheduler triggers Ingester on a cron spec. A run that is still going when
// the next tick fires causes that tick to be skipped, so runs never overlap.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	timeout  time.Duration
	ingester Ingester
	logger   infralogger.Logger
	job      cron.Job

	initialRun bool
	wg         sync.WaitGroup

	mu  sync.Mutex
	ctx context.Context
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInitialRun makes Run ingest once as soon as it starts instead of
// waiting for the first tick.
func WithInitialRun(enabled bool) Option {
	return func(s *Scheduler) {
		s.initialRun = enabled
	}
}

// New validates spec. timeout bounds each run; zero means no bound beyond the
// scheduler's own context.
func New(spec string, timeout time.Duration, ingester Ingester, log infralogger.Logger, opts ...Option) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}

	cl := cronLogger{log: log}
	s := &Scheduler{
		spec:     spec,
		timeout:  timeout,
		ingester: ingester,
		logger:   log,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	chain := cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))
	s.job = chain.Then(cron.FuncJob(s.run))
	s.cron = cron.New(cron.WithParser(parser), cron.WithLogger(cl))

	if _, err := s.cron.AddJob(spec, s.job); err != nil {
		return nil, fmt.Errorf("schedule ingestion: %w", err)
	}
	return s, nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for an
// in-flight run to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.initialRun {
		s.wg.Go(s.Trigger)
	}
	s.cron.Start()
	s.logger.Info("Scheduler started",
		infralogger.String("cron", s.spec),
		infralogger.Any("next_run", s.cron.Entries()[0].Next),
	)

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
	return nil
}

// Trigger runs the scheduled job now, through the same overlap guard as a
// cron tick. It blocks until the run ends or is skipped. Before Run is called
// the job runs under context.Background.
func (s *Scheduler) Trigger() {
	s.job.Run()
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) run() {
	ctx := s.runContext()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.ingester.Ingest(ctx)
	if err != nil {
		s.logger.Error("Scheduled ingestion failed", infralogger.Error(err))
		return
	}
	s.logger.Info("Scheduled ingestion finished",
		infralogger.Int("created", result.Created),
		infralogger.Int("articles", len(result.Articles)),
	)
}

// cronLogger adapts the service logger to cron.Logger.
type cronLogger struct {
	log infralogger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), infralogger.Error(err))...)
}

func kvFields(kv []any) []infralogger.Field {
	fields := make([]infralogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, infralogger.Any(key, kv[i+1]))
	}
	return fields
}
