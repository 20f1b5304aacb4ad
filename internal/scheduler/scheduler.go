// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled scan. The context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler runs the periodic detector scans on cron expressions in a fixed time zone.
type Scheduler struct {
	c       *cron.Cron
	parser  cron.Parser
	log     zerolog.Logger
	timeout time.Duration

	mu   sync.Mutex
	jobs map[string]Job

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a scheduler. timeout bounds a single run; zero means no bound.
func New(loc *time.Location, timeout time.Duration, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	clog := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		parser:  parser,
		log:     log,
		timeout: timeout,
		jobs:    map[string]Job{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name. An empty spec disables the job.
func (s *Scheduler) Add(name, spec string, job Job) error {
	if spec == "" {
		s.log.Info().Str("job", name).Msg("⏸️ schedule disabled")
		return nil
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("schedule %s: invalid spec %q: %w", name, spec, err)
	}

	s.mu.Lock()
	if _, dup := s.jobs[name]; dup {
		s.mu.Unlock()
		return fmt.Errorf("schedule %s: already registered", name)
	}
	s.jobs[name] = job
	s.mu.Unlock()

	if _, err := s.c.AddFunc(spec, func() { _ = s.RunNow(name) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.log.Info().Str("job", name).Str("spec", spec).Msg("🗓️ job scheduled")
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("schedule %s: not registered", name)
	}

	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job(ctx)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
	}
	ev.Str("job", name).Dur("took", time.Since(start)).Msg("scheduled job finished")
	return err
}

// Jobs lists registered job names.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop halts new runs, cancels running ones, and waits for them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.c.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
