package scheduler

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"QuoteTrack/internal/logger"
)

// Scheduler runs tracking passes on a cron schedule for watch mode.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler with second-resolution cron expressions.
func New() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
	}
}

// Register adds job under spec. Standard five-field expressions are
// accepted as well and treated as "at second zero".
func (s *Scheduler) Register(spec string, job func()) error {
	normalized := normalize(spec)
	if _, err := s.cron.AddFunc(normalized, job); err != nil {
		return fmt.Errorf("register schedule %q: %w", spec, err)
	}
	logger.L().Info().Str("schedule", normalized).Msg("job registered")
	return nil
}

// RunNow executes every registered job once, synchronously, outside the
// schedule. Watch mode uses it for the immediate first pass.
func (s *Scheduler) RunNow() {
	for _, entry := range s.cron.Entries() {
		entry.Job.Run()
	}
}

// Start begins running registered jobs in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// normalize pads five-field cron expressions with a leading seconds field.
func normalize(spec string) string {
	fields := 0
	inField := false
	for _, r := range spec {
		if r == ' ' || r == '\t' {
			inField = false
			continue
		}
		if !inField {
			fields++
			inField = true
		}
	}
	if fields == 5 {
		return "0 " + spec
	}
	return spec
}
