// Package schedule runs wall-clock jobs for the widget.
package schedule

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs jobs on the wall clock of a location.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// New creates a scheduler for loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{scheduler: gocron.NewScheduler(loc)}
}

// AtMidnight runs fn every day at 00:00.
func (s *Scheduler) AtMidnight(fn func()) error {
	if _, err := s.scheduler.Every(1).Day().At("00:00").Do(fn); err != nil {
		return fmt.Errorf("failed to schedule midnight job: %w", err)
	}
	return nil
}

// NextRun returns the earliest upcoming run of any job.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop halts all jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
