package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"FootballNews/internal/logging"
	"FootballNews/internal/ports"
)

// Window describes the working hours and the look-back used to pick the cutoff.
type Window struct {
	Location      *time.Location
	WorkStartHour int
	WorkEndHour   int
	PollWindow    time.Duration
	CatchUpWindow time.Duration
}

func (w Window) withDefaults() Window {
	if w.Location == nil {
		w.Location = time.UTC
	}
	if w.WorkEndHour <= 0 || w.WorkEndHour > 24 {
		w.WorkEndHour = 24
	}
	if w.WorkStartHour < 0 || w.WorkStartHour >= w.WorkEndHour {
		w.WorkStartHour = 0
	}
	if w.PollWindow <= 0 {
		w.PollWindow = 20 * time.Minute
	}
	if w.CatchUpWindow <= 0 {
		w.CatchUpWindow = 5 * time.Hour
	}
	return w
}

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	window   Window
	logger   *slog.Logger

	mu      sync.Mutex
	lastDay string
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, window Window, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, window: window.withDefaults(), logger: log}
}

// Cutoff returns the since time for a run triggered at now, or false outside
// working hours. The first run of a working day looks back CatchUpWindow.
func (s *Scheduler) Cutoff(now time.Time) (time.Time, bool) {
	local := now.In(s.window.Location)
	if local.Hour() < s.window.WorkStartHour || local.Hour() >= s.window.WorkEndHour {
		return time.Time{}, false
	}

	day := local.Format(time.DateOnly)
	s.mu.Lock()
	first := s.lastDay != day
	s.lastDay = day
	s.mu.Unlock()

	if first {
		return local.Add(-s.window.CatchUpWindow), true
	}
	return local.Add(-s.window.PollWindow), true
}

// Tick runs the pipeline once for a trigger time.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (Stats, error) {
	since, ok := s.Cutoff(now)
	if !ok {
		s.logger.Debug("outside working hours, skipping", "trigger", now)
		return Stats{}, nil
	}
	stats, err := s.pipeline.Run(ctx, &since)
	if err != nil {
		s.logger.Error("pipeline run failed", "since", since, "error", err)
	}
	return stats, err
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_, _ = s.Tick(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
