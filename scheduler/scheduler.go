// Package scheduler refreshes the served template collection at fixed times of day.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/bpmn-tools/interfaces"
	"github.com/giygas/bpmn-tools/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler re-runs the aggregation and publishes the result to the store
type Scheduler struct {
	store      interfaces.TemplateStore
	aggregator interfaces.Aggregator
	outputPath string
	times      []string
	scheduler  *gocron.Scheduler
}

// NewScheduler creates a scheduler that refreshes at each HH:MM in times (local time).
// With no times only the initial load in Start runs.
func NewScheduler(store interfaces.TemplateStore, aggregator interfaces.Aggregator, outputPath string, times []string) *Scheduler {
	return &Scheduler{
		store:      store,
		aggregator: aggregator,
		outputPath: outputPath,
		times:      times,
		scheduler:  gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial load under ctx and schedules the refreshes
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		logging.Error("Failed to perform initial template load", "error", err)
		return fmt.Errorf("initial template load failed: %w", err)
	}

	if len(s.times) == 0 {
		logging.Info("No refresh schedule configured, templates load once")
		return nil
	}

	_, err := s.scheduler.Every(1).Day().At(strings.Join(s.times, ";")).Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			logging.Error("Failed to refresh templates", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Template refresh scheduled", "times", s.times, "next_run", s.NextRun().Format(time.RFC3339))

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// NextRun returns the next scheduled refresh, or the zero time when nothing is scheduled
func (s *Scheduler) NextRun() time.Time {
	if s.scheduler.Len() == 0 {
		return time.Time{}
	}
	_, next := s.scheduler.NextRun()
	return next
}

// Refresh aggregates, writes the output file and swaps the store contents.
// It is a no-op while another refresh is running.
func (s *Scheduler) Refresh(ctx context.Context) error {
	if !s.store.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.store.EndUpdate()

	logging.Info(fmt.Sprintf("Starting template refresh at: %s", time.Now().Format(time.RFC3339)))

	result, err := s.aggregator.Save(ctx, s.outputPath)
	if err != nil {
		return fmt.Errorf("template refresh failed: %w", err)
	}

	if len(result.Failures) > 0 {
		logging.Warn("Some template sources failed",
			"failed", len(result.Failures),
			"sources", result.Sources,
		)
	}

	s.store.UpdateTemplates(result)
	logging.Info("Template refresh completed", "duration", result.Duration.String(), "template_count", len(result.Templates))

	return nil
}
