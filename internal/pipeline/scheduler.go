package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler triggers recomputes of the configured seasons on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	seasons  []string
	logger   *logrus.Logger
}

// NewScheduler registers the recompute job on the given cron expression.
func NewScheduler(p *Pipeline, spec string, seasons []string, logger *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		seasons:  seasons,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, s.recomputeAll); err != nil {
		return nil, fmt.Errorf("failed to register recompute schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins scheduled execution.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"seasons": s.seasons,
		"jobs":    len(s.cron.Entries()),
	}).Info("Recompute scheduler started")
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Recompute scheduler stopped")
}

func (s *Scheduler) recomputeAll() {
	ctx := context.Background()
	for _, season := range s.seasons {
		if err := s.pipeline.RecomputeSeason(ctx, season); err != nil {
			s.logger.WithError(err).WithField("season", season).Error("Scheduled recompute failed")
		}
	}
}
