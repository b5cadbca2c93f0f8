// Package pipeline orchestrates a full per-season recompute: archetype
// classification, pair synergies, then value score fusion, each persisted
// wholesale before the next stage reads it.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/archetype"
	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/fusion"
	"github.com/courtmetrics/valuation/internal/storage"
	"github.com/courtmetrics/valuation/internal/synergy"
	"github.com/courtmetrics/valuation/internal/types"
)

// Broadcaster publishes progress events to connected clients. The websocket
// hub satisfies this; a nil broadcaster disables progress reporting.
type Broadcaster interface {
	BroadcastToAll(message interface{})
}

// Pipeline wires the three stages against shared storage.
type Pipeline struct {
	store      storage.Store
	classifier *archetype.Classifier
	engine     *synergy.Engine
	fusion     *fusion.Fusion
	logger     *logrus.Logger
	progress   Broadcaster
}

// New builds a pipeline from the service configuration.
func New(store storage.Store, cfg *config.Config, logger *logrus.Logger, progress Broadcaster) *Pipeline {
	engine := synergy.NewEngine(store, cfg.SynergyConfig(), logger)
	return &Pipeline{
		store:      store,
		classifier: archetype.NewClassifier(store, cfg.ClassifierConfig(), logger),
		engine:     engine,
		fusion:     fusion.NewFusion(store, engine, cfg.FusionConfig(), logger),
		logger:     logger,
		progress:   progress,
	}
}

// RecomputeSeason recomputes the season's three derived tables. Storage
// errors abort the run with prior data intact; data sparsity inside a stage
// degrades to empty results and the run continues.
func (p *Pipeline) RecomputeSeason(ctx context.Context, season string) error {
	runID := uuid.NewString()
	start := time.Now()
	log := p.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"season": season,
	})
	log.Info("Starting season recompute")

	if err := p.runStage(ctx, runID, season, "archetypes", func(ctx context.Context) error {
		rows, err := p.classifier.ClassifySeason(ctx, season)
		if err != nil {
			return err
		}
		return p.store.ReplaceArchetypes(ctx, season, rows)
	}); err != nil {
		return fmt.Errorf("recompute season %s: %w", season, err)
	}

	if err := p.runStage(ctx, runID, season, "pair_synergies", func(ctx context.Context) error {
		rows, err := p.engine.ComputePairSynergies(ctx, season)
		if err != nil {
			return err
		}
		return p.store.ReplacePairSynergies(ctx, season, rows)
	}); err != nil {
		return fmt.Errorf("recompute season %s: %w", season, err)
	}

	if err := p.runStage(ctx, runID, season, "value_scores", func(ctx context.Context) error {
		rows, err := p.fusion.ComputeAll(ctx, season)
		if err != nil {
			return err
		}
		if top := topComposite(rows); top != nil {
			if name, err := p.store.PlayerName(ctx, top.PlayerID); err == nil {
				log.WithFields(logrus.Fields{
					"player":    name,
					"composite": top.CompositeValue,
				}).Info("Top composite value this run")
			}
		}
		return p.store.ReplaceValueScores(ctx, season, rows)
	}); err != nil {
		return fmt.Errorf("recompute season %s: %w", season, err)
	}

	log.WithField("duration", time.Since(start).String()).Info("Season recompute completed")
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, runID, season, stage string, fn func(ctx context.Context) error) error {
	p.publish(runID, season, stage, "started", "")
	start := time.Now()

	if err := fn(ctx); err != nil {
		p.publish(runID, season, stage, "failed", err.Error())
		return fmt.Errorf("stage %s: %w", stage, err)
	}

	p.publish(runID, season, stage, "completed", "")
	p.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"season":   season,
		"stage":    stage,
		"duration": time.Since(start).String(),
	}).Info("Pipeline stage completed")
	return nil
}

func topComposite(rows []types.PlayerValueScore) *types.PlayerValueScore {
	var top *types.PlayerValueScore
	for i := range rows {
		if top == nil || rows[i].CompositeValue > top.CompositeValue {
			top = &rows[i]
		}
	}
	return top
}

func (p *Pipeline) publish(runID, season, stage, status, detail string) {
	if p.progress == nil {
		return
	}
	p.progress.BroadcastToAll(types.ProgressEvent{
		RunID:     runID,
		Season:    season,
		Stage:     stage,
		Status:    status,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
