// Package synergy converts raw lineup and game-level data into normalized
// synergy measures: pairwise synergy scores, per-player N-man group synergy,
// and solo ("with-or-without-you") impact.
package synergy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/statsmath"
	"github.com/courtmetrics/valuation/internal/storage"
)

// Engine computes synergy measures for a season.
type Engine struct {
	store  storage.Store
	cfg    config.SynergyConfig
	logger *logrus.Logger
}

// NewEngine creates a synergy engine with explicit configuration.
func NewEngine(store storage.Store, cfg config.SynergyConfig, logger *logrus.Logger) *Engine {
	return &Engine{store: store, cfg: cfg, logger: logger}
}

// leagueMeanNetRating is the shrinkage prior: the season's average team net
// rating. An empty team table degrades to a neutral 0 prior.
func (e *Engine) leagueMeanNetRating(ctx context.Context, season string) (float64, error) {
	teams, err := e.store.TeamSeasonStats(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("league mean net rating for season %s: %w", season, err)
	}
	if len(teams) == 0 {
		e.logger.WithField("season", season).Warn("No team season stats, using 0 as shrinkage prior")
		return 0, nil
	}
	ratings := make([]float64, len(teams))
	for i, t := range teams {
		ratings[i] = t.NetRating
	}
	return statsmath.Mean(ratings), nil
}

func (e *Engine) priorStrength(groupSize int) (float64, error) {
	prior, ok := e.cfg.PriorStrengthBySize[groupSize]
	if !ok {
		return 0, fmt.Errorf("no prior strength configured for group size %d", groupSize)
	}
	return prior, nil
}
