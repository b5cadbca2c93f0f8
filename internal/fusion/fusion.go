// Package fusion blends the base performance score, solo impact, four
// group-size synergy components, and archetype fit into one composite value
// score per player, each component independently normalized to [0,100].
package fusion

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/statsmath"
	"github.com/courtmetrics/valuation/internal/storage"
	"github.com/courtmetrics/valuation/internal/synergy"
	"github.com/courtmetrics/valuation/internal/types"
)

// Fusion computes composite value scores for a season.
type Fusion struct {
	store   storage.Store
	engine  *synergy.Engine
	cfg     config.FusionConfig
	logger  *logrus.Logger
	nowFunc func() time.Time
}

// NewFusion creates a value score fusion stage. Weights in cfg must sum to 1.
func NewFusion(store storage.Store, engine *synergy.Engine, cfg config.FusionConfig, logger *logrus.Logger) *Fusion {
	return &Fusion{
		store:   store,
		engine:  engine,
		cfg:     cfg,
		logger:  logger,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// ComputeAll produces one PlayerValueScore row per player with a base value:
// seven components normalized to [0,100] across the season's population
// (zero-variance components default to the 50 midpoint), blended by the
// configured weights, rounded to 2 decimals.
func (f *Fusion) ComputeAll(ctx context.Context, season string) ([]types.PlayerValueScore, error) {
	stats, err := f.store.PlayerSeasonStats(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("value scores for season %s: %w", season, err)
	}
	if len(stats) == 0 {
		f.logger.WithField("season", season).Warn("No player season stats, no value scores to compute")
		return nil, nil
	}

	// Collapse duplicate rows from dual team assignments, keeping the
	// higher-minutes row.
	byPlayer := make(map[int64]types.PlayerSeasonStat)
	order := make([]int64, 0, len(stats))
	for _, s := range stats {
		existing, seen := byPlayer[s.PlayerID]
		if !seen {
			order = append(order, s.PlayerID)
			byPlayer[s.PlayerID] = s
			continue
		}
		if s.MinutesTotal > existing.MinutesTotal {
			byPlayer[s.PlayerID] = s
		}
	}

	solo, err := f.engine.ComputeSoloImpact(ctx, season)
	if err != nil {
		return nil, err
	}

	groupSynergy := make(map[int]map[int64]float64, 4)
	for size := 2; size <= 5; size++ {
		values, err := f.engine.ComputeGroupSynergy(ctx, season, size)
		if err != nil {
			return nil, err
		}
		groupSynergy[size] = values
	}

	fit, err := f.archetypeFit(ctx, season)
	if err != nil {
		return nil, err
	}

	n := len(order)
	raw := map[string][]float64{
		"base": make([]float64, n),
		"solo": make([]float64, n),
		"syn2": make([]float64, n),
		"syn3": make([]float64, n),
		"syn4": make([]float64, n),
		"syn5": make([]float64, n),
		"fit":  make([]float64, n),
	}
	for i, id := range order {
		raw["base"][i] = BaseValue(byPlayer[id])
		raw["solo"][i] = solo[id]
		raw["syn2"][i] = groupSynergy[2][id]
		raw["syn3"][i] = groupSynergy[3][id]
		raw["syn4"][i] = groupSynergy[4][id]
		raw["syn5"][i] = groupSynergy[5][id]
		raw["fit"][i] = fit[id]
	}

	norm := make(map[string][]float64, len(raw))
	for name, values := range raw {
		norm[name] = statsmath.MinMaxNormalize(values, 0, 100)
	}

	now := f.nowFunc()
	rows := make([]types.PlayerValueScore, 0, n)
	for i, id := range order {
		s := byPlayer[id]
		composite := f.cfg.WeightBaseValue*norm["base"][i] +
			f.cfg.WeightSoloImpact*norm["solo"][i] +
			f.cfg.SynergyWeightBySize[2]*norm["syn2"][i] +
			f.cfg.SynergyWeightBySize[3]*norm["syn3"][i] +
			f.cfg.SynergyWeightBySize[4]*norm["syn4"][i] +
			f.cfg.SynergyWeightBySize[5]*norm["syn5"][i] +
			f.cfg.WeightArchetypeFit*norm["fit"][i]

		rows = append(rows, types.PlayerValueScore{
			PlayerID:       id,
			Season:         season,
			TeamID:         s.TeamID,
			BaseValue:      norm["base"][i],
			SoloImpact:     norm["solo"][i],
			Synergy2Man:    norm["syn2"][i],
			Synergy3Man:    norm["syn3"][i],
			Synergy4Man:    norm["syn4"][i],
			Synergy5Man:    norm["syn5"][i],
			ArchetypeFit:   norm["fit"][i],
			CompositeValue: math.Round(composite*100) / 100,
			MinutesWeight:  s.MinutesTotal,
			ComputedAt:     now,
		})
	}

	f.logger.WithFields(logrus.Fields{
		"season":  season,
		"players": len(rows),
	}).Info("Computed value scores")
	return rows, nil
}

// archetypeFit is the possession-weighted average of synergy scores across
// all pair synergy rows involving the player, from either side of the pair.
func (f *Fusion) archetypeFit(ctx context.Context, season string) (map[int64]float64, error) {
	pairs, err := f.store.PairSynergies(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("archetype fit for season %s: %w", season, err)
	}

	scores := make(map[int64][]float64)
	weights := make(map[int64][]float64)
	for _, p := range pairs {
		for _, id := range []int64{p.Player1ID, p.Player2ID} {
			scores[id] = append(scores[id], p.SynergyScore)
			weights[id] = append(weights[id], p.Possessions)
		}
	}

	fit := make(map[int64]float64, len(scores))
	for id, s := range scores {
		fit[id] = statsmath.WeightedMean(s, weights[id])
	}
	return fit, nil
}
