package synergy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/statsmath"
)

// ComputeGroupSynergy computes one N-man synergy value per player for the
// given group size: the possession-weighted average of shrunk lineup net
// ratings across all lineups of that size containing the player. Larger group
// sizes use a stronger prior, reflecting the scarcity of large-lineup samples.
func (e *Engine) ComputeGroupSynergy(ctx context.Context, season string, groupSize int) (map[int64]float64, error) {
	if groupSize < 2 || groupSize > 5 {
		return nil, fmt.Errorf("invalid group size %d, must be 2-5", groupSize)
	}

	lineups, err := e.store.LineupStats(ctx, season, groupSize)
	if err != nil {
		return nil, fmt.Errorf("%d-man group synergy for season %s: %w", groupSize, season, err)
	}
	leagueMean, err := e.leagueMeanNetRating(ctx, season)
	if err != nil {
		return nil, err
	}
	prior, err := e.priorStrength(groupSize)
	if err != nil {
		return nil, err
	}

	if len(lineups) == 0 {
		e.logger.WithFields(logrus.Fields{
			"season":     season,
			"group_size": groupSize,
		}).Warn("No lineup data at group size, returning empty synergy map")
		return map[int64]float64{}, nil
	}

	values := make(map[int64][]float64)
	weights := make(map[int64][]float64)
	for _, l := range lineups {
		if l.Possessions <= 0 {
			continue
		}
		ids, err := l.PlayerIDList()
		if err != nil || len(ids) != groupSize {
			e.logger.WithFields(logrus.Fields{
				"season":    season,
				"lineup_id": l.ID,
			}).Warn("Skipping malformed lineup row")
			continue
		}
		shrunk := statsmath.Shrink(l.NetRating, l.Possessions, leagueMean, prior)
		for _, id := range ids {
			values[id] = append(values[id], shrunk)
			weights[id] = append(weights[id], l.Possessions)
		}
	}

	result := make(map[int64]float64, len(values))
	for id, v := range values {
		result[id] = statsmath.WeightedMean(v, weights[id])
	}

	e.logger.WithFields(logrus.Fields{
		"season":     season,
		"group_size": groupSize,
		"players":    len(result),
	}).Info("Computed group synergy")
	return result, nil
}
