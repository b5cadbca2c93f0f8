package synergy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/statsmath"
	"github.com/courtmetrics/valuation/internal/types"
)

type pairKey struct {
	P1, P2 int64
}

// canonicalPair orders a pair lower id first. A storage convention, not a
// ranking.
func canonicalPair(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{P1: a, P2: b}
}

// ComputePairSynergies turns the season's 2-man lineup rows into one
// PairSynergy row per canonical pair: empirical-Bayes shrunk net rating,
// min-max normalized to a [0,100] synergy score over pairs meeting the
// possession threshold. Sub-threshold pairs get the fixed neutral score.
// Pairs recurring across team changes are deduplicated by highest possessions.
func (e *Engine) ComputePairSynergies(ctx context.Context, season string) ([]types.PairSynergy, error) {
	lineups, err := e.store.LineupStats(ctx, season, 2)
	if err != nil {
		return nil, fmt.Errorf("pair synergies for season %s: %w", season, err)
	}
	leagueMean, err := e.leagueMeanNetRating(ctx, season)
	if err != nil {
		return nil, err
	}
	prior, err := e.priorStrength(2)
	if err != nil {
		return nil, err
	}

	labels, err := e.archetypeLabels(ctx, season)
	if err != nil {
		return nil, err
	}

	best := make(map[pairKey]types.PairSynergy)
	order := make([]pairKey, 0, len(lineups))
	for _, l := range lineups {
		if l.Possessions <= 0 {
			continue
		}
		ids, err := l.PlayerIDList()
		if err != nil || len(ids) != 2 {
			e.logger.WithFields(logrus.Fields{
				"season":    season,
				"lineup_id": l.ID,
			}).Warn("Skipping malformed 2-man lineup row")
			continue
		}
		key := canonicalPair(ids[0], ids[1])

		row := types.PairSynergy{
			Season:          season,
			Player1ID:       key.P1,
			Player2ID:       key.P2,
			Minutes:         l.Minutes,
			Possessions:     l.Possessions,
			ShrunkNetRating: statsmath.Shrink(l.NetRating, l.Possessions, leagueMean, prior),
			Player1Label:    labels[key.P1],
			Player2Label:    labels[key.P2],
		}

		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = row
			continue
		}
		if row.Possessions > existing.Possessions {
			best[key] = row
		}
	}

	rows := make([]types.PairSynergy, 0, len(order))
	for _, key := range order {
		rows = append(rows, best[key])
	}
	e.scorePairs(rows)

	e.logger.WithFields(logrus.Fields{
		"season": season,
		"pairs":  len(rows),
	}).Info("Computed pair synergies")
	return rows, nil
}

// scorePairs normalizes shrunk net ratings to [0,100] over pairs meeting the
// minimum-possessions threshold. Pairs below the threshold are too noisy to
// rank and receive the neutral score instead.
func (e *Engine) scorePairs(rows []types.PairSynergy) {
	var min, max float64
	qualified := 0
	for _, r := range rows {
		if r.Possessions < e.cfg.MinPairPossessions {
			continue
		}
		if qualified == 0 || r.ShrunkNetRating < min {
			min = r.ShrunkNetRating
		}
		if qualified == 0 || r.ShrunkNetRating > max {
			max = r.ShrunkNetRating
		}
		qualified++
	}

	for i := range rows {
		if rows[i].Possessions < e.cfg.MinPairPossessions || qualified == 0 {
			rows[i].SynergyScore = e.cfg.NeutralSynergyScore
			continue
		}
		rows[i].SynergyScore = statsmath.ScaleToRange(rows[i].ShrunkNetRating, min, max, 0, 100)
	}
}

// archetypeLabels loads the season's archetype labels as descriptive pair
// metadata. Labels never feed back into the synergy math.
func (e *Engine) archetypeLabels(ctx context.Context, season string) (map[int64]string, error) {
	archetypes, err := e.store.Archetypes(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("archetype labels for season %s: %w", season, err)
	}
	labels := make(map[int64]string, len(archetypes))
	for _, a := range archetypes {
		labels[a.PlayerID] = a.Label
	}
	return labels, nil
}
