package synergy

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/statsmath"
	"github.com/courtmetrics/valuation/internal/types"
)

type teamGameKey struct {
	TeamID int64
	GameID int64
}

// ComputeSoloImpact computes with-or-without-you impact per player: the
// team's average point differential in games the player logged the minutes
// threshold versus games they did not, shrunk toward 0 by total season
// minutes against a strong prior. Players with no qualifying "with" sample,
// or who never sit, are neutral (0) rather than an error.
func (e *Engine) ComputeSoloImpact(ctx context.Context, season string) (map[int64]float64, error) {
	stats, err := e.store.PlayerSeasonStats(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("solo impact for season %s: %w", season, err)
	}
	teamGames, err := e.store.TeamGames(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("solo impact for season %s: %w", season, err)
	}
	logs, err := e.store.PlayerGameLogs(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("solo impact for season %s: %w", season, err)
	}

	gamesByTeam := make(map[int64][]types.TeamGame)
	for _, g := range teamGames {
		gamesByTeam[g.TeamID] = append(gamesByTeam[g.TeamID], g)
	}

	minutesByPlayerGame := make(map[teamGameKey]map[int64]float64)
	for _, l := range logs {
		key := teamGameKey{TeamID: l.TeamID, GameID: l.GameID}
		if minutesByPlayerGame[key] == nil {
			minutesByPlayerGame[key] = make(map[int64]float64)
		}
		minutesByPlayerGame[key][l.PlayerID] = l.Minutes
	}

	// Collapse duplicate season rows (dual team assignments) keeping the
	// higher-minutes row, matching the classifier's qualification rule.
	byPlayer := make(map[int64]types.PlayerSeasonStat)
	for _, s := range stats {
		if existing, seen := byPlayer[s.PlayerID]; !seen || s.MinutesTotal > existing.MinutesTotal {
			byPlayer[s.PlayerID] = s
		}
	}

	impacts := make(map[int64]float64, len(byPlayer))
	for playerID, s := range byPlayer {
		impacts[playerID] = e.soloImpactForPlayer(playerID, s, gamesByTeam[s.TeamID], minutesByPlayerGame)
	}

	e.logger.WithFields(logrus.Fields{
		"season":  season,
		"players": len(impacts),
	}).Info("Computed solo impact")
	return impacts, nil
}

func (e *Engine) soloImpactForPlayer(playerID int64, s types.PlayerSeasonStat, teamGames []types.TeamGame, minutes map[teamGameKey]map[int64]float64) float64 {
	var with, without []float64
	for _, g := range teamGames {
		played := minutes[teamGameKey{TeamID: g.TeamID, GameID: g.GameID}][playerID]
		if played >= e.cfg.WOWYMinutesThreshold {
			with = append(with, g.PointDiff)
		} else {
			without = append(without, g.PointDiff)
		}
	}

	// No qualifying "with" sample: no data, neutral impact.
	if len(with) == 0 {
		return 0
	}

	// No "without" sample (the player never sits): WOWY cannot be computed,
	// treat the differential as 0 rather than erroring.
	rawDiff := 0.0
	if len(without) > 0 {
		rawDiff = statsmath.Mean(with) - statsmath.Mean(without)
	}

	return statsmath.Shrink(rawDiff, s.MinutesTotal, 0, e.cfg.WOWYPriorStrength)
}
