package pipeline

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/storage"
	"github.com/courtmetrics/valuation/internal/types"
)

type recordingBroadcaster struct {
	events []types.ProgressEvent
}

func (r *recordingBroadcaster) BroadcastToAll(message interface{}) {
	if ev, ok := message.(types.ProgressEvent); ok {
		r.events = append(r.events, ev)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		MinMinutesTotal:  500,
		MinGroupPlayers:  4,
		KMin:             3,
		KMax:             8,
		KMeansRestarts:   10,
		KMeansSeed:       42,
		MaxPCAComponents: 8,

		MinPairPossessions:   100,
		NeutralSynergyScore:  50,
		PriorStrength2Man:    50,
		PriorStrength3Man:    100,
		PriorStrength4Man:    200,
		PriorStrength5Man:    300,
		WOWYMinutesThreshold: 15,
		WOWYPriorStrength:    2000,

		WeightBaseValue:    0.30,
		WeightSoloImpact:   0.10,
		WeightSynergy2Man:  0.20,
		WeightSynergy3Man:  0.12,
		WeightSynergy4Man:  0.08,
		WeightSynergy5Man:  0.05,
		WeightArchetypeFit: 0.15,
	}
}

func newTestStore(t *testing.T) (*storage.GormStore, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store := storage.NewGormStoreFromDB(db)
	require.NoError(t, store.Migrate())
	return store, db
}

func TestRecomputeSeason_EndToEnd(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	season := "2023-24"
	profiles := []struct {
		pts, ast, reb, stl, blk, tov, usg, ts, three float64
	}{
		{24, 4, 3, 1.0, 0.2, 2.5, 0.30, 0.58, 0.45},
		{12, 10, 4, 1.5, 0.1, 3.0, 0.18, 0.52, 0.20},
		{15, 5, 5, 2.2, 0.4, 1.5, 0.20, 0.55, 0.50},
		{10, 3, 3, 0.8, 0.1, 1.0, 0.14, 0.60, 0.60},
		{20, 7, 4, 1.2, 0.3, 2.0, 0.26, 0.56, 0.35},
		{14, 8, 3, 1.8, 0.2, 2.2, 0.22, 0.54, 0.30},
	}
	for i, p := range profiles {
		require.NoError(t, db.Create(&types.PlayerSeasonStat{
			PlayerID:     int64(i + 1),
			Season:       season,
			TeamID:       10,
			Position:     "PG",
			GamesPlayed:  70,
			MinutesTotal: 1800,

			MinutesPerGame:   30,
			PointsPerGame:    p.pts * 30 / 36,
			AssistsPerGame:   p.ast * 30 / 36,
			ReboundsPerGame:  p.reb * 30 / 36,
			StealsPerGame:    p.stl * 30 / 36,
			BlocksPerGame:    p.blk * 30 / 36,
			TurnoversPerGame: p.tov * 30 / 36,

			PointsPer36:    p.pts,
			AssistsPer36:   p.ast,
			ReboundsPer36:  p.reb,
			StealsPer36:    p.stl,
			BlocksPer36:    p.blk,
			TurnoversPer36: p.tov,

			UsagePct:        p.usg,
			TrueShootingPct: p.ts,
			ThreePointRate:  p.three,
			FreeThrowRate:   0.2,
			OffRebPct:       0.03,
			DefRebPct:       0.1,

			DefensiveRating: 110,
			NetRating:       1.5,
		}).Error)
	}

	pairs := []struct {
		a, b int64
		poss float64
		nr   float64
	}{
		{2, 1, 400, 8},
		{3, 4, 250, -3},
		{5, 6, 150, 2},
		{1, 3, 40, 12}, // below threshold, gets the neutral score
	}
	for _, pr := range pairs {
		l := types.LineupStat{Season: season, TeamID: 10, Minutes: pr.poss / 2, Possessions: pr.poss, NetRating: pr.nr}
		l.SetPlayerIDs([]int64{pr.a, pr.b})
		require.NoError(t, db.Create(&l).Error)
	}
	trio := types.LineupStat{Season: season, TeamID: 10, Minutes: 60, Possessions: 120, NetRating: 4}
	trio.SetPlayerIDs([]int64{1, 2, 3})
	require.NoError(t, db.Create(&trio).Error)

	require.NoError(t, db.Create(&types.TeamSeasonStat{TeamID: 10, Season: season, NetRating: 2.0}).Error)
	require.NoError(t, db.Create(&types.TeamSeasonStat{TeamID: 20, Season: season, NetRating: -2.0}).Error)

	for g, diff := range map[int64]float64{1: 8, 2: -4, 3: 6} {
		require.NoError(t, db.Create(&types.TeamGame{GameID: g, TeamID: 10, Season: season, PointDiff: diff}).Error)
	}
	require.NoError(t, db.Create(&types.PlayerGameLog{PlayerID: 1, GameID: 1, TeamID: 10, Season: season, Minutes: 34}).Error)
	require.NoError(t, db.Create(&types.PlayerGameLog{PlayerID: 1, GameID: 3, TeamID: 10, Season: season, Minutes: 30}).Error)

	progress := &recordingBroadcaster{}
	p := New(store, testConfig(), logrus.New(), progress)

	require.NoError(t, p.RecomputeSeason(ctx, season))

	// One archetype row per player.
	archetypes, err := store.Archetypes(ctx, season)
	require.NoError(t, err)
	require.Len(t, archetypes, 6)
	seen := make(map[int64]bool)
	for _, a := range archetypes {
		assert.False(t, seen[a.PlayerID])
		seen[a.PlayerID] = true
		assert.NotEmpty(t, a.Label)
	}

	// Pair rows in canonical order, sub-threshold pair neutral.
	pairRows, err := store.PairSynergies(ctx, season)
	require.NoError(t, err)
	require.Len(t, pairRows, 4)
	for _, pr := range pairRows {
		assert.Less(t, pr.Player1ID, pr.Player2ID)
		if pr.Player1ID == 1 && pr.Player2ID == 3 {
			assert.Equal(t, 50.0, pr.SynergyScore)
		}
	}

	// One value score per player, composite in range.
	scores, err := store.ValueScores(ctx, season)
	require.NoError(t, err)
	require.Len(t, scores, 6)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s.CompositeValue, 0.0)
		assert.LessOrEqual(t, s.CompositeValue, 100.0)
		assert.False(t, s.ComputedAt.IsZero())
	}

	// Each stage reported started then completed.
	require.Len(t, progress.events, 6)
	stages := []string{"archetypes", "pair_synergies", "value_scores"}
	for i, stage := range stages {
		assert.Equal(t, stage, progress.events[2*i].Stage)
		assert.Equal(t, "started", progress.events[2*i].Status)
		assert.Equal(t, stage, progress.events[2*i+1].Stage)
		assert.Equal(t, "completed", progress.events[2*i+1].Status)
		assert.Equal(t, progress.events[0].RunID, progress.events[2*i].RunID)
	}
}

func TestRecomputeSeason_EmptySeasonStillSucceeds(t *testing.T) {
	store, _ := newTestStore(t)
	p := New(store, testConfig(), logrus.New(), nil)

	require.NoError(t, p.RecomputeSeason(context.Background(), "2023-24"))

	archetypes, err := store.Archetypes(context.Background(), "2023-24")
	require.NoError(t, err)
	assert.Empty(t, archetypes)

	scores, err := store.ValueScores(context.Background(), "2023-24")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestNewScheduler_RejectsInvalidCron(t *testing.T) {
	store, _ := newTestStore(t)
	p := New(store, testConfig(), logrus.New(), nil)

	_, err := NewScheduler(p, "not a cron spec", []string{"2023-24"}, logrus.New())
	assert.Error(t, err)
}

func TestNewScheduler_StartStop(t *testing.T) {
	store, _ := newTestStore(t)
	p := New(store, testConfig(), logrus.New(), nil)

	s, err := NewScheduler(p, "0 4 * * *", []string{"2023-24"}, logrus.New())
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
