package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/courtmetrics/valuation/internal/types"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewGormStoreFromDB(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestSeasonScopedReads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.db.Create(&types.PlayerSeasonStat{
		PlayerID: 1, Season: "2023-24", TeamID: 10, MinutesTotal: 1200,
	}).Error)
	require.NoError(t, store.db.Create(&types.PlayerSeasonStat{
		PlayerID: 1, Season: "2022-23", TeamID: 10, MinutesTotal: 900,
	}).Error)

	rows, err := store.PlayerSeasonStats(ctx, "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1200.0, rows[0].MinutesTotal)
}

func TestLineupStatsFilteredByGroupSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pair := types.LineupStat{Season: "2023-24", TeamID: 10, Possessions: 200, NetRating: 3}
	pair.SetPlayerIDs([]int64{2, 1})
	trio := types.LineupStat{Season: "2023-24", TeamID: 10, Possessions: 150, NetRating: 1}
	trio.SetPlayerIDs([]int64{1, 2, 3})
	require.NoError(t, store.db.Create(&pair).Error)
	require.NoError(t, store.db.Create(&trio).Error)

	rows, err := store.LineupStats(ctx, "2023-24", 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	ids, err := rows[0].PlayerIDList()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestReplaceArchetypes_WholesalePerSeason(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []types.PlayerArchetype{
		{PlayerID: 1, Season: "2023-24", PositionGroup: "PG", ClusterID: 0, Label: "Floor General", Confidence: 0.8},
		{PlayerID: 2, Season: "2023-24", PositionGroup: "PG", ClusterID: 1, Label: "Scoring Guard", Confidence: 0.7},
	}
	require.NoError(t, store.ReplaceArchetypes(ctx, "2023-24", first))

	// Another season's rows must survive the replace.
	other := []types.PlayerArchetype{
		{PlayerID: 1, Season: "2022-23", PositionGroup: "PG", ClusterID: 0, Label: "Game Manager", Confidence: 0.6},
	}
	require.NoError(t, store.ReplaceArchetypes(ctx, "2022-23", other))

	second := []types.PlayerArchetype{
		{PlayerID: 3, Season: "2023-24", PositionGroup: "SG", ClusterID: 0, Label: "Sharpshooter", Confidence: 0.9},
	}
	require.NoError(t, store.ReplaceArchetypes(ctx, "2023-24", second))

	rows, err := store.Archetypes(ctx, "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].PlayerID)

	prior, err := store.Archetypes(ctx, "2022-23")
	require.NoError(t, err)
	assert.Len(t, prior, 1)
}

func TestReplaceWithEmptyBatchClearsSeason(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplacePairSynergies(ctx, "2023-24", []types.PairSynergy{
		{Season: "2023-24", Player1ID: 1, Player2ID: 2, Possessions: 300, SynergyScore: 70},
	}))
	require.NoError(t, store.ReplacePairSynergies(ctx, "2023-24", nil))

	rows, err := store.PairSynergies(ctx, "2023-24")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestValueScoresRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := []types.PlayerValueScore{
		{
			PlayerID: 1, Season: "2023-24", TeamID: 10,
			BaseValue: 100, SoloImpact: 50, Synergy2Man: 50, Synergy3Man: 50,
			Synergy4Man: 50, Synergy5Man: 50, ArchetypeFit: 50,
			CompositeValue: 65, MinutesWeight: 2000,
		},
	}
	require.NoError(t, store.ReplaceValueScores(ctx, "2023-24", in))

	rows, err := store.ValueScores(ctx, "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 65.0, rows[0].CompositeValue)
	assert.Equal(t, 2000.0, rows[0].MinutesWeight)
}

func TestArchetypeFeatureVectorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	features := types.FloatVector{1.5, -0.25, 0, 2.125}
	require.NoError(t, store.ReplaceArchetypes(ctx, "2023-24", []types.PlayerArchetype{
		{PlayerID: 1, Season: "2023-24", PositionGroup: "C", Label: "Rim Protector", Features: features},
	}))

	rows, err := store.Archetypes(ctx, "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, features, rows[0].Features)
}

func TestPlayerName_FallsBackToPlaceholder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.db.Create(&types.Player{PlayerID: 1, Name: "Known Player", TeamID: 10}).Error)

	name, err := store.PlayerName(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Known Player", name)

	name, err = store.PlayerName(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, "player-999", name)
}
