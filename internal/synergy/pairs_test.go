package synergy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtmetrics/valuation/internal/types"
)

func TestComputePairSynergies(t *testing.T) {
	// No team stats, so shrinkage pulls toward 0:
	//   (2,1): 10 * 500/550 = 9.0909..., qualified
	//   (3,4): -5 * 200/250 = -4, qualified
	//   (5,6): 5 possessions, below the 100 threshold
	store := &fakeStore{lineups: map[int][]types.LineupStat{
		2: {
			lineupOf("2023-24", 1, []int64{2, 1}, 240, 500, 10),
			lineupOf("2023-24", 1, []int64{3, 4}, 100, 200, -5),
			lineupOf("2023-24", 2, []int64{5, 6}, 2, 5, 50),
		},
	}}
	e := newTestEngine(store)

	rows, err := e.ComputePairSynergies(context.Background(), "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byPair := make(map[pairKey]types.PairSynergy)
	for _, r := range rows {
		// Canonical storage order: lower id first.
		assert.Less(t, r.Player1ID, r.Player2ID)
		byPair[pairKey{P1: r.Player1ID, P2: r.Player2ID}] = r
	}

	top := byPair[pairKey{P1: 1, P2: 2}]
	assert.InDelta(t, 10.0*500/550, top.ShrunkNetRating, 1e-9)
	assert.InDelta(t, 100.0, top.SynergyScore, 1e-9)

	bottom := byPair[pairKey{P1: 3, P2: 4}]
	assert.InDelta(t, -4.0, bottom.ShrunkNetRating, 1e-9)
	assert.InDelta(t, 0.0, bottom.SynergyScore, 1e-9)

	noisy := byPair[pairKey{P1: 5, P2: 6}]
	assert.Equal(t, 50.0, noisy.SynergyScore)
}

func TestComputePairSynergies_DedupesByHighestPossessions(t *testing.T) {
	// The same pair appears twice (a midseason trade); the higher-possessions
	// row wins. A second pair keeps the normalization non-degenerate.
	store := &fakeStore{lineups: map[int][]types.LineupStat{
		2: {
			lineupOf("2023-24", 1, []int64{1, 2}, 60, 120, 0),
			lineupOf("2023-24", 2, []int64{1, 2}, 240, 500, 10),
			lineupOf("2023-24", 3, []int64{3, 4}, 100, 200, -5),
		},
	}}
	e := newTestEngine(store)

	rows, err := e.ComputePairSynergies(context.Background(), "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var pair types.PairSynergy
	for _, r := range rows {
		if r.Player1ID == 1 && r.Player2ID == 2 {
			pair = r
		}
	}
	assert.Equal(t, 500.0, pair.Possessions)
	assert.InDelta(t, 10.0*500/550, pair.ShrunkNetRating, 1e-9)
}

func TestComputePairSynergies_SkipsZeroPossessionRows(t *testing.T) {
	store := &fakeStore{lineups: map[int][]types.LineupStat{
		2: {
			lineupOf("2023-24", 1, []int64{1, 2}, 10, 0, 30),
		},
	}}
	e := newTestEngine(store)

	rows, err := e.ComputePairSynergies(context.Background(), "2023-24")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestComputePairSynergies_AttachesArchetypeLabels(t *testing.T) {
	store := &fakeStore{
		lineups: map[int][]types.LineupStat{
			2: {lineupOf("2023-24", 1, []int64{1, 2}, 240, 500, 10)},
		},
		archetypes: []types.PlayerArchetype{
			{PlayerID: 1, Season: "2023-24", Label: "Floor General"},
			{PlayerID: 2, Season: "2023-24", Label: "Sharpshooter"},
		},
	}
	e := newTestEngine(store)

	rows, err := e.ComputePairSynergies(context.Background(), "2023-24")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Floor General", rows[0].Player1Label)
	assert.Equal(t, "Sharpshooter", rows[0].Player2Label)
}

func TestScorePairs_NoQualifiedPairsAllNeutral(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	rows := []types.PairSynergy{
		{Player1ID: 1, Player2ID: 2, Possessions: 50, ShrunkNetRating: 3},
		{Player1ID: 3, Player2ID: 4, Possessions: 10, ShrunkNetRating: -3},
	}
	e.scorePairs(rows)
	assert.Equal(t, 50.0, rows[0].SynergyScore)
	assert.Equal(t, 50.0, rows[1].SynergyScore)
}

func TestScorePairs_SingleQualifiedPairGetsMidpoint(t *testing.T) {
	e := newTestEngine(&fakeStore{})
	rows := []types.PairSynergy{
		{Player1ID: 1, Player2ID: 2, Possessions: 300, ShrunkNetRating: 7},
	}
	e.scorePairs(rows)
	assert.Equal(t, 50.0, rows[0].SynergyScore)
}

func TestCanonicalPair(t *testing.T) {
	assert.Equal(t, pairKey{P1: 3, P2: 9}, canonicalPair(9, 3))
	assert.Equal(t, pairKey{P1: 3, P2: 9}, canonicalPair(3, 9))
}
