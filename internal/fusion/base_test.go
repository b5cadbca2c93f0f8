package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/courtmetrics/valuation/internal/types"
)

func TestBaseValue_SolidStarter(t *testing.T) {
	// offense = (20*1.2 + 5*1.8 + 0.55*40 + 0.25*15) / 0.85 = 69.1176...
	// defense = (1.5*8 + 0.5*6 + 5*2.5) / 0.5 = 55
	// blend   = 0.75*69.1176 + 0.25*55 + 7*0.8 + 2.5*0.8 + 32*0.3 = 82.7882...
	// 82.7882 / 1.1 = 75.26 -> trunc 75
	s := types.PlayerSeasonStat{
		PointsPerGame:   20,
		AssistsPerGame:  5,
		TrueShootingPct: 0.55,
		UsagePct:        0.25,
		StealsPerGame:   1.5,
		BlocksPerGame:   0.5,
		DefensiveRating: 110,
		ReboundsPerGame: 7,
		NetRating:       2.5,
		MinutesPerGame:  32,
	}
	assert.Equal(t, 75.0, BaseValue(s))
}

func TestBaseValue_FloorIsThirtyThree(t *testing.T) {
	s := types.PlayerSeasonStat{DefensiveRating: 115}
	assert.Equal(t, 33.0, BaseValue(s))
}

func TestBaseValue_CeilingIsNinetyNine(t *testing.T) {
	s := types.PlayerSeasonStat{
		PointsPerGame:   35,
		AssistsPerGame:  10,
		TrueShootingPct: 0.65,
		UsagePct:        0.35,
		StealsPerGame:   2,
		BlocksPerGame:   1,
		DefensiveRating: 105,
		ReboundsPerGame: 10,
		NetRating:       8,
		MinutesPerGame:  36,
	}
	assert.Equal(t, 99.0, BaseValue(s))
}

func TestBaseValue_IsIntegerValued(t *testing.T) {
	s := types.PlayerSeasonStat{
		PointsPerGame:   13.7,
		AssistsPerGame:  3.3,
		TrueShootingPct: 0.531,
		UsagePct:        0.19,
		StealsPerGame:   0.9,
		BlocksPerGame:   0.4,
		DefensiveRating: 112.3,
		ReboundsPerGame: 4.8,
		NetRating:       -1.2,
		MinutesPerGame:  24.6,
	}
	v := BaseValue(s)
	assert.Equal(t, float64(int(v)), v)
	assert.GreaterOrEqual(t, v, 33.0)
	assert.LessOrEqual(t, v, 99.0)
}
