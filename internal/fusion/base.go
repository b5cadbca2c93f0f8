package fusion

import (
	"math"

	"github.com/courtmetrics/valuation/internal/statsmath"
	"github.com/courtmetrics/valuation/internal/types"
)

// BaseValue is the deterministic base performance score. The coefficients are
// load-bearing: downstream consumers depend on bit-for-bit parity, so do not
// refactor the arithmetic.
//
// Offense blends scoring volume, playmaking, efficiency, and usage; defense
// blends stocks and defensive rating; rebounding, net rating, and minutes are
// shared terms outside the 75/25 offense/defense split. The result is clipped
// to [33,99] and truncated to an integer.
func BaseValue(s types.PlayerSeasonStat) float64 {
	offense := s.PointsPerGame*1.2 +
		s.AssistsPerGame*1.8 +
		s.TrueShootingPct*40 +
		s.UsagePct*15
	offenseScore := statsmath.Clip(offense/0.85, 0, 99)

	defense := s.StealsPerGame*8.0 +
		s.BlocksPerGame*6.0 +
		math.Max(0, 115-s.DefensiveRating)*2.5
	defenseScore := statsmath.Clip(defense/0.5, 0, 99)

	blend := 0.75*offenseScore + 0.25*defenseScore +
		s.ReboundsPerGame*0.8 +
		s.NetRating*0.8 +
		s.MinutesPerGame*0.3

	return math.Trunc(statsmath.Clip(blend/1.1, 33, 99))
}
