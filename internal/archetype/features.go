package archetype

import (
	"strings"

	"github.com/courtmetrics/valuation/internal/types"
)

// PositionGroup is one of the five classification groups. A player's listed
// position (possibly hyphenated, e.g. "G-F") may qualify them for more than
// one group; the cross-group dedup keeps the highest-confidence assignment.
type PositionGroup string

const (
	PointGuard    PositionGroup = "PG"
	ShootingGuard PositionGroup = "SG"
	SmallForward  PositionGroup = "SF"
	PowerForward  PositionGroup = "PF"
	Center        PositionGroup = "C"
)

// AllPositionGroups returns the groups in classification order.
func AllPositionGroups() []PositionGroup {
	return []PositionGroup{PointGuard, ShootingGuard, SmallForward, PowerForward, Center}
}

var acceptedPositions = map[PositionGroup]map[string]bool{
	PointGuard:    {"PG": true, "G": true},
	ShootingGuard: {"SG": true, "G": true},
	SmallForward:  {"SF": true, "F": true},
	PowerForward:  {"PF": true, "F": true},
	Center:        {"C": true},
}

// Accepts reports whether a listed position qualifies for this group.
// Hyphenated listings qualify on any of their parts.
func (g PositionGroup) Accepts(position string) bool {
	accepted := acceptedPositions[g]
	for _, part := range strings.Split(position, "-") {
		if accepted[strings.TrimSpace(part)] {
			return true
		}
	}
	return false
}

// featureNames is the fixed ordered feature list read per player. Missing
// values are treated as 0 upstream (zero-valued struct fields).
var featureNames = []string{
	"pts_per36",
	"ast_per36",
	"reb_per36",
	"stl_per36",
	"blk_per36",
	"tov_per36",
	"usg_pct",
	"ts_pct",
	"three_rate",
	"ft_rate",
	"oreb_pct",
	"dreb_pct",
	"net_rating",
}

// FeatureNames returns the ordered feature list used for clustering.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

func featureVector(s types.PlayerSeasonStat) []float64 {
	return []float64{
		s.PointsPer36,
		s.AssistsPer36,
		s.ReboundsPer36,
		s.StealsPer36,
		s.BlocksPer36,
		s.TurnoversPer36,
		s.UsagePct,
		s.TrueShootingPct,
		s.ThreePointRate,
		s.FreeThrowRate,
		s.OffRebPct,
		s.DefRebPct,
		s.NetRating,
	}
}

// featureWeightOverrides skews the clustering geometry toward the skill axes
// that matter for each position: playmaking for guards, rim protection and
// rebounding for bigs. Features not listed keep weight 1.0.
var featureWeightOverrides = map[PositionGroup]map[string]float64{
	PointGuard: {
		"ast_per36":  1.8,
		"tov_per36":  1.3,
		"stl_per36":  1.2,
		"three_rate": 1.2,
		"blk_per36":  0.6,
		"oreb_pct":   0.6,
	},
	ShootingGuard: {
		"pts_per36":  1.5,
		"three_rate": 1.5,
		"ts_pct":     1.3,
		"ast_per36":  1.1,
		"blk_per36":  0.6,
		"oreb_pct":   0.7,
	},
	SmallForward: {
		"pts_per36":  1.3,
		"three_rate": 1.2,
		"stl_per36":  1.2,
		"reb_per36":  1.1,
	},
	PowerForward: {
		"reb_per36":  1.5,
		"blk_per36":  1.3,
		"oreb_pct":   1.3,
		"three_rate": 1.1,
		"ast_per36":  0.7,
	},
	Center: {
		"blk_per36": 1.8,
		"reb_per36": 1.6,
		"oreb_pct":  1.5,
		"dreb_pct":  1.4,
		"ft_rate":   1.1,
		"three_rate": 0.8,
		"ast_per36":  0.6,
	},
}

// positionWeights expands the per-group overrides into a dense weight vector
// aligned with featureNames.
func positionWeights(g PositionGroup) []float64 {
	overrides := featureWeightOverrides[g]
	weights := make([]float64, len(featureNames))
	for i, name := range featureNames {
		weights[i] = 1.0
		if w, ok := overrides[name]; ok {
			weights[i] = w
		}
	}
	return weights
}

// labelTemplate scores a cluster centroid against a named archetype: a sparse
// signed mapping from feature name to how strongly that axis should drive
// toward the label.
type labelTemplate struct {
	Label   string
	Weights map[string]float64
}

// score is the dot product of the template weights against a centroid in
// unweighted standardized feature space.
func (t labelTemplate) score(centroid []float64) float64 {
	total := 0.0
	for i, name := range featureNames {
		if w, ok := t.Weights[name]; ok {
			total += w * centroid[i]
		}
	}
	return total
}

var labelTemplatesByGroup = map[PositionGroup][]labelTemplate{
	PointGuard: {
		{Label: "Floor General", Weights: map[string]float64{"ast_per36": 1.6, "tov_per36": -0.4, "usg_pct": 0.3, "pts_per36": -0.2}},
		{Label: "Scoring Guard", Weights: map[string]float64{"pts_per36": 1.5, "usg_pct": 1.0, "ts_pct": 0.4, "ast_per36": -0.3}},
		{Label: "Two-Way Guard", Weights: map[string]float64{"stl_per36": 1.4, "net_rating": 0.6, "three_rate": 0.5}},
		{Label: "Game Manager", Weights: map[string]float64{"tov_per36": -1.2, "usg_pct": -0.6, "ts_pct": 0.5}},
	},
	ShootingGuard: {
		{Label: "Sharpshooter", Weights: map[string]float64{"three_rate": 1.6, "ts_pct": 0.8, "pts_per36": 0.3}},
		{Label: "Slasher", Weights: map[string]float64{"ft_rate": 1.4, "pts_per36": 0.8, "three_rate": -0.6}},
		{Label: "3-and-D Wing", Weights: map[string]float64{"three_rate": 1.0, "stl_per36": 1.2, "usg_pct": -0.5}},
		{Label: "Shot Creator", Weights: map[string]float64{"usg_pct": 1.4, "pts_per36": 1.0, "ast_per36": 0.5}},
	},
	SmallForward: {
		{Label: "Point Forward", Weights: map[string]float64{"ast_per36": 1.5, "usg_pct": 0.6, "reb_per36": 0.3}},
		{Label: "3-and-D Wing", Weights: map[string]float64{"three_rate": 1.2, "stl_per36": 1.2, "usg_pct": -0.4}},
		{Label: "Primary Scorer", Weights: map[string]float64{"pts_per36": 1.5, "usg_pct": 1.1, "ft_rate": 0.4}},
		{Label: "Energy Wing", Weights: map[string]float64{"oreb_pct": 1.2, "stl_per36": 0.8, "usg_pct": -0.6}},
	},
	PowerForward: {
		{Label: "Stretch Four", Weights: map[string]float64{"three_rate": 1.6, "ts_pct": 0.5, "oreb_pct": -0.5}},
		{Label: "Interior Finisher", Weights: map[string]float64{"ts_pct": 1.0, "oreb_pct": 1.2, "three_rate": -0.8}},
		{Label: "Defensive Anchor", Weights: map[string]float64{"blk_per36": 1.5, "dreb_pct": 1.0, "usg_pct": -0.4}},
		{Label: "Point Forward", Weights: map[string]float64{"ast_per36": 1.6, "usg_pct": 0.5}},
	},
	Center: {
		{Label: "Rim Protector", Weights: map[string]float64{"blk_per36": 1.7, "dreb_pct": 0.9, "usg_pct": -0.4}},
		{Label: "Stretch Big", Weights: map[string]float64{"three_rate": 1.7, "ts_pct": 0.4, "oreb_pct": -0.6}},
		{Label: "Post Hub", Weights: map[string]float64{"ast_per36": 1.3, "usg_pct": 0.9, "pts_per36": 0.5}},
		{Label: "Glass Cleaner", Weights: map[string]float64{"oreb_pct": 1.5, "dreb_pct": 1.2, "reb_per36": 0.8}},
	},
}

// templatesFor returns the named archetype templates for a group.
func templatesFor(g PositionGroup) []labelTemplate {
	return labelTemplatesByGroup[g]
}
