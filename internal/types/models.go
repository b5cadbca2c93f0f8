package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Season identifies a season in "2023-24" form. Stored as a plain string
// column; all derived tables are scoped and replaced by it.
type Season = string

// FloatVector stores a []float64 as a JSON text column so the standardized
// feature vector survives round trips through both postgres and sqlite.
type FloatVector []float64

// Value implements driver.Valuer.
func (v FloatVector) Value() (driver.Value, error) {
	if v == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]float64(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal float vector: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (v *FloatVector) Scan(src interface{}) error {
	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	case nil:
		*v = nil
		return nil
	default:
		return fmt.Errorf("unsupported float vector source type %T", src)
	}
	return json.Unmarshal(data, (*[]float64)(v))
}

// Player is the small reference table mapping ids to display names.
// Used only for logging, never for computation.
type Player struct {
	PlayerID int64  `gorm:"primaryKey" json:"player_id"`
	Name     string `gorm:"not null" json:"name"`
	TeamID   int64  `json:"team_id"`
}

// PlayerSeasonStat is one immutable row per (player, season), produced by the
// upstream collectors. Read-only input to the pipeline.
type PlayerSeasonStat struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PlayerID int64  `gorm:"index:idx_pss_player_season" json:"player_id"`
	Season   string `gorm:"index:idx_pss_player_season;index" json:"season"`
	TeamID   int64  `json:"team_id"`
	Position string `json:"position"` // listed position, possibly hyphenated ("G-F")

	GamesPlayed    int     `json:"games_played"`
	MinutesTotal   float64 `json:"minutes_total"`
	MinutesPerGame float64 `json:"minutes_per_game"`

	PointsPerGame    float64 `json:"points_per_game"`
	AssistsPerGame   float64 `json:"assists_per_game"`
	ReboundsPerGame  float64 `json:"rebounds_per_game"`
	StealsPerGame    float64 `json:"steals_per_game"`
	BlocksPerGame    float64 `json:"blocks_per_game"`
	TurnoversPerGame float64 `json:"turnovers_per_game"`

	PointsPer36    float64 `json:"points_per36"`
	AssistsPer36   float64 `json:"assists_per36"`
	ReboundsPer36  float64 `json:"rebounds_per36"`
	StealsPer36    float64 `json:"steals_per36"`
	BlocksPer36    float64 `json:"blocks_per36"`
	TurnoversPer36 float64 `json:"turnovers_per36"`

	ThreePointRate  float64 `json:"three_point_rate"`
	FreeThrowRate   float64 `json:"free_throw_rate"`
	TrueShootingPct float64 `json:"true_shooting_pct"`
	UsagePct        float64 `json:"usage_pct"`
	OffRebPct       float64 `json:"oreb_pct"`
	DefRebPct       float64 `json:"dreb_pct"`

	OffensiveRating float64 `json:"offensive_rating"`
	DefensiveRating float64 `json:"defensive_rating"`
	NetRating       float64 `json:"net_rating"`
	OnOffRating     float64 `json:"on_off_rating"`
}

// LineupStat is one row per (lineup-of-N, season). PlayerIDs is stored as a
// comma-joined ascending id list. Possessions may be zero or missing; such
// rows are excluded from shrinkage.
type LineupStat struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Season    string  `gorm:"index:idx_lineup_season_size" json:"season"`
	GroupSize int     `gorm:"index:idx_lineup_season_size" json:"group_size"`
	TeamID    int64   `json:"team_id"`
	PlayerIDs string  `gorm:"not null" json:"player_ids"`
	Minutes   float64 `json:"minutes"`
	Possessions float64 `json:"possessions"`
	NetRating   float64 `json:"net_rating"`
}

// SetPlayerIDs stores the lineup's player set in canonical ascending order.
func (l *LineupStat) SetPlayerIDs(ids []int64) {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	l.PlayerIDs = strings.Join(parts, ",")
	l.GroupSize = len(sorted)
}

// PlayerIDList parses the stored id list.
func (l *LineupStat) PlayerIDList() ([]int64, error) {
	if l.PlayerIDs == "" {
		return nil, nil
	}
	parts := strings.Split(l.PlayerIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid player id %q in lineup %d: %w", p, l.ID, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// TeamSeasonStat carries team-level season aggregates. The league mean net
// rating used as the shrinkage prior is the average across these rows.
type TeamSeasonStat struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	TeamID    int64   `gorm:"index:idx_tss_team_season" json:"team_id"`
	Season    string  `gorm:"index:idx_tss_team_season;index" json:"season"`
	NetRating float64 `json:"net_rating"`
}

// TeamGame is one row per (team, game): the team's final point differential.
type TeamGame struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	GameID    int64   `gorm:"index:idx_tg_game_team" json:"game_id"`
	TeamID    int64   `gorm:"index:idx_tg_game_team;index" json:"team_id"`
	Season    string  `gorm:"index" json:"season"`
	PointDiff float64 `json:"point_diff"`
}

// PlayerGameLog is one row per (player, game) with minutes played. Joined
// against TeamGame to split games into with/without samples for WOWY.
type PlayerGameLog struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	PlayerID int64   `gorm:"index:idx_pgl_player_season" json:"player_id"`
	GameID   int64   `json:"game_id"`
	TeamID   int64   `json:"team_id"`
	Season   string  `gorm:"index:idx_pgl_player_season;index" json:"season"`
	Minutes  float64 `json:"minutes"`
}

// PlayerArchetype is the classifier's output: exactly one row per player per
// season, replaced wholesale each run.
type PlayerArchetype struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	PlayerID      int64       `gorm:"index:idx_pa_player_season" json:"player_id"`
	Season        string      `gorm:"index:idx_pa_player_season;index" json:"season"`
	PositionGroup string      `json:"position_group"`
	ClusterID     int         `json:"cluster_id"`
	Label         string      `json:"label"`
	Confidence    float64     `json:"confidence"`
	Features      FloatVector `gorm:"type:text" json:"features"`
}

// PairSynergy is one row per unordered player pair per season, stored with
// Player1ID < Player2ID. The archetype labels are informational only.
type PairSynergy struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Season          string  `gorm:"index" json:"season"`
	Player1ID       int64   `gorm:"index:idx_ps_pair" json:"player1_id"`
	Player2ID       int64   `gorm:"index:idx_ps_pair" json:"player2_id"`
	Minutes         float64 `json:"minutes"`
	Possessions     float64 `json:"possessions"`
	ShrunkNetRating float64 `json:"shrunk_net_rating"`
	SynergyScore    float64 `json:"synergy_score"`
	Player1Label    string  `json:"player1_label"`
	Player2Label    string  `json:"player2_label"`
}

// PlayerValueScore is the fused composite output, one row per player per
// season. MinutesWeight is carried for downstream team rollups and does not
// enter the composite itself.
type PlayerValueScore struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PlayerID       int64     `gorm:"index:idx_pvs_player_season" json:"player_id"`
	Season         string    `gorm:"index:idx_pvs_player_season;index" json:"season"`
	TeamID         int64     `json:"team_id"`
	BaseValue      float64   `json:"base_value"`
	SoloImpact     float64   `json:"solo_impact"`
	Synergy2Man    float64   `json:"synergy_2man"`
	Synergy3Man    float64   `json:"synergy_3man"`
	Synergy4Man    float64   `json:"synergy_4man"`
	Synergy5Man    float64   `json:"synergy_5man"`
	ArchetypeFit   float64   `json:"archetype_fit"`
	CompositeValue float64   `json:"composite_value"`
	MinutesWeight  float64   `json:"minutes_weight"`
	ComputedAt     time.Time `json:"computed_at"`
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProgressEvent is broadcast over the websocket hub while a recompute runs.
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Season    string    `json:"season"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
