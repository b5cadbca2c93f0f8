// Package storage provides the season-scoped tabular persistence the pipeline
// reads from and replaces into. The pipeline depends only on the Store
// interface; GormStore is the postgres-backed implementation.
package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/courtmetrics/valuation/internal/types"
	"github.com/courtmetrics/valuation/pkg/database"
)

// Store is the storage abstraction the pipeline core consumes: season-scoped
// filtered reads, wholesale replace of derived tables, and a small reference
// read used only for logging.
type Store interface {
	PlayerSeasonStats(ctx context.Context, season string) ([]types.PlayerSeasonStat, error)
	LineupStats(ctx context.Context, season string, groupSize int) ([]types.LineupStat, error)
	TeamSeasonStats(ctx context.Context, season string) ([]types.TeamSeasonStat, error)
	TeamGames(ctx context.Context, season string) ([]types.TeamGame, error)
	PlayerGameLogs(ctx context.Context, season string) ([]types.PlayerGameLog, error)

	PlayerName(ctx context.Context, playerID int64) (string, error)

	Archetypes(ctx context.Context, season string) ([]types.PlayerArchetype, error)
	PairSynergies(ctx context.Context, season string) ([]types.PairSynergy, error)
	ValueScores(ctx context.Context, season string) ([]types.PlayerValueScore, error)

	ReplaceArchetypes(ctx context.Context, season string, rows []types.PlayerArchetype) error
	ReplacePairSynergies(ctx context.Context, season string, rows []types.PairSynergy) error
	ReplaceValueScores(ctx context.Context, season string, rows []types.PlayerValueScore) error
}

// GormStore implements Store on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a shared database connection.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db.DB}
}

// NewGormStoreFromDB wraps a raw gorm handle (used by tests).
func NewGormStoreFromDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates all tables the pipeline reads and writes.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&types.Player{},
		&types.PlayerSeasonStat{},
		&types.LineupStat{},
		&types.TeamSeasonStat{},
		&types.TeamGame{},
		&types.PlayerGameLog{},
		&types.PlayerArchetype{},
		&types.PairSynergy{},
		&types.PlayerValueScore{},
	)
}

func (s *GormStore) PlayerSeasonStats(ctx context.Context, season string) ([]types.PlayerSeasonStat, error) {
	var rows []types.PlayerSeasonStat
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query player season stats: %w", err)
	}
	return rows, nil
}

func (s *GormStore) LineupStats(ctx context.Context, season string, groupSize int) ([]types.LineupStat, error) {
	var rows []types.LineupStat
	if err := s.db.WithContext(ctx).
		Where("season = ? AND group_size = ?", season, groupSize).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %d-man lineup stats: %w", groupSize, err)
	}
	return rows, nil
}

func (s *GormStore) TeamSeasonStats(ctx context.Context, season string) ([]types.TeamSeasonStat, error) {
	var rows []types.TeamSeasonStat
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query team season stats: %w", err)
	}
	return rows, nil
}

func (s *GormStore) TeamGames(ctx context.Context, season string) ([]types.TeamGame, error) {
	var rows []types.TeamGame
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query team games: %w", err)
	}
	return rows, nil
}

func (s *GormStore) PlayerGameLogs(ctx context.Context, season string) ([]types.PlayerGameLog, error) {
	var rows []types.PlayerGameLog
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query player game logs: %w", err)
	}
	return rows, nil
}

func (s *GormStore) PlayerName(ctx context.Context, playerID int64) (string, error) {
	var player types.Player
	err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&player).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Sprintf("player-%d", playerID), nil
		}
		return "", fmt.Errorf("failed to look up player %d: %w", playerID, err)
	}
	return player.Name, nil
}

func (s *GormStore) Archetypes(ctx context.Context, season string) ([]types.PlayerArchetype, error) {
	var rows []types.PlayerArchetype
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query archetypes: %w", err)
	}
	return rows, nil
}

func (s *GormStore) PairSynergies(ctx context.Context, season string) ([]types.PairSynergy, error) {
	var rows []types.PairSynergy
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query pair synergies: %w", err)
	}
	return rows, nil
}

func (s *GormStore) ValueScores(ctx context.Context, season string) ([]types.PlayerValueScore, error) {
	var rows []types.PlayerValueScore
	if err := s.db.WithContext(ctx).Where("season = ?", season).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query value scores: %w", err)
	}
	return rows, nil
}

func (s *GormStore) ReplaceArchetypes(ctx context.Context, season string, rows []types.PlayerArchetype) error {
	return s.replaceSeasonRows(ctx, season, &types.PlayerArchetype{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (s *GormStore) ReplacePairSynergies(ctx context.Context, season string, rows []types.PairSynergy) error {
	return s.replaceSeasonRows(ctx, season, &types.PairSynergy{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

func (s *GormStore) ReplaceValueScores(ctx context.Context, season string, rows []types.PlayerValueScore) error {
	return s.replaceSeasonRows(ctx, season, &types.PlayerValueScore{}, func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
}

// replaceSeasonRows deletes a season's rows for one derived table and inserts
// the fresh batch inside a single transaction, so a failed run leaves the
// prior season data intact.
func (s *GormStore) replaceSeasonRows(ctx context.Context, season string, model interface{}, insert func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("season = ?", season).Delete(model).Error; err != nil {
			return err
		}
		return insert(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to replace season %s rows: %w", season, err)
	}
	return nil
}
