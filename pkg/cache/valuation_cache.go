package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/types"
)

// ValuationCacheService handles caching for computed valuation reads
type ValuationCacheService struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewValuationCacheService creates a new valuation cache service
func NewValuationCacheService(client *redis.Client, logger *logrus.Logger) *ValuationCacheService {
	return &ValuationCacheService{
		client: client,
		logger: logger,
	}
}

// SetValueScores stores a season's value scores in cache
func (c *ValuationCacheService) SetValueScores(ctx context.Context, season string, rows []types.PlayerValueScore, expiration time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal value scores: %w", err)
	}

	fullKey := fmt.Sprintf("value_scores:%s", season)
	if err := c.client.Set(ctx, fullKey, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set value scores in cache: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key":  fullKey,
		"expiration": expiration,
		"rows":       len(rows),
	}).Debug("Cached value scores")

	return nil
}

// GetValueScores retrieves a season's value scores from cache
func (c *ValuationCacheService) GetValueScores(ctx context.Context, season string) ([]types.PlayerValueScore, error) {
	fullKey := fmt.Sprintf("value_scores:%s", season)
	data, err := c.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("value scores not found in cache")
		}
		return nil, fmt.Errorf("failed to get value scores from cache: %w", err)
	}

	var rows []types.PlayerValueScore
	if err := json.Unmarshal([]byte(data), &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value scores: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"cache_key": fullKey,
		"rows":      len(rows),
	}).Debug("Retrieved value scores from cache")

	return rows, nil
}

// InvalidateSeason removes a season's cached reads after a recompute
func (c *ValuationCacheService) InvalidateSeason(ctx context.Context, season string) error {
	keys := []string{
		fmt.Sprintf("value_scores:%s", season),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate season cache: %w", err)
	}

	c.logger.WithField("season", season).Debug("Invalidated season cache")
	return nil
}

// GetStatus returns cache statistics
func (c *ValuationCacheService) GetStatus(ctx context.Context) map[string]interface{} {
	dbSize := c.client.DBSize(ctx)

	status := map[string]interface{}{
		"service":   "valuation-cache",
		"timestamp": time.Now(),
		"connected": true,
	}

	if dbSize.Err() == nil {
		status["db_size"] = dbSize.Val()
	}

	scoreKeys, err := c.client.Keys(ctx, "value_scores:*").Result()
	if err == nil {
		status["value_score_keys"] = len(scoreKeys)
	}

	return status
}
