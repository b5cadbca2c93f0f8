package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/courtmetrics/valuation/internal/config"
	"github.com/courtmetrics/valuation/internal/pipeline"
	"github.com/courtmetrics/valuation/internal/storage"
	"github.com/courtmetrics/valuation/pkg/cache"
)

// ValuationHandler serves the computed tables and triggers recomputes.
// All scoring logic lives in the pipeline; handlers only read and dispatch.
type ValuationHandler struct {
	store    storage.Store
	cache    *cache.ValuationCacheService
	pipeline *pipeline.Pipeline
	cfg      *config.Config
	logger   *logrus.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(
	store storage.Store,
	cacheService *cache.ValuationCacheService,
	p *pipeline.Pipeline,
	cfg *config.Config,
	logger *logrus.Logger,
) *ValuationHandler {
	return &ValuationHandler{
		store:    store,
		cache:    cacheService,
		pipeline: p,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetValueScores returns a season's value scores, read through the cache.
func (h *ValuationHandler) GetValueScores(c *gin.Context) {
	season := c.Param("season")

	if h.cache != nil {
		if rows, err := h.cache.GetValueScores(c.Request.Context(), season); err == nil {
			c.JSON(http.StatusOK, gin.H{"season": season, "value_scores": rows, "cached": true})
			return
		}
	}

	rows, err := h.store.ValueScores(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to load value scores")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load value scores"})
		return
	}

	if h.cache != nil && len(rows) > 0 {
		expiration := time.Duration(h.cfg.CacheExpirationSecs) * time.Second
		if err := h.cache.SetValueScores(c.Request.Context(), season, rows, expiration); err != nil {
			h.logger.WithError(err).Warn("Failed to cache value scores")
		}
	}

	c.JSON(http.StatusOK, gin.H{"season": season, "value_scores": rows, "cached": false})
}

// GetArchetypes returns a season's archetype assignments.
func (h *ValuationHandler) GetArchetypes(c *gin.Context) {
	season := c.Param("season")

	rows, err := h.store.Archetypes(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to load archetypes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load archetypes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"season": season, "archetypes": rows})
}

// GetPairSynergies returns a season's pair synergy rows.
func (h *ValuationHandler) GetPairSynergies(c *gin.Context) {
	season := c.Param("season")

	rows, err := h.store.PairSynergies(c.Request.Context(), season)
	if err != nil {
		h.logger.WithError(err).WithField("season", season).Error("Failed to load pair synergies")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pair synergies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"season": season, "pair_synergies": rows})
}

// RecomputeSeason kicks off a full season recompute in the background and
// returns 202. Progress is broadcast on the websocket hub; the season cache
// is invalidated when the run succeeds.
func (h *ValuationHandler) RecomputeSeason(c *gin.Context) {
	season := c.Param("season")
	if season == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season is required"})
		return
	}

	go func() {
		ctx := context.Background()
		if err := h.pipeline.RecomputeSeason(ctx, season); err != nil {
			h.logger.WithError(err).WithField("season", season).Error("Season recompute failed")
			return
		}
		if h.cache != nil {
			if err := h.cache.InvalidateSeason(ctx, season); err != nil {
				h.logger.WithError(err).Warn("Failed to invalidate season cache")
			}
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"season": season, "status": "recompute_started"})
}

// GetCacheStatus returns cache statistics.
func (h *ValuationHandler) GetCacheStatus(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"cache": "not_configured"})
		return
	}
	c.JSON(http.StatusOK, h.cache.GetStatus(c.Request.Context()))
}
