package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/analytics"
	"github.com/fmachado/propstack/internal/core"
)

// Cross-tenant aggregation endpoints, super admin only. Every response
// reports per-tenant degradation instead of failing the whole platform
// view; only losing the platform database itself is a hard error.

func (h *Handler) aggregationError(c *gin.Context, err error) {
	if errors.Is(err, core.ErrRegistryUnavailable) {
		h.logger.Error("Tenant registry unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tenant registry unavailable"})
		return
	}
	h.logger.Error("Aggregation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *Handler) GetGlobalStats(c *gin.Context) {
	stats, degraded, err := h.service.GlobalStats(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":    stats,
		"degraded": degraded,
	})
}

func (h *Handler) GetClosureRatio(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	series, degraded, err := h.service.MonthlyClosureRatio(c.Request.Context(), year)
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":     year,
		"series":   series,
		"degraded": degraded,
	})
}

func (h *Handler) GetTimeToClose(c *gin.Context) {
	buckets, degraded, err := h.service.TimeToClose(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_location": buckets.ByLocation,
		"by_budget":   buckets.ByBudget,
		"by_age":      buckets.ByAge,
		"degraded":    degraded,
	})
}

func preferenceFilterFrom(c *gin.Context) analytics.PreferenceFilter {
	return analytics.PreferenceFilter{
		Area:         c.Query("area"),
		BudgetRange:  c.Query("budget_range"),
		AgeRange:     c.Query("age_range"),
		PropertyType: c.Query("property_type"),
	}
}

func (h *Handler) GetHotPreferences(c *gin.Context) {
	prefs, degraded, err := h.service.HotPreferences(c.Request.Context(), preferenceFilterFrom(c))
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preferences": prefs,
		"degraded":    degraded,
	})
}

func (h *Handler) GetFarmingRecommendations(c *gin.Context) {
	farming, degraded, err := h.service.FarmingRecommendations(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"top_locations":   farming.TopLocations,
		"top_specs":       farming.TopSpecs,
		"recommendations": farming.Recommendations,
		"degraded":        degraded,
	})
}

func (h *Handler) GetAllProperties(c *gin.Context) {
	res, err := h.service.AllProperties(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetAllClients(c *gin.Context) {
	res, err := h.service.AllClients(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetAllAgents(c *gin.Context) {
	res, err := h.service.AllAgents(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
