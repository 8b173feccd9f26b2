package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/analytics"
	"github.com/fmachado/propstack/internal/api/middleware"
)

// Single-tenant analytics endpoints: the fast path for tenant-scoped
// roles, querying the caller's own pool without any fan-out.

func (h *Handler) tenantID(c *gin.Context) (int64, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.TenantID == 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "Tenant-scoped access required"})
		return 0, false
	}
	return id.TenantID, true
}

func (h *Handler) tenantError(c *gin.Context, err error) {
	h.logger.Error("Tenant analytics query failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func (h *Handler) GetTenantClosureRatio(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	series, err := h.service.TenantClosureRatio(c.Request.Context(), tenantID, year)
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) GetTenantTimeToClose(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	buckets, err := h.service.TenantTimeToClose(c.Request.Context(), tenantID)
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

func (h *Handler) GetTenantHotPreferences(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	prefs, err := h.service.TenantHotPreferences(c.Request.Context(), tenantID, preferenceFilterFrom(c))
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (h *Handler) GetTenantFarmingRecommendations(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	farming, err := h.service.TenantFarmingRecommendations(c.Request.Context(), tenantID)
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, farming)
}

func (h *Handler) GetTenantTypeDistribution(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	dist, err := h.service.TenantTypeDistribution(c.Request.Context(), tenantID)
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDistribution(dist, "property_type"))
}

func (h *Handler) GetTenantStatusDistribution(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	dist, err := h.service.TenantStatusDistribution(c.Request.Context(), tenantID)
	if err != nil {
		h.tenantError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDistribution(dist, "status"))
}

func toDistribution(counts []analytics.KeyCount, field string) []gin.H {
	out := make([]gin.H, 0, len(counts))
	for _, kc := range counts {
		out = append(out, gin.H{field: kc.Key, "count": kc.Count})
	}
	return out
}
