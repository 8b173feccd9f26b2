package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fmachado/propstack/internal/core"
)

// Tenant administration endpoints, super admin only.

func (h *Handler) ListTenants(c *gin.Context) {
	tenants, err := h.service.Tenants(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func tenantIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) DeactivateTenant(c *gin.Context) {
	id, ok := tenantIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeactivateTenant(c.Request.Context(), id); err != nil {
		if errors.Is(err, core.ErrTenantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		h.aggregationError(c, err)
		return
	}

	h.logger.Info("Tenant deactivated", zap.Int64("tenant_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "inactive", "tenant_id": id})
}

func (h *Handler) ActivateTenant(c *gin.Context) {
	id, ok := tenantIDParam(c)
	if !ok {
		return
	}

	if err := h.service.ActivateTenant(c.Request.Context(), id); err != nil {
		if errors.Is(err, core.ErrTenantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found"})
			return
		}
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "active", "tenant_id": id})
}

func (h *Handler) SyncSummaries(c *gin.Context) {
	report, err := h.service.SyncSummaries(c.Request.Context())
	if err != nil {
		h.aggregationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sync completed", "report": report})
}

func (h *Handler) GetTenantSummary(c *gin.Context) {
	id, ok := tenantIDParam(c)
	if !ok {
		return
	}

	summary, err := h.service.TenantSummary(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrTenantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found. Try syncing first."})
			return
		}
		h.aggregationError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
