package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/alkana/warehouse-go/internal/service"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetLeadTimeSummary returns average stage durations per order type and
// channel.
func (h *DashboardHandler) GetLeadTimeSummary(c *gin.Context) {
	summary, err := h.dashboard.LeadTimeSummary(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("lead time summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load lead time summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": summary})
}

// GetARAgingSummary rolls up one AR snapshot per channel. The snapshot
// query param (YYYY-MM-DD) defaults to the latest snapshot on file.
func (h *DashboardHandler) GetARAgingSummary(c *gin.Context) {
	var snapshot time.Time
	if raw := c.Query("snapshot"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "snapshot must be YYYY-MM-DD"})
			return
		}
		snapshot = parsed
	}

	rows, used, err := h.dashboard.ARAgingSummary(c.Request.Context(), snapshot)
	if err != nil {
		log.Error().Err(err).Msg("ar aging summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load ar aging summary"})
		return
	}
	if used == nil {
		c.JSON(http.StatusOK, gin.H{"items": []any{}, "snapshot": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows, "snapshot": used.Format("2006-01-02")})
}

// GetARSnapshots lists available AR snapshot dates, newest first.
func (h *DashboardHandler) GetARSnapshots(c *gin.Context) {
	dates, err := h.dashboard.ARSnapshots(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("ar snapshot listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list snapshots"})
		return
	}
	items := make([]string, len(dates))
	for i, d := range dates {
		items[i] = d.Format("2006-01-02")
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAlerts pages the alert feed; ?status=ACTIVE|RESOLVED|ALL.
func (h *DashboardHandler) GetAlerts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.DefaultQuery("status", "ACTIVE")

	alerts, err := h.dashboard.Alerts(c.Request.Context(), status, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("alert listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// ResolveAlert closes one active alert.
func (h *DashboardHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	resolved, err := h.dashboard.ResolveAlert(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("alert resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve alert"})
		return
	}
	if !resolved {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active alert with that id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
