package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/services"
)

// MonitoringHandler serves the request-log summary.
type MonitoringHandler struct {
	monitoringService *services.MonitoringService
}

// NewMonitoringHandler creates a new monitoring handler.
func NewMonitoringHandler(monitoringService *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoringService: monitoringService}
}

// GetLogs returns aggregated request logs. Query param "limit" bounds the
// number of recent entries (default 20).
func (mh *MonitoringHandler) GetLogs(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mh.monitoringService.GetLogSummary(limit),
	})
}
