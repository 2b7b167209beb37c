package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/services"
)

// ReportHandler serves the report endpoint: one full pipeline run per call.
type ReportHandler struct {
	store         *services.DatasetStore
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(store *services.DatasetStore, reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		store:         store,
		reportService: reportService,
	}
}

// Generate recomputes KPIs, the selected view and the insights from the
// stored dataset and the request's mapping and forecast settings. Nothing is
// carried over between calls.
func (rh *ReportHandler) Generate(c *gin.Context) {
	ds, err := rh.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}

	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Invalid report request: %v", err)})
		return
	}

	resp, err := rh.reportService.Run(ds, req)
	if err != nil {
		status := mappingErrorStatus(err)
		if errors.Is(err, services.ErrUnknownView) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	resp.Timestamp = time.Now().Format(time.RFC3339)

	log.Printf("📊 Report generated for dataset %s: view=%s forecast=%.1f coverage=%.0f%%",
		ds.ID, resp.View.View, resp.KPIs.Forecast, resp.KPIs.Coverage)
	c.JSON(http.StatusOK, resp)
}
