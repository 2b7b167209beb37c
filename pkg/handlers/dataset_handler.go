package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	config "github.com/sharondanicka/ai-sales-dashboard/configs"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/services"
)

// DatasetHandler serves dataset upload, sample generation and preview.
type DatasetHandler struct {
	store         *services.DatasetStore
	reportService *services.ReportService
	cfg           *config.Config
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(store *services.DatasetStore, reportService *services.ReportService, cfg *config.Config) *DatasetHandler {
	return &DatasetHandler{
		store:         store,
		reportService: reportService,
		cfg:           cfg,
	}
}

// Upload accepts a multipart CSV or .xlsx sales report, decodes it into a
// dataset and stores it for the session. The first row is the header.
func (dh *DatasetHandler) Upload(c *gin.Context) {
	c.Request.ParseMultipartForm(dh.cfg.MaxUploadMB << 20)

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Could not read the uploaded file."})
		return
	}
	defer file.Close()

	rows, err := decodeTabularFile(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Could not read file: %v", err)})
		return
	}
	if len(rows) < 1 || len(rows[0]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "The file needs a header row."})
		return
	}

	ds := &models.Dataset{
		Name:    fileHeader.Filename,
		Columns: rows[0],
		Rows:    rows[1:],
	}
	id := dh.store.Put(ds)
	log.Printf("📄 Dataset uploaded: %s (%d rows, %d columns) → %s", ds.Name, ds.RowCount(), len(ds.Columns), id)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"dataset_id": id,
		"name":       ds.Name,
		"columns":    ds.Columns,
		"row_count":  ds.RowCount(),
	})
}

// CreateSample stores a fresh copy of the deterministic sample dataset, the
// fallback for trying the dashboard without a report at hand.
func (dh *DatasetHandler) CreateSample(c *gin.Context) {
	ds := services.GenerateSampleDataset()
	id := dh.store.Put(ds)
	log.Printf("📄 Sample dataset generated → %s", id)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"dataset_id": id,
		"name":       ds.Name,
		"columns":    ds.Columns,
		"row_count":  ds.RowCount(),
	})
}

// Preview returns the detected columns and the first 10 rows.
func (dh *DatasetHandler) Preview(c *gin.Context) {
	ds, err := dh.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}

	limit := 10
	if limit > len(ds.Rows) {
		limit = len(ds.Rows)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"name":      ds.Name,
		"columns":   ds.Columns,
		"row_count": ds.RowCount(),
		"rows":      ds.Rows[:limit],
	})
}

// Stages resolves a column mapping and returns the distinct stage values
// plus the default commit-stage guess and suggested large-deal threshold,
// so the client can prefill its forecast settings.
func (dh *DatasetHandler) Stages(c *gin.Context) {
	ds, err := dh.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
		return
	}

	var mapping models.ColumnMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("Invalid column mapping: %v", err)})
		return
	}

	schema, err := dh.reportService.ResolveSchema(ds, mapping)
	if err != nil {
		c.JSON(mappingErrorStatus(err), gin.H{"success": false, "error": err.Error()})
		return
	}

	defaults := dh.reportService.StageDefaults(schema)
	defaults.Target = dh.cfg.DefaultTarget
	c.JSON(http.StatusOK, gin.H{"success": true, "defaults": defaults})
}

// decodeTabularFile parses an uploaded report by extension. CSV rows may be
// ragged; the engine treats short rows as having empty trailing cells.
func decodeTabularFile(file multipart.File, fileName string) ([][]string, error) {
	name := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(name, ".xlsx"):
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open Excel file: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read Excel sheet: %w", err)
		}
		return rows, nil
	case strings.HasSuffix(name, ".csv"):
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		return rows, nil
	default:
		return nil, errors.New("unsupported file format, upload .csv or .xlsx")
	}
}

// mappingErrorStatus maps schema resolution failures onto HTTP statuses.
// Both blocking cases are client problems with the uploaded data or mapping.
func mappingErrorStatus(err error) int {
	var notFound *services.ColumnNotFoundError
	if errors.Is(err, services.ErrInsufficientColumns) || errors.As(err, &notFound) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
