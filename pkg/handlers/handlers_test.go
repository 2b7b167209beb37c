package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	config "github.com/sharondanicka/ai-sales-dashboard/configs"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
	"github.com/sharondanicka/ai-sales-dashboard/pkg/services"
)

func setupTestRouter() (*gin.Engine, *services.DatasetStore) {
	gin.SetMode(gin.TestMode)

	cfg := config.LoadConfig()
	store := services.NewDatasetStore()
	reportService := services.NewReportService()

	datasetHandler := NewDatasetHandler(store, reportService, cfg)
	reportHandler := NewReportHandler(store, reportService)

	router := gin.New()
	router.GET("/health", HealthCheck)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/datasets", datasetHandler.Upload)
		v1.POST("/datasets/sample", datasetHandler.CreateSample)
		v1.GET("/datasets/:id/preview", datasetHandler.Preview)
		v1.POST("/datasets/:id/stages", datasetHandler.Stages)
		v1.POST("/datasets/:id/report", reportHandler.Generate)
	}
	return router, store
}

func multipartCSV(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestUploadCSV(t *testing.T) {
	router, store := setupTestRouter()

	body, contentType := multipartCSV(t, "q3.csv", "Stage,Deal Value\nWon,10\nProposal,7\n")
	req, _ := http.NewRequest("POST", "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success   bool     `json:"success"`
		DatasetID string   `json:"dataset_id"`
		Columns   []string `json:"columns"`
		RowCount  int      `json:"row_count"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"Stage", "Deal Value"}, resp.Columns)
	assert.Equal(t, 2, resp.RowCount)

	ds, err := store.Get(resp.DatasetID)
	assert.NoError(t, err)
	assert.Equal(t, "q3.csv", ds.Name)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	router, _ := setupTestRouter()

	body, contentType := multipartCSV(t, "report.pdf", "not tabular")
	req, _ := http.NewRequest("POST", "/api/v1/datasets", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file format")
}

func TestUploadMissingFile(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/v1/datasets", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSampleAndPreview(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("POST", "/api/v1/datasets/sample", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var created struct {
		DatasetID string `json:"dataset_id"`
		RowCount  int    `json:"row_count"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 50, created.RowCount)

	req, _ = http.NewRequest("GET", "/api/v1/datasets/"+created.DatasetID+"/preview", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var preview struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, []string{"Account", "Region", "Stage", "Deal Value", "Close Week"}, preview.Columns)
	assert.Len(t, preview.Rows, 10)
}

func TestPreviewUnknownDataset(t *testing.T) {
	router, _ := setupTestRouter()

	req, _ := http.NewRequest("GET", "/api/v1/datasets/nope/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStagesEndpoint(t *testing.T) {
	router, store := setupTestRouter()
	id := store.Put(&models.Dataset{
		Name:    "test.csv",
		Columns: []string{"Stage", "Value"},
		Rows: [][]string{
			{"Pipeline", "1"},
			{"Commit", "2"},
			{"Won", "3"},
		},
	})

	mapping, _ := json.Marshal(models.ColumnMapping{StageColumn: "Stage", ValueColumn: "Value"})
	req, _ := http.NewRequest("POST", "/api/v1/datasets/"+id+"/stages", bytes.NewBuffer(mapping))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Defaults models.StageDefaults `json:"defaults"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Commit", "Pipeline", "Won"}, resp.Defaults.StageValues)
	assert.Equal(t, []string{"Commit", "Won"}, resp.Defaults.CommitStages)
	assert.Equal(t, 120.0, resp.Defaults.Target)
}

func TestStagesEndpointInsufficientColumns(t *testing.T) {
	router, store := setupTestRouter()
	id := store.Put(&models.Dataset{
		Name:    "thin.csv",
		Columns: []string{"Only"},
		Rows:    [][]string{{"a"}},
	})

	mapping, _ := json.Marshal(models.ColumnMapping{StageColumn: "Only", ValueColumn: "Only"})
	req, _ := http.NewRequest("POST", "/api/v1/datasets/"+id+"/stages", bytes.NewBuffer(mapping))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 2 columns")
}

func TestGenerateReport(t *testing.T) {
	router, store := setupTestRouter()
	id := store.Put(&models.Dataset{
		Name:    "test.csv",
		Columns: []string{"Stage", "Value", "Week"},
		Rows: [][]string{
			{"Won", "10", "5"},
			{"Won", "5", "12"},
			{"Proposal", "7", "13"},
		},
	})

	payload, _ := json.Marshal(models.ReportRequest{
		Mapping: models.ColumnMapping{StageColumn: "Stage", ValueColumn: "Value", CloseWeekColumn: "Week"},
		Forecast: models.ForecastConfig{
			CommitStages:       []string{"Won"},
			Target:             120,
			LargeDealThreshold: 8,
		},
		Analysis: models.ViewPipelineByStage,
	})
	req, _ := http.NewRequest("POST", "/api/v1/datasets/"+id+"/report", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.ReportResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 15.0, resp.KPIs.Forecast)
	assert.Equal(t, 105.0, resp.KPIs.Gap)
	assert.Equal(t, models.ViewPipelineByStage, resp.View.View)
	assert.NotEmpty(t, resp.Insights)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestGenerateReportUnknownView(t *testing.T) {
	router, store := setupTestRouter()
	id := store.Put(&models.Dataset{
		Name:    "test.csv",
		Columns: []string{"Stage", "Value"},
		Rows:    [][]string{{"Won", "10"}},
	})

	payload, _ := json.Marshal(models.ReportRequest{
		Mapping:  models.ColumnMapping{StageColumn: "Stage", ValueColumn: "Value"},
		Analysis: "bogus",
	})
	req, _ := http.NewRequest("POST", "/api/v1/datasets/"+id+"/report", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateReportMissingMapping(t *testing.T) {
	router, store := setupTestRouter()
	id := store.Put(&models.Dataset{
		Name:    "test.csv",
		Columns: []string{"Stage", "Value"},
		Rows:    [][]string{{"Won", "10"}},
	})

	req, _ := http.NewRequest("POST", "/api/v1/datasets/"+id+"/report", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
