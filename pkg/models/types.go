package models

// Dataset is one uploaded (or generated) sales report held in memory for the
// session. Rows are ordered and cells are kept in their raw string form; the
// report engine coerces what it needs per request and never mutates the rows.
type Dataset struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// RowCount returns the number of data rows (header excluded).
func (d *Dataset) RowCount() int {
	return len(d.Rows)
}

// ColumnIndex returns the position of a column by name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// ColumnMapping binds the semantic roles the engine needs onto arbitrary
// column names from the uploaded report. CloseWeekColumn is optional; leave
// it empty when the report has no close-week information.
type ColumnMapping struct {
	StageColumn     string `json:"stage_column" binding:"required"`
	ValueColumn     string `json:"value_column" binding:"required"`
	CloseWeekColumn string `json:"close_week_column,omitempty"`
}

// ForecastConfig carries the user-adjustable forecast settings.
type ForecastConfig struct {
	CommitStages       []string `json:"commit_stages"`
	Target             float64  `json:"target"`
	LargeDealThreshold float64  `json:"large_deal_threshold"`
}

// KPISnapshot is the derived, immutable result of one KPI computation.
type KPISnapshot struct {
	Target   float64 `json:"target"`
	Forecast float64 `json:"forecast"`
	Gap      float64 `json:"gap"`
	Coverage float64 `json:"coverage"`
}

// Analysis view identifiers (1-of-4 choice per report request).
const (
	ViewPipelineByStage = "pipeline_by_stage"
	ViewForecastRisk    = "forecast_risk"
	ViewLargeDealUpside = "large_deal_upside"
	ViewRawData         = "raw_data"
)

// Table is a render-ready row table handed to the presentation layer.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// StageTotal is one aggregate row of the Pipeline-by-Stage view.
type StageTotal struct {
	Stage string  `json:"stage"`
	Total float64 `json:"total"`
}

// ViewResult is the selected derived view. Kind is "table" when a table was
// produced and "notice" when the view degraded to a guidance message (e.g.
// Forecast Risk without a mapped close-week column).
type ViewResult struct {
	View        string       `json:"view"`
	Kind        string       `json:"kind"`
	Title       string       `json:"title"`
	Notice      string       `json:"notice,omitempty"`
	StageTotals []StageTotal `json:"stage_totals,omitempty"`
	Table       *Table       `json:"table,omitempty"`
	MatchCount  *int         `json:"match_count,omitempty"`
	CutoffWeek  *float64     `json:"cutoff_week,omitempty"`
}

// StageDefaults is what the UI needs to prefill the forecast settings:
// the distinct stage values, the guessed commit subset, the configured
// default target and the suggested large-deal threshold (75th percentile of
// the deal values). These are only defaults; explicit user choices override.
type StageDefaults struct {
	StageValues        []string `json:"stage_values"`
	CommitStages       []string `json:"commit_stages"`
	Target             float64  `json:"target"`
	LargeDealThreshold float64  `json:"large_deal_threshold"`
}

// ReportRequest is one full report invocation: mapping + forecast settings +
// the analysis selection. Everything is recomputed fresh from it.
type ReportRequest struct {
	Mapping        ColumnMapping  `json:"mapping" binding:"required"`
	Forecast       ForecastConfig `json:"forecast"`
	Analysis       string         `json:"analysis,omitempty"`
	RiskCutoffWeek *float64       `json:"risk_cutoff_week,omitempty"`
}

// ReportResponse bundles the outputs of one pipeline run.
type ReportResponse struct {
	Success   bool        `json:"success"`
	DatasetID string      `json:"dataset_id"`
	KPIs      KPISnapshot `json:"kpis"`
	View      ViewResult  `json:"view"`
	Insights  []string    `json:"insights"`
	Timestamp string      `json:"timestamp"`
}
