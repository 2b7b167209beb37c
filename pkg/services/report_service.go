package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
)

// Blocking errors. Everything else the engine absorbs locally: cells that
// fail numeric parse become missing, and insight rules that cannot be
// evaluated simply contribute no line.
var (
	ErrInsufficientColumns = errors.New("dataset must have at least 2 columns")
	ErrUnknownView         = errors.New("unknown analysis view")
)

// ColumnNotFoundError reports a role bound to a column the dataset does not have.
type ColumnNotFoundError struct {
	Role   string
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%s column %q not found in dataset", e.Role, e.Column)
}

// ReportService runs the report pipeline: resolve schema, classify stages,
// compute KPIs, build the selected view and the rule-based insights. Each run
// is a pure recomputation from the dataset and the request; nothing is cached.
type ReportService struct{}

// NewReportService creates a new report service.
func NewReportService() *ReportService {
	return &ReportService{}
}

// ResolvedSchema is the validated shape the downstream stages work on. Stages
// holds the string form of every stage cell; Values/CloseWeeks hold the
// coerced numeric columns with a per-row validity mask (false = missing).
type ResolvedSchema struct {
	Mapping      models.ColumnMapping
	Stages       []string
	Values       []float64
	ValueOK      []bool
	CloseWeeks   []float64
	CloseWeekOK  []bool
	HasCloseWeek bool
}

// ResolveSchema validates the column mapping against the dataset and coerces
// the numeric columns. Cells that fail to parse are marked missing, not
// errored; downstream aggregates exclude them.
func (rs *ReportService) ResolveSchema(ds *models.Dataset, mapping models.ColumnMapping) (*ResolvedSchema, error) {
	if len(ds.Columns) < 2 {
		return nil, ErrInsufficientColumns
	}

	stageIdx := ds.ColumnIndex(mapping.StageColumn)
	if stageIdx == -1 {
		return nil, &ColumnNotFoundError{Role: "stage", Column: mapping.StageColumn}
	}
	valueIdx := ds.ColumnIndex(mapping.ValueColumn)
	if valueIdx == -1 {
		return nil, &ColumnNotFoundError{Role: "value", Column: mapping.ValueColumn}
	}
	closeIdx := -1
	if mapping.CloseWeekColumn != "" {
		closeIdx = ds.ColumnIndex(mapping.CloseWeekColumn)
		if closeIdx == -1 {
			return nil, &ColumnNotFoundError{Role: "close week", Column: mapping.CloseWeekColumn}
		}
	}

	n := len(ds.Rows)
	schema := &ResolvedSchema{
		Mapping:      mapping,
		Stages:       make([]string, n),
		Values:       make([]float64, n),
		ValueOK:      make([]bool, n),
		HasCloseWeek: closeIdx != -1,
	}
	if schema.HasCloseWeek {
		schema.CloseWeeks = make([]float64, n)
		schema.CloseWeekOK = make([]bool, n)
	}

	for i, row := range ds.Rows {
		schema.Stages[i] = cellAt(row, stageIdx)
		schema.Values[i], schema.ValueOK[i] = parseNumeric(cellAt(row, valueIdx))
		if schema.HasCloseWeek {
			schema.CloseWeeks[i], schema.CloseWeekOK[i] = parseNumeric(cellAt(row, closeIdx))
		}
	}

	return schema, nil
}

// DistinctStages returns the deduplicated stage values in lexicographic
// ascending order. Every cell goes through its string form first, so mixed
// typed columns still classify cleanly.
func (rs *ReportService) DistinctStages(schema *ResolvedSchema) []string {
	seen := make(map[string]bool)
	var values []string
	for _, s := range schema.Stages {
		if !seen[s] {
			seen[s] = true
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values
}

// GuessCommitStages picks the default "counts toward forecast" subset: any
// stage whose lowercase form contains "commit" or "won". When nothing
// matches, the first distinct value is used so the default is never empty
// for a non-empty stage column. The user's explicit choice always overrides.
func (rs *ReportService) GuessCommitStages(stageValues []string) []string {
	var guess []string
	for _, s := range stageValues {
		lower := strings.ToLower(s)
		if strings.Contains(lower, "commit") || strings.Contains(lower, "won") {
			guess = append(guess, s)
		}
	}
	if len(guess) == 0 && len(stageValues) > 0 {
		guess = []string{stageValues[0]}
	}
	return guess
}

// StageDefaults bundles the distinct stages, the commit-stage guess and the
// suggested large-deal threshold (75th percentile of the coerced values,
// 10.0 when no value parses) for prefilling the forecast settings.
func (rs *ReportService) StageDefaults(schema *ResolvedSchema) models.StageDefaults {
	stageValues := rs.DistinctStages(schema)
	return models.StageDefaults{
		StageValues:        stageValues,
		CommitStages:       rs.GuessCommitStages(stageValues),
		LargeDealThreshold: rs.DefaultLargeDealThreshold(schema),
	}
}

// DefaultLargeDealThreshold returns the 75th percentile of the valid deal
// values, or 10.0 when the column has no numeric cells.
func (rs *ReportService) DefaultLargeDealThreshold(schema *ResolvedSchema) float64 {
	var values []float64
	for i, v := range schema.Values {
		if schema.ValueOK[i] {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 10.0
	}
	return percentile(values, 0.75)
}

// CalculateKPIs computes the forecast, gap and coverage snapshot.
// Missing values contribute nothing to the forecast sum, an empty commit set
// yields forecast 0, and coverage is defined as 0 when target <= 0.
func (rs *ReportService) CalculateKPIs(schema *ResolvedSchema, cfg models.ForecastConfig) models.KPISnapshot {
	commit := stageSet(cfg.CommitStages)

	var forecast float64
	if len(commit) > 0 {
		for i, stage := range schema.Stages {
			if schema.ValueOK[i] && commit[stage] {
				forecast += schema.Values[i]
			}
		}
	}

	gap := cfg.Target - forecast
	coverage := 0.0
	if cfg.Target > 0 {
		coverage = forecast / cfg.Target * 100
	}

	return models.KPISnapshot{
		Target:   finiteOrZero(cfg.Target),
		Forecast: finiteOrZero(forecast),
		Gap:      finiteOrZero(gap),
		Coverage: finiteOrZero(coverage),
	}
}

// Run executes the full pipeline for one report request.
func (rs *ReportService) Run(ds *models.Dataset, req models.ReportRequest) (*models.ReportResponse, error) {
	schema, err := rs.ResolveSchema(ds, req.Mapping)
	if err != nil {
		return nil, err
	}

	kpis := rs.CalculateKPIs(schema, req.Forecast)

	analysis := req.Analysis
	if analysis == "" {
		analysis = models.ViewPipelineByStage
	}
	view, err := rs.BuildView(ds, schema, req.Forecast, analysis, req.RiskCutoffWeek)
	if err != nil {
		return nil, err
	}

	return &models.ReportResponse{
		Success:   true,
		DatasetID: ds.ID,
		KPIs:      kpis,
		View:      *view,
		Insights:  rs.GenerateInsights(schema, kpis),
	}, nil
}

// cellAt tolerates ragged rows: an out-of-range cell reads as empty.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseNumeric coerces a cell to float64. Unparseable cells are missing.
func parseNumeric(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func stageSet(stages []string) map[string]bool {
	set := make(map[string]bool, len(stages))
	for _, s := range stages {
		set[s] = true
	}
	return set
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// percentile computes the p-quantile (0..1) with linear interpolation
// between the two nearest ranks.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
