package services

import (
	"fmt"
	"sort"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
)

// BuildView produces the one derived view the request selected. Views never
// mutate the dataset; every table is a fresh selection over it.
func (rs *ReportService) BuildView(ds *models.Dataset, schema *ResolvedSchema, cfg models.ForecastConfig, analysis string, cutoff *float64) (*models.ViewResult, error) {
	switch analysis {
	case models.ViewPipelineByStage:
		return rs.buildPipelineByStage(ds, schema), nil
	case models.ViewForecastRisk:
		return rs.buildForecastRisk(ds, schema, cfg, cutoff), nil
	case models.ViewLargeDealUpside:
		return rs.buildLargeDealUpside(ds, schema, cfg), nil
	case models.ViewRawData:
		return rs.buildRawData(ds), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, analysis)
	}
}

// buildPipelineByStage groups deal values by stage (sums sorted descending)
// and lists the stage/value pairs row-by-row, largest deals first. Rows whose
// value cell failed to parse sort after every numeric row.
func (rs *ReportService) buildPipelineByStage(ds *models.Dataset, schema *ResolvedSchema) *models.ViewResult {
	sums := make(map[string]float64)
	for i, stage := range schema.Stages {
		if schema.ValueOK[i] {
			sums[stage] += schema.Values[i]
		} else if _, ok := sums[stage]; !ok {
			sums[stage] = 0
		}
	}

	totals := make([]models.StageTotal, 0, len(sums))
	for stage, total := range sums {
		totals = append(totals, models.StageTotal{Stage: stage, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Stage < totals[j].Stage
	})

	order := make([]int, len(ds.Rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if schema.ValueOK[i] != schema.ValueOK[j] {
			return schema.ValueOK[i]
		}
		return schema.Values[i] > schema.Values[j]
	})

	table := &models.Table{Columns: []string{schema.Mapping.StageColumn, schema.Mapping.ValueColumn}}
	for _, i := range order {
		table.Rows = append(table.Rows, []string{
			schema.Stages[i],
			cellAt(ds.Rows[i], ds.ColumnIndex(schema.Mapping.ValueColumn)),
		})
	}

	return &models.ViewResult{
		View:        models.ViewPipelineByStage,
		Kind:        "table",
		Title:       "Pipeline by Stage",
		StageTotals: totals,
		Table:       table,
	}
}

// buildForecastRisk selects the late-quarter rows that are not yet in a
// commit stage. Without a usable close-week column the view degrades to a
// guidance notice instead of failing.
func (rs *ReportService) buildForecastRisk(ds *models.Dataset, schema *ResolvedSchema, cfg models.ForecastConfig, cutoff *float64) *models.ViewResult {
	notice := &models.ViewResult{
		View:   models.ViewForecastRisk,
		Kind:   "notice",
		Title:  "Forecast Risk – Late Quarter Deals",
		Notice: "To see late-quarter risk, map a Close Week column first.",
	}
	if !schema.HasCloseWeek {
		return notice
	}

	minWeek, maxWeek, ok := closeWeekRange(schema)
	if !ok {
		return notice
	}

	// Default cutoff: two weeks before the latest close week, kept inside
	// the observed range. A caller-supplied cutoff is clamped the same way.
	cut := maxWeek - 2
	if cutoff != nil {
		cut = *cutoff
	}
	if cut < minWeek {
		cut = minWeek
	}
	if cut > maxWeek {
		cut = maxWeek
	}

	commit := stageSet(cfg.CommitStages)
	table := &models.Table{Columns: ds.Columns}
	for i, row := range ds.Rows {
		if schema.CloseWeekOK[i] && schema.CloseWeeks[i] >= cut && !commit[schema.Stages[i]] {
			table.Rows = append(table.Rows, row)
		}
	}

	count := len(table.Rows)
	return &models.ViewResult{
		View:       models.ViewForecastRisk,
		Kind:       "table",
		Title:      "Forecast Risk – Late Quarter Deals",
		Table:      table,
		MatchCount: &count,
		CutoffWeek: &cut,
	}
}

// buildLargeDealUpside selects the rows at or above the large-deal threshold.
func (rs *ReportService) buildLargeDealUpside(ds *models.Dataset, schema *ResolvedSchema, cfg models.ForecastConfig) *models.ViewResult {
	table := &models.Table{Columns: ds.Columns}
	for i, row := range ds.Rows {
		if schema.ValueOK[i] && schema.Values[i] >= cfg.LargeDealThreshold {
			table.Rows = append(table.Rows, row)
		}
	}

	count := len(table.Rows)
	return &models.ViewResult{
		View:       models.ViewLargeDealUpside,
		Kind:       "table",
		Title:      "Large Deal Upside",
		Table:      table,
		MatchCount: &count,
	}
}

// buildRawData returns the dataset unchanged.
func (rs *ReportService) buildRawData(ds *models.Dataset) *models.ViewResult {
	return &models.ViewResult{
		View:  models.ViewRawData,
		Kind:  "table",
		Title: "Full Data View",
		Table: &models.Table{Columns: ds.Columns, Rows: ds.Rows},
	}
}

// closeWeekRange returns the min and max over the valid close-week cells.
func closeWeekRange(schema *ResolvedSchema) (minWeek, maxWeek float64, ok bool) {
	for i, w := range schema.CloseWeeks {
		if !schema.CloseWeekOK[i] {
			continue
		}
		if !ok {
			minWeek, maxWeek, ok = w, w, true
			continue
		}
		if w < minWeek {
			minWeek = w
		}
		if w > maxWeek {
			maxWeek = w
		}
	}
	return minWeek, maxWeek, ok
}
