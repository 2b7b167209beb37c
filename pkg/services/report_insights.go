package services

import (
	"fmt"

	"github.com/sharondanicka/ai-sales-dashboard/pkg/models"
)

// GenerateInsights evaluates the fixed, ordered rule set over the snapshot:
// gap status, then coverage status, then late-quarter concentration. Each
// rule appends at most one line. A rule that cannot be evaluated (e.g. a
// close-week column with no numeric cells) contributes nothing.
func (rs *ReportService) GenerateInsights(schema *ResolvedSchema, kpis models.KPISnapshot) []string {
	var insights []string

	if kpis.Gap > 0 {
		insights = append(insights, fmt.Sprintf("There is a remaining gap of %.1f to target.", kpis.Gap))
	} else {
		insights = append(insights, "Target appears covered based on selected commit stages.")
	}

	if kpis.Coverage < 80 {
		insights = append(insights, "Forecast coverage is below 80%. Funnel may be thin.")
	} else if kpis.Coverage >= 100 {
		insights = append(insights, "Forecast exceeds target. Check deal quality and risk.")
	}

	if line, ok := rs.lateWeekInsight(schema); ok {
		insights = append(insights, line)
	}

	if len(insights) == 0 {
		insights = append(insights, "No major observations based on current settings.")
	}
	return insights
}

// lateWeekInsight counts the deals closing in the final weeks of the quarter.
// The threshold here is one week before the latest close week. It is a
// separate knob from the risk view's cutoff, which defaults to two weeks.
func (rs *ReportService) lateWeekInsight(schema *ResolvedSchema) (string, bool) {
	if !schema.HasCloseWeek {
		return "", false
	}
	_, maxWeek, ok := closeWeekRange(schema)
	if !ok {
		return "", false
	}

	lateCut := maxWeek - 1
	count := 0
	for i, w := range schema.CloseWeeks {
		if schema.CloseWeekOK[i] && w >= lateCut {
			count++
		}
	}
	if count == 0 {
		return "", false
	}
	return fmt.Sprintf("%d deals are concentrated in the last weeks of the quarter.", count), true
}
