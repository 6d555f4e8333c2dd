// Package report renders a run's fused daily records to CSV, HTML, and a
// small PNG snapshot.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/weather-data-aggregation/internal/model"
)

// CommonColumns is shared by the home and work CSV exports.
var CommonColumns = []string{
	"date", "label", "high_f", "low_f", "pop_pct", "precip_type", "precip_notes",
	"heat_category", "continuous_heavy_work_min", "hydration_cups_per_min",
	"work_rest_min", "supervisor_assessments_per_hr", "radio_checkins", "sources_count",
}

// WorkColumns extends CommonColumns with the freeze-risk fields that only
// the work-site export carries.
var WorkColumns = append(append([]string{}, CommonColumns...), "freeze_risk_badge", "freeze_guidance")

func fOrBlank(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func sOrBlank(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func commonRow(row model.DailyEnsemble) []string {
	return []string{
		row.Date.Format("2006-01-02"),
		row.Label,
		fOrBlank(row.HighF),
		fOrBlank(row.LowF),
		fOrBlank(row.PopPct),
		sOrBlank(row.PrecipType),
		row.PrecipNotes,
		sOrBlank(row.HeatCategory),
		row.HeatGuidance.ContinuousHeavyWorkMin,
		row.HeatGuidance.HydrationCupsPerMin,
		row.HeatGuidance.WorkRestMin,
		row.HeatGuidance.SupervisorAssessmentsPerHr,
		row.HeatGuidance.RadioCheckins,
		fmt.Sprintf("%d", row.SourcesCount),
	}
}

func writeCSV(path string, columns []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("report: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("report: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("report: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("report: flush: %w", err)
	}
	return path, nil
}

// WriteHomeCSV writes the home-site export (no freeze columns).
func WriteHomeCSV(rows []model.DailyEnsemble, path string) (string, error) {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, commonRow(row))
	}
	return writeCSV(path, CommonColumns, out)
}

// WriteWorkCSV writes the work-site export, appending freeze-risk fields.
func WriteWorkCSV(rows []model.DailyEnsemble, path string) (string, error) {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := commonRow(row)
		record = append(record, sOrBlank(row.FreezeRiskBadge), sOrBlank(row.FreezeGuidance))
		out = append(out, record)
	}
	return writeCSV(path, WorkColumns, out)
}
