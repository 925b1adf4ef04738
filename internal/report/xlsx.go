package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/anstrom/nmapanalysis/internal/analysis"
	"github.com/anstrom/nmapanalysis/internal/errors"
)

// Sheet names of the comparison workbook.
const (
	ComparisonSheet = "Scan Comparison"
	StatisticsSheet = "Statistics"
)

const (
	chartTitle  = "Service Distribution"
	chartAnchor = "E4"

	minColWidth = 10.0
	maxColWidth = 60.0
)

// ComparisonHeader returns the header row of the comparison sheet.
func ComparisonHeader(firstFile, lastFile string) []string {
	first, last := ScanLabel(firstFile), ScanLabel(lastFile)
	return []string{
		"IP Address",
		first + " - Port/Protocol",
		first + " - Service",
		last + " - Port/Protocol",
		last + " - Service",
		"Differences",
	}
}

// WriteComparisonWorkbook writes the comparison rows and the per-service
// statistics of two scans to an xlsx file at path. The Statistics sheet gets
// a pie chart of the service counts.
func WriteComparisonWorkbook(path string, rows []analysis.ComparisonRow, firstFile, lastFile string,
	stats *analysis.Statistics, meta Metadata) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := buildWorkbook(f, rows, firstFile, lastFile, stats, meta); err != nil {
		return errors.WrapReportError(errors.CodeReportWrite, FormatXLSX, path, err)
	}

	if err := ensureDir(FormatXLSX, path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return errors.WrapReportError(errors.CodeReportWrite, FormatXLSX, path, err)
	}
	return nil
}

func buildWorkbook(f *excelize.File, rows []analysis.ComparisonRow, firstFile, lastFile string,
	stats *analysis.Statistics, meta Metadata) error {
	if err := f.SetSheetName(f.GetSheetName(0), ComparisonSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(StatisticsSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	comparison := make([][]string, 0, len(rows)+1)
	comparison = append(comparison, ComparisonHeader(firstFile, lastFile))
	for _, r := range rows {
		comparison = append(comparison, r.Cells())
	}
	if err := writeSheet(f, ComparisonSheet, comparison, headerStyle); err != nil {
		return err
	}

	if err := writeStatistics(f, stats, headerStyle); err != nil {
		return err
	}

	return f.SetDocProps(&excelize.DocProperties{
		Title:       "Nmap Scan Comparison",
		Subject:     fmt.Sprintf("%s vs %s", ScanLabel(firstFile), ScanLabel(lastFile)),
		Creator:     "nmapanalysis",
		Identifier:  meta.ReportID,
		Description: fmt.Sprintf("%d rows, %d differences", len(rows), analysis.CountDifferences(rows)),
		Created:     meta.Generated.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

func writeStatistics(f *excelize.File, stats *analysis.Statistics, headerStyle int) error {
	cell, err := excelize.CoordinatesToCellName(1, 1)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(StatisticsSheet, cell, &[]any{"Service", "Count"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(StatisticsSheet, "A1", "B1", headerStyle); err != nil {
		return err
	}

	widest := len("Service")
	for i, sc := range stats.Services {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(StatisticsSheet, cell, &[]any{sc.Service, sc.Count}); err != nil {
			return err
		}
		widest = max(widest, utf8.RuneCountInString(sc.Service))
	}
	if err := f.SetColWidth(StatisticsSheet, "A", "A", colWidth(widest)); err != nil {
		return err
	}

	if len(stats.Services) == 0 {
		return nil
	}

	last := len(stats.Services) + 1
	return f.AddChart(StatisticsSheet, chartAnchor, &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", StatisticsSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", StatisticsSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", StatisticsSheet, last),
		}},
		Title:    []excelize.RichTextRun{{Text: chartTitle}},
		Legend:   excelize.ChartLegend{Position: "right"},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	})
}

// writeSheet fills sheet from row 1, bolds the first row and widens columns
// to fit their longest value.
func writeSheet(f *excelize.File, sheet string, rows [][]string, headerStyle int) error {
	var widths []int
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		for c, v := range row {
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
	}
	if len(rows) == 0 {
		return nil
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, colWidth(w)); err != nil {
			return err
		}
	}
	return nil
}

func colWidth(chars int) float64 {
	return min(max(float64(chars)+2, minColWidth), maxColWidth)
}
