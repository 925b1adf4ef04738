// Package report renders comparison and analysis results as spreadsheets,
// markdown, PDF and terminal tables.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anstrom/nmapanalysis/internal/errors"
)

// Report formats, used for logging, metrics and errors.
const (
	FormatXLSX     = "xlsx"
	FormatMarkdown = "markdown"
	FormatPDF      = "pdf"
)

// File name prefixes.
const (
	ComparisonPrefix = "Nmap_Comparison"
	AnalysisPrefix   = "Nmap_Analysis_Report"
)

// DefaultTimestampLayout matches names like Nmap_Comparison_2024-03-01_14-05-09.xlsx.
const DefaultTimestampLayout = "2006-01-02_15-04-05"

const (
	dirPerm  = 0750
	filePerm = 0600
)

// Metadata identifies one generated report.
type Metadata struct {
	ReportID  string
	Generated time.Time
}

// FileName builds "<dir>/<prefix>_<timestamp>.<ext>". An empty layout falls
// back to DefaultTimestampLayout.
func FileName(dir, prefix, ext, layout string, ts time.Time) string {
	if layout == "" {
		layout = DefaultTimestampLayout
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, ts.Format(layout), ext))
}

// ScanLabel returns the base name of a scan file without its extension, as
// used in spreadsheet column headers.
func ScanLabel(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func ensureDir(format, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.WrapReportError(errors.CodeDirectoryCreate, format, path, err)
	}
	return nil
}
