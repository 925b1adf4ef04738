package cli

import (
	"github.com/spf13/cobra"

	"github.com/anstrom/nmapanalysis/internal/analysis"
	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/report"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

var (
	firstNmapFile   string
	lastNmapFile    string
	showDifferences bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two Nmap XML files into a spreadsheet",
	Long: `Compare two Nmap XML files to create a spreadsheet that lines up the
port/service findings of every host side by side and flags differences.
A second sheet holds per-service counts and a pie chart.`,
	Example: `  nmapanalysis compare --first-nmap-file january.xml --last-nmap-file february.xml
  nmapanalysis compare --first-nmap-file a.xml --last-nmap-file b.xml --output-dir reports --show-differences`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&firstNmapFile, "first-nmap-file", "", "The first Nmap XML output file for comparison")
	compareCmd.Flags().StringVar(&lastNmapFile, "last-nmap-file", "", "The second Nmap XML output file for comparison")
	compareCmd.Flags().BoolVar(&showDifferences, "show-differences", false, "print the differing rows as a table")

	_ = compareCmd.MarkFlagRequired("first-nmap-file")
	_ = compareCmd.MarkFlagRequired("last-nmap-file")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	for _, path := range []string{firstNmapFile, lastNmapFile} {
		if err := scanning.ValidateFile(path); err != nil {
			logger.Debug("Rejected scan file", "file", path, "error", err)
			return errors.NewScanError(errors.CodeValidation, "Invalid file paths provided for comparison.")
		}
	}

	first, err := loadScan(firstNmapFile)
	if err != nil {
		return err
	}
	last, err := loadScan(lastNmapFile)
	if err != nil {
		return err
	}

	stats := analysis.Calculate(analysis.Merge(first, last))
	rows := analysis.Compare(first, last)
	differing := analysis.CountDifferences(rows)
	runMetrics.RecordComparison(len(rows), differing)

	meta := reportMetadata()
	path := report.FileName(appConfig.Report.OutputDir, report.ComparisonPrefix, "xlsx",
		appConfig.Report.TimestampFormat, meta.Generated)

	if err := report.WriteComparisonWorkbook(path, rows, firstNmapFile, lastNmapFile, stats, meta); err != nil {
		logger.ErrorReport("Failed to write comparison workbook", report.FormatXLSX, err, "path", path)
		return err
	}
	runMetrics.IncrementReportsGenerated(report.FormatXLSX)
	logger.InfoReport("Comparison workbook written", report.FormatXLSX,
		"path", path, "rows", len(rows), "differences", differing)

	status(cmd, "Comparison spreadsheet generated.")
	status(cmd, "%s: %s", report.ComparisonSummary(rows), path)

	if showDifferences && differing > 0 {
		return report.RenderDifferences(cmd.OutOrStdout(), rows, firstNmapFile, lastNmapFile)
	}
	return nil
}
