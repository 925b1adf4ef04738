package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anstrom/nmapanalysis/internal/llm"
	"github.com/anstrom/nmapanalysis/internal/report"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

var (
	gptNmapFile string
	gptContext  string
	gptPDF      bool
)

// gptReportCmd represents the gpt-report command
var gptReportCmd = &cobra.Command{
	Use:   "gpt-report",
	Short: "Generate a markdown security report for one Nmap XML file",
	Long: `Generate a markdown report with Description, Risk and Remediation sections
written by a language model from the open port and service statistics of one
scan, followed by the statistics and a detailed port/service table.

The API key is read from the OPENAI_KEY environment variable (or the variable
named by llm.api_key_env). A .env file in the working directory is loaded.`,
	Example: `  nmapanalysis gpt-report --gpt-nmap-file scan.xml
  nmapanalysis gpt-report --gpt-nmap-file scan.xml -c "internal scan of the OT network" --pdf`,
	RunE: runGPTReport,
}

func init() {
	rootCmd.AddCommand(gptReportCmd)

	gptReportCmd.Flags().StringVar(&gptNmapFile, "gpt-nmap-file", "", "Target Nmap XML file for GPT analysis")
	gptReportCmd.Flags().StringVarP(&gptContext, "context", "c", "",
		"Context that will be passed to GPT. For example, scans completed from an internal IP address to an internal network")
	gptReportCmd.Flags().BoolVar(&gptPDF, "pdf", false, "also write the report as PDF")

	_ = gptReportCmd.MarkFlagRequired("gpt-nmap-file")
}

func runGPTReport(cmd *cobra.Command, _ []string) error {
	if err := scanning.ValidateFile(gptNmapFile); err != nil {
		return err
	}

	client, err := llm.NewClient(appConfig.LLM, appConfig.APIKey(),
		llm.WithMetrics(runMetrics), llm.WithLogger(runLogger))
	if err != nil {
		return err
	}

	status(cmd, "Passing analysed stats for %s to GPT to create .md report.", gptNmapFile)
	return writeNarrativeReport(cmd, client, gptNmapFile, gptContext, gptPDF)
}

// writeNarrativeReport parses file, asks generator for the narrative and
// writes the markdown report, plus a PDF when withPDF is set. Nothing is
// written when generation fails.
func writeNarrativeReport(cmd *cobra.Command, generator llm.Generator, file, userContext string, withPDF bool) error {
	scan, err := loadScan(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), appConfig.LLM.Timeout)
	defer cancel()

	narrative, err := report.NewNarrator(generator, runLogger.WithComponent("report")).Generate(ctx, scan, userContext)
	if err != nil {
		logger.ErrorReport("Narrative generation failed", report.FormatMarkdown, err)
		return err
	}

	meta := reportMetadata()
	mdPath := report.FileName(appConfig.Report.OutputDir, report.AnalysisPrefix, "md",
		appConfig.Report.TimestampFormat, meta.Generated)
	if err := report.WriteMarkdown(mdPath, narrative.Markdown); err != nil {
		logger.ErrorReport("Failed to write markdown report", report.FormatMarkdown, err, "path", mdPath)
		return err
	}
	runMetrics.IncrementReportsGenerated(report.FormatMarkdown)
	logger.InfoReport("Markdown report written", report.FormatMarkdown, "path", mdPath)
	status(cmd, "Report generated: %s", mdPath)

	if !withPDF {
		return nil
	}

	pdfPath := report.FileName(appConfig.Report.OutputDir, report.AnalysisPrefix, "pdf",
		appConfig.Report.TimestampFormat, meta.Generated)
	if err := report.WriteNarrativePDF(pdfPath, narrative, scan, meta); err != nil {
		logger.ErrorReport("Failed to write PDF report", report.FormatPDF, err, "path", pdfPath)
		return err
	}
	runMetrics.IncrementReportsGenerated(report.FormatPDF)
	logger.InfoReport("PDF report written", report.FormatPDF, "path", pdfPath)
	status(cmd, "Report generated: %s", pdfPath)

	return nil
}
