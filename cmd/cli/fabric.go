package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/llm"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

var fabricNmapFile string

// fabricReportCmd represents the fabric-report command
var fabricReportCmd = &cobra.Command{
	Use:   "fabric-report",
	Short: "Generate a markdown report with a Fabric pattern",
	Long: `Use Fabric to generate a markdown report from the statistics of one scan
with the create_network_threat_landscape pattern.

The command is disabled unless fabric.enabled is true in the configuration.
The fabric executable is taken from the "alias fabric='...'" line of
fabric.bootstrap_file.`,
	Example: `  nmapanalysis fabric-report --gpt-nmap-file scan.xml`,
	RunE:    runFabricReport,
}

func init() {
	rootCmd.AddCommand(fabricReportCmd)

	fabricReportCmd.Flags().StringVar(&fabricNmapFile, "gpt-nmap-file", "", "Target Nmap XML file for Fabric analysis")
	_ = fabricReportCmd.MarkFlagRequired("gpt-nmap-file")
}

func runFabricReport(cmd *cobra.Command, _ []string) error {
	if err := scanning.ValidateFile(fabricNmapFile); err != nil {
		return err
	}

	if !appConfig.Fabric.Enabled {
		disabled := errors.ErrFeatureDisabled("fabric-report")
		logger.Debug("Fabric report skipped", "error", disabled)
		fmt.Fprintln(cmd.OutOrStdout(), disabled.Message)
		return nil
	}

	runner, err := llm.NewFabricRunner(appConfig.Fabric, runMetrics)
	if err != nil {
		return err
	}

	status(cmd, "Passing analysed stats for %s to Fabric to create .md report using pattern %s",
		fabricNmapFile, appConfig.Fabric.Pattern)
	return writeNarrativeReport(cmd, runner, fabricNmapFile, "", false)
}
