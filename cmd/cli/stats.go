package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/anstrom/nmapanalysis/internal/analysis"
	"github.com/anstrom/nmapanalysis/internal/report"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

var (
	statsNmapFile string
	statsJSON     bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print open port and service statistics of one Nmap XML file",
	Example: `  nmapanalysis stats --nmap-file scan.xml
  nmapanalysis stats --nmap-file scan.xml --json | jq '.services'`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsNmapFile, "nmap-file", "", "Nmap XML file to summarize")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print statistics as JSON")

	_ = statsCmd.MarkFlagRequired("nmap-file")
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := scanning.ValidateFile(statsNmapFile); err != nil {
		return err
	}

	scan, err := loadScan(statsNmapFile)
	if err != nil {
		return err
	}
	stats := analysis.Calculate(scan)

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	return report.RenderStatistics(cmd.OutOrStdout(), stats)
}
