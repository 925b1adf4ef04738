package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/nmapanalysis/internal/analysis"
)

// RenderStatistics prints the service and port tables of stats to w.
func RenderStatistics(w io.Writer, stats *analysis.Statistics) error {
	services := tablewriter.NewWriter(w)
	services.Header("Service", "Count", "Hosts")
	for _, sc := range stats.Services {
		if err := services.Append([]string{sc.Service, strconv.Itoa(sc.Count), strconv.Itoa(sc.Hosts)}); err != nil {
			return err
		}
	}
	if err := services.Render(); err != nil {
		return err
	}

	ports := tablewriter.NewWriter(w)
	ports.Header("Port/Protocol", "Count", "Total Hosts")
	for _, pc := range stats.Ports {
		if err := ports.Append([]string{pc.Port, strconv.Itoa(pc.Count), strconv.Itoa(stats.TotalHosts)}); err != nil {
			return err
		}
	}
	return ports.Render()
}

// RenderDifferences prints the rows flagged as differing to w.
func RenderDifferences(w io.Writer, rows []analysis.ComparisonRow, firstFile, lastFile string) error {
	header := ComparisonHeader(firstFile, lastFile)
	table := tablewriter.NewWriter(w)
	table.Header(header[0], header[1], header[2], header[3], header[4])
	for _, r := range rows {
		if !r.Differs {
			continue
		}
		if err := table.Append([]string{r.IP, r.FirstPort, r.FirstService, r.SecondPort, r.SecondService}); err != nil {
			return err
		}
	}
	return table.Render()
}

// ComparisonSummary describes rows in one line.
func ComparisonSummary(rows []analysis.ComparisonRow) string {
	return fmt.Sprintf("%d port entries compared, %d differences", len(rows), analysis.CountDifferences(rows))
}
