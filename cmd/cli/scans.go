package cli

import (
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

// loadScan parses one scan file and records it in the run metrics.
func loadScan(path string) (*scanning.ScanResult, error) {
	scan, err := scanning.LoadResults(path)
	if err != nil {
		logger.ErrorParse("Failed to parse scan file", path, err)
		return nil, err
	}

	runMetrics.RecordScan(scan.Len(), scan.OpenPorts())
	logger.InfoParse("Scan file parsed", path, "hosts", scan.Len(), "open_ports", scan.OpenPorts())
	return scan, nil
}
