// Command nmapanalysis compares Nmap XML scans and writes analysis reports.
package main

import (
	"github.com/anstrom/nmapanalysis/cmd/cli"
)

// Build information - set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
