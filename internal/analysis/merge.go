// Package analysis combines, summarizes and compares ScanResults.
package analysis

import (
	"slices"

	"github.com/anstrom/nmapanalysis/internal/scanning"
)

// Merge returns the union of two scans. Hosts appear in a's order followed
// by hosts only present in b. A host found in both scans gets the sorted,
// deduplicated union of its pairs; a host found in one scan keeps its list.
func Merge(a, b *scanning.ScanResult) *scanning.ScanResult {
	hosts := make([]scanning.HostPorts, 0, a.Len()+b.Len())

	for addr, ports := range a.All() {
		if other, ok := b.Lookup(addr); ok {
			ports = unionPorts(ports, other)
		}
		hosts = append(hosts, scanning.HostPorts{Address: addr, Ports: ports})
	}

	for addr, ports := range b.All() {
		if _, ok := a.Lookup(addr); ok {
			continue
		}
		hosts = append(hosts, scanning.HostPorts{Address: addr, Ports: ports})
	}

	return scanning.NewScanResult(hosts...)
}

func unionPorts(a, b []scanning.PortService) []scanning.PortService {
	merged := make([]scanning.PortService, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	slices.SortFunc(merged, scanning.PortService.Compare)
	return slices.Compact(merged)
}
