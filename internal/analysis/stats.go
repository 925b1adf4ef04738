package analysis

import (
	"fmt"
	"strings"

	"github.com/anstrom/nmapanalysis/internal/scanning"
)

// ServiceCount is the number of times a service was seen and on how many
// distinct hosts.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
	Hosts   int    `json:"hosts"`
}

// PortCount is the number of times a port identifier was seen.
type PortCount struct {
	Port  string `json:"port"`
	Count int    `json:"count"`
}

// Statistics is a read-only summary of one ScanResult. Services and ports
// are listed in the order they were first encountered.
type Statistics struct {
	Services   []ServiceCount `json:"services"`
	Ports      []PortCount    `json:"ports"`
	TotalHosts int            `json:"total_hosts"`
}

// Calculate walks scan once, counting services (with their distinct hosts)
// and ports.
func Calculate(scan *scanning.ScanResult) *Statistics {
	stats := &Statistics{
		Services:   []ServiceCount{},
		Ports:      []PortCount{},
		TotalHosts: scan.Len(),
	}

	serviceIndex := make(map[string]int)
	serviceHosts := make(map[string]map[string]struct{})
	portIndex := make(map[string]int)

	for addr, ports := range scan.All() {
		for _, ps := range ports {
			idx, ok := serviceIndex[ps.Service]
			if !ok {
				idx = len(stats.Services)
				serviceIndex[ps.Service] = idx
				serviceHosts[ps.Service] = make(map[string]struct{})
				stats.Services = append(stats.Services, ServiceCount{Service: ps.Service})
			}
			stats.Services[idx].Count++
			serviceHosts[ps.Service][addr] = struct{}{}

			pidx, ok := portIndex[ps.Port]
			if !ok {
				pidx = len(stats.Ports)
				portIndex[ps.Port] = pidx
				stats.Ports = append(stats.Ports, PortCount{Port: ps.Port})
			}
			stats.Ports[pidx].Count++
		}
	}

	for i := range stats.Services {
		stats.Services[i].Hosts = len(serviceHosts[stats.Services[i].Service])
	}

	return stats
}

// Service returns the counts recorded for name.
func (s *Statistics) Service(name string) (ServiceCount, bool) {
	for _, sc := range s.Services {
		if sc.Service == name {
			return sc, true
		}
	}
	return ServiceCount{}, false
}

// Port returns the occurrence count of port.
func (s *Statistics) Port(port string) int {
	for _, pc := range s.Ports {
		if pc.Port == port {
			return pc.Count
		}
	}
	return 0
}

// Summary renders the statistics as the bullet list embedded in narrative
// reports and prompts.
func (s *Statistics) Summary() string {
	lines := make([]string, 0, len(s.Services)+len(s.Ports)+1)
	for _, sc := range s.Services {
		lines = append(lines, fmt.Sprintf("- %dx IPs had %s open", sc.Count, sc.Service))
	}

	lines = append(lines, "\nOverall statistics:")
	for _, pc := range s.Ports {
		lines = append(lines, fmt.Sprintf("- %d/%d Ports were %s", pc.Count, s.TotalHosts, pc.Port))
	}

	return strings.Join(lines, "\n")
}
