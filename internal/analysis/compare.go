package analysis

import (
	"slices"

	"github.com/anstrom/nmapanalysis/internal/scanning"
)

// ComparisonRow lines up one port of one host across two scans. Fields of a
// side where the port is absent hold scanning.NotAvailable.
type ComparisonRow struct {
	IP            string
	FirstPort     string
	FirstService  string
	SecondPort    string
	SecondService string
	Differs       bool
}

// DiffLabel renders Differs as "Yes" or "No".
func (r ComparisonRow) DiffLabel() string {
	if r.Differs {
		return "Yes"
	}
	return "No"
}

// Cells returns the row as spreadsheet cells.
func (r ComparisonRow) Cells() []string {
	return []string{r.IP, r.FirstPort, r.FirstService, r.SecondPort, r.SecondService, r.DiffLabel()}
}

// Compare produces one row per distinct port identifier of every host found
// in either scan. Hosts follow a's order, then hosts only in b; ports are
// sorted numerically within a host.
func Compare(a, b *scanning.ScanResult) []ComparisonRow {
	rows := []ComparisonRow{}

	for _, addr := range hostUnion(a, b) {
		first := portIndex(a.Ports(addr))
		second := portIndex(b.Ports(addr))

		ports := make([]string, 0, len(first)+len(second))
		for port := range first {
			ports = append(ports, port)
		}
		for port := range second {
			if _, dup := first[port]; !dup {
				ports = append(ports, port)
			}
		}
		slices.SortFunc(ports, scanning.ComparePorts)

		for _, port := range ports {
			p1 := lookupOrMissing(first, port)
			p2 := lookupOrMissing(second, port)
			rows = append(rows, ComparisonRow{
				IP:            addr,
				FirstPort:     p1.Port,
				FirstService:  p1.Service,
				SecondPort:    p2.Port,
				SecondService: p2.Service,
				Differs:       p1 != p2,
			})
		}
	}

	return rows
}

// CountDifferences returns how many rows are flagged as differing.
func CountDifferences(rows []ComparisonRow) int {
	n := 0
	for _, r := range rows {
		if r.Differs {
			n++
		}
	}
	return n
}

func hostUnion(a, b *scanning.ScanResult) []string {
	hosts := a.Hosts()
	for _, addr := range b.Hosts() {
		if _, ok := a.Lookup(addr); !ok {
			hosts = append(hosts, addr)
		}
	}
	return hosts
}

// portIndex keys pairs by port identifier; a repeated port keeps its last pair.
func portIndex(ports []scanning.PortService) map[string]scanning.PortService {
	idx := make(map[string]scanning.PortService, len(ports))
	for _, ps := range ports {
		idx[ps.Port] = ps
	}
	return idx
}

func lookupOrMissing(idx map[string]scanning.PortService, port string) scanning.PortService {
	if ps, ok := idx[port]; ok {
		return ps
	}
	return scanning.PortService{Port: scanning.NotAvailable, Service: scanning.NotAvailable}
}
