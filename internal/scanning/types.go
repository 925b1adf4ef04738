package scanning

import (
	"iter"
	"slices"
	"strconv"
	"strings"
)

const (
	// UnknownService is recorded for open ports without a detected service.
	UnknownService = "UNKNOWN"

	// NotAvailable marks a port or service absent from one side of a comparison.
	NotAvailable = "N/A"

	// StateOpen is the nmap port state that is kept during extraction.
	StateOpen = "open"
)

// PortService is one open port observed on a host.
type PortService struct {
	// Port is formatted as "<number>/<PROTOCOL>", e.g. "22/TCP"
	Port string
	// Service is the uppercased nmap service name, or UnknownService
	Service string
}

// NewPortService formats a port number and protocol into a PortService.
func NewPortService(number uint16, protocol, service string) PortService {
	if service == "" {
		service = UnknownService
	}
	return PortService{
		Port:    FormatPort(number, protocol),
		Service: strings.ToUpper(service),
	}
}

// FormatPort renders a port identifier as "<number>/<PROTOCOL>".
func FormatPort(number uint16, protocol string) string {
	return strconv.FormatUint(uint64(number), 10) + "/" + strings.ToUpper(protocol)
}

// SplitPort splits a "<number>/<PROTOCOL>" identifier. Identifiers that do
// not start with a number report ok=false.
func SplitPort(port string) (number int, protocol string, ok bool) {
	num, proto, _ := strings.Cut(port, "/")
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, proto, false
	}
	return n, proto, true
}

// ComparePorts orders port identifiers numerically, then by protocol.
// Malformed identifiers sort after well formed ones, lexically.
func ComparePorts(a, b string) int {
	na, pa, oka := SplitPort(a)
	nb, pb, okb := SplitPort(b)
	switch {
	case oka && !okb:
		return -1
	case !oka && okb:
		return 1
	case !oka && !okb:
		return strings.Compare(a, b)
	}
	if na != nb {
		return na - nb
	}
	return strings.Compare(pa, pb)
}

// Compare orders pairs by port, then by service.
func (p PortService) Compare(other PortService) int {
	if c := ComparePorts(p.Port, other.Port); c != 0 {
		return c
	}
	return strings.Compare(p.Service, other.Service)
}

// HostPorts is the list of open ports recorded for one address.
type HostPorts struct {
	Address string
	Ports   []PortService
}

// ScanResult maps host addresses to the open ports found on them. Hosts
// keep the order in which they were first seen. A ScanResult is not
// modified after construction; accessors hand out copies.
type ScanResult struct {
	order []string
	hosts map[string][]PortService
}

// NewScanResult builds a ScanResult from hosts in order. A repeated address
// replaces the ports of the earlier entry but keeps its position.
func NewScanResult(hosts ...HostPorts) *ScanResult {
	r := &ScanResult{
		order: make([]string, 0, len(hosts)),
		hosts: make(map[string][]PortService, len(hosts)),
	}
	for _, h := range hosts {
		if _, exists := r.hosts[h.Address]; !exists {
			r.order = append(r.order, h.Address)
		}
		ports := slices.Clone(h.Ports)
		if ports == nil {
			ports = []PortService{}
		}
		r.hosts[h.Address] = ports
	}
	return r
}

// Len returns the number of hosts.
func (r *ScanResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Hosts returns the host addresses in first-seen order.
func (r *ScanResult) Hosts() []string {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// Ports returns a copy of the open ports of addr, or nil for unknown hosts.
func (r *ScanResult) Ports(addr string) []PortService {
	ports, _ := r.Lookup(addr)
	return ports
}

// Lookup returns a copy of the open ports of addr and whether the host is known.
func (r *ScanResult) Lookup(addr string) ([]PortService, bool) {
	if r == nil {
		return nil, false
	}
	ports, ok := r.hosts[addr]
	if !ok {
		return nil, false
	}
	return slices.Clone(ports), true
}

// All iterates hosts in order with a copy of their ports.
func (r *ScanResult) All() iter.Seq2[string, []PortService] {
	return func(yield func(string, []PortService) bool) {
		if r == nil {
			return
		}
		for _, addr := range r.order {
			if !yield(addr, slices.Clone(r.hosts[addr])) {
				return
			}
		}
	}
}

// HostPorts returns the result as an ordered list.
func (r *ScanResult) HostPorts() []HostPorts {
	out := make([]HostPorts, 0, r.Len())
	for addr, ports := range r.All() {
		out = append(out, HostPorts{Address: addr, Ports: ports})
	}
	return out
}

// OpenPorts returns the total number of recorded pairs across hosts.
func (r *ScanResult) OpenPorts() int {
	total := 0
	if r == nil {
		return total
	}
	for _, ports := range r.hosts {
		total += len(ports)
	}
	return total
}
