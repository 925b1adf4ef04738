package scanning

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPortService(t *testing.T) {
	tests := []struct {
		name     string
		number   uint16
		protocol string
		service  string
		want     PortService
	}{
		{"tcp with service", 22, "tcp", "ssh", PortService{"22/TCP", "SSH"}},
		{"udp without service", 53, "udp", "", PortService{"53/UDP", UnknownService}},
		{"sctp keeps protocol", 2905, "sctp", "m3ua", PortService{"2905/SCTP", "M3UA"}},
		{"mixed case", 8443, "Tcp", "https-alt", PortService{"8443/TCP", "HTTPS-ALT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPortService(tt.number, tt.protocol, tt.service))
		})
	}
}

func TestSplitPort(t *testing.T) {
	n, proto, ok := SplitPort("443/TCP")
	assert.True(t, ok)
	assert.Equal(t, 443, n)
	assert.Equal(t, "TCP", proto)

	_, _, ok = SplitPort(NotAvailable)
	assert.False(t, ok)
}

func TestComparePorts(t *testing.T) {
	ports := []string{"8080/TCP", "N/A", "22/UDP", "443/TCP", "22/TCP", "9/TCP"}
	slices.SortFunc(ports, ComparePorts)
	assert.Equal(t, []string{"9/TCP", "22/TCP", "22/UDP", "443/TCP", "8080/TCP", "N/A"}, ports)
}

func TestPortServiceCompare(t *testing.T) {
	a := PortService{"80/TCP", "HTTP"}
	b := PortService{"80/TCP", "NGINX"}
	c := PortService{"100/TCP", "A"}

	assert.Negative(t, a.Compare(b))
	assert.Positive(t, b.Compare(a))
	assert.Zero(t, a.Compare(a))
	assert.Negative(t, b.Compare(c), "numeric port order wins over service")
}

func TestScanResultAccessors(t *testing.T) {
	result := NewScanResult(
		HostPorts{Address: "10.0.0.2", Ports: []PortService{{"22/TCP", "SSH"}}},
		HostPorts{Address: "10.0.0.1"},
	)

	assert.Equal(t, 2, result.Len())
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.1"}, result.Hosts())
	assert.Equal(t, 1, result.OpenPorts())

	ports, ok := result.Lookup("10.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, []PortService{}, ports)

	_, ok = result.Lookup("10.0.0.9")
	assert.False(t, ok)
	assert.Nil(t, result.Ports("10.0.0.9"))

	var visited []string
	for addr := range result.All() {
		visited = append(visited, addr)
	}
	assert.Equal(t, result.Hosts(), visited)

	assert.Equal(t, []HostPorts{
		{Address: "10.0.0.2", Ports: []PortService{{"22/TCP", "SSH"}}},
		{Address: "10.0.0.1", Ports: []PortService{}},
	}, result.HostPorts())
}

func TestScanResultIsImmutable(t *testing.T) {
	input := []PortService{{"22/TCP", "SSH"}}
	result := NewScanResult(HostPorts{Address: "10.0.0.1", Ports: input})

	input[0].Service = "TAMPERED"
	assert.Equal(t, "SSH", result.Ports("10.0.0.1")[0].Service, "constructor must copy its input")

	got := result.Ports("10.0.0.1")
	got[0].Service = "TAMPERED"
	assert.Equal(t, "SSH", result.Ports("10.0.0.1")[0].Service, "accessor must return a copy")

	hosts := result.Hosts()
	hosts[0] = "changed"
	assert.Equal(t, []string{"10.0.0.1"}, result.Hosts())
}

func TestNilScanResult(t *testing.T) {
	var result *ScanResult
	assert.Equal(t, 0, result.Len())
	assert.Nil(t, result.Hosts())
	assert.Equal(t, 0, result.OpenPorts())
	assert.Empty(t, result.HostPorts())
	for range result.All() {
		t.Fatal("nil result must not yield")
	}
}
