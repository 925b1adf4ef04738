package scanning

import (
	"os"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/nmapanalysis/internal/errors"
)

// xmlExtension is the only file extension accepted for scan files.
const xmlExtension = ".xml"

// ValidateFile checks that path names an existing regular file ending in ".xml".
func ValidateFile(path string) error {
	if path == "" || !strings.HasSuffix(path, xmlExtension) {
		return errors.ErrInvalidScanFile(path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return errors.ErrInvalidScanFile(path)
	}
	return nil
}

// LoadResults reads and parses an nmap XML file into a ScanResult.
// Only ports in the open state are kept.
func LoadResults(path string) (*ScanResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller validates with ValidateFile
	if err != nil {
		code := errors.CodeFilePermission
		if os.IsNotExist(err) {
			code = errors.CodeFileNotFound
		}
		return nil, errors.WrapScanErrorWithFile(code, "read scan file", path, err)
	}

	result, err := ParseResults(data)
	if err != nil {
		if scanErr, ok := err.(*errors.ScanError); ok {
			scanErr.File = path
			return nil, scanErr
		}
		return nil, errors.WrapScanErrorWithFile(errors.CodeParseFailed, "parse scan file", path, err)
	}
	return result, nil
}

// ParseResults parses nmap XML output held in memory.
func ParseResults(data []byte) (*ScanResult, error) {
	run := &nmap.Run{}
	if err := nmap.Parse(data, run); err != nil {
		return nil, errors.WrapScanError(errors.CodeParseFailed, "decode XML", err)
	}
	return convertRun(run)
}

// convertRun converts a decoded nmap run to a ScanResult.
func convertRun(run *nmap.Run) (*ScanResult, error) {
	hosts := make([]HostPorts, 0, len(run.Hosts))
	for i := range run.Hosts {
		host, err := convertHost(&run.Hosts[i])
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, host)
	}
	return NewScanResult(hosts...), nil
}

// convertHost keys a host by its first address and collects its open ports.
func convertHost(h *nmap.Host) (HostPorts, error) {
	if len(h.Addresses) == 0 || h.Addresses[0].Addr == "" {
		return HostPorts{}, errors.ErrMissingAttribute("address", "addr")
	}

	host := HostPorts{
		Address: h.Addresses[0].Addr,
		Ports:   make([]PortService, 0, len(h.Ports)),
	}

	for j := range h.Ports {
		p := &h.Ports[j]
		if p.State.State != StateOpen {
			continue
		}
		if p.Protocol == "" {
			return HostPorts{}, errors.ErrMissingAttribute("port", "protocol").WithHost(host.Address)
		}
		host.Ports = append(host.Ports, NewPortService(p.ID, p.Protocol, p.Service.Name))
	}

	return host, nil
}
