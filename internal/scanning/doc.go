// Package scanning turns nmap XML output into the ScanResult structure used
// throughout nmapanalysis.
//
// # Overview
//
// A ScanResult maps each host address found in a scan file to the ordered
// list of its open ports. Every entry is a PortService pair: the port
// identifier formatted as "<number>/<PROTOCOL>" and the uppercased service
// name, or UNKNOWN when nmap did not name the service. Ports reported in any
// state other than "open" are dropped during extraction, so a host whose
// ports are all closed or filtered is present with an empty list.
//
// # Loading scans
//
//	if err := scanning.ValidateFile(path); err != nil {
//		return err
//	}
//	result, err := scanning.LoadResults(path)
//	if err != nil {
//		return err
//	}
//	for addr, ports := range result.All() {
//		fmt.Println(addr, len(ports))
//	}
//
// Decoding is done by github.com/Ullaakut/nmap/v3. Malformed XML, a host
// without an address, or an open port without a protocol fail the whole
// file; there is no partial result.
package scanning
