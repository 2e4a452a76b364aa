//go:build !linux

package serial

import (
	"path/filepath"
	"sort"

	"go.bug.st/serial/enumerator"
)

// ListPorts returns the ports reported by the platform enumerator
func ListPorts() ([]string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	ports := make([]string, 0, len(details))
	for _, d := range details {
		ports = append(ports, d.Name)
	}
	sort.Strings(ports)
	return ports, nil
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	for _, d := range details {
		if d.Name != portPath {
			continue
		}
		info := &PortInfo{
			Name:        filepath.Base(d.Name),
			Path:        d.Name,
			Description: "Serial Port",
		}
		if d.IsUSB {
			info.Description = "USB Serial Port"
			info.VendorID = d.VID
			info.ProductID = d.PID
			info.SerialNumber = d.SerialNumber
			info.Product = d.Product
		}
		return info, nil
	}
	return nil, ErrDeviceNotFound
}
