package serial

import (
	"fmt"
	"strings"
)

// PortInfo describes a serial port and, for USB adapters, the device behind it
type PortInfo struct {
	Name            string
	Path            string
	Description     string
	VendorID        string
	ProductID       string
	SerialNumber    string
	Manufacturer    string
	Product         string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
}

// IsUSB reports whether USB identity was found for the port
func (i PortInfo) IsUSB() bool {
	return i.VendorID != "" && i.ProductID != ""
}

// USBID returns the lower-case "vvvv:pppp" identity, or "" for non-USB ports
func (i PortInfo) USBID() string {
	if !i.IsUSB() {
		return ""
	}
	return FormatUSBID(i.VendorID, i.ProductID)
}

// FormatUSBID normalises a vendor/product pair to "vvvv:pppp"
func FormatUSBID(vendorID, productID string) string {
	return fmt.Sprintf("%s:%s", normalizeHexID(vendorID), normalizeHexID(productID))
}

func normalizeHexID(id string) string {
	id = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
	if len(id) < 4 {
		id = strings.Repeat("0", 4-len(id)) + id
	}
	return id
}

// ListPortInfo returns detailed information for every available port
func ListPortInfo() ([]PortInfo, error) {
	ports, err := ListPorts()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(ports))
	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}
