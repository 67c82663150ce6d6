package services

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.bug.st/serial"
)

// DetectedPrinter is a candidate printer endpoint the user can pick
// from on the connection screen.
type DetectedPrinter struct {
	Name           string `json:"name"`
	ConnectionType string `json:"connection_type"` // "serial", "usb"
	Address        string `json:"address"`
}

// DetectSerialPorts lists serial ports that may have a printer attached.
func DetectSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	if runtime.GOOS != "darwin" {
		return ports, nil
	}

	// On macOS prefer the callout devices and skip bluetooth pseudo-ports.
	var filtered []string
	for _, port := range ports {
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		filtered = append(filtered, port)
	}
	return filtered, nil
}

// DetectUSBPrinters lists raw USB line-printer devices. Only meaningful
// on Linux, where the kernel exposes them under /dev/usb.
func DetectUSBPrinters() ([]DetectedPrinter, error) {
	if runtime.GOOS != "linux" {
		return nil, nil
	}

	matches, err := filepath.Glob("/dev/usb/lp*")
	if err != nil {
		return nil, err
	}

	var printers []DetectedPrinter
	for _, path := range matches {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		printers = append(printers, DetectedPrinter{
			Name:           filepath.Base(path),
			ConnectionType: "usb",
			Address:        path,
		})
	}
	return printers, nil
}

// DetectWiredPrinters combines serial and USB candidates into one list
// for the connection screen.
func DetectWiredPrinters() ([]DetectedPrinter, error) {
	var printers []DetectedPrinter

	ports, err := DetectSerialPorts()
	if err == nil {
		for _, port := range ports {
			printers = append(printers, DetectedPrinter{
				Name:           filepath.Base(port),
				ConnectionType: "serial",
				Address:        port,
			})
		}
	}

	usb, usbErr := DetectUSBPrinters()
	if usbErr == nil {
		printers = append(printers, usb...)
	}

	if err != nil && usbErr != nil {
		return nil, err
	}
	return printers, nil
}
