package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// OpenSerial opens a serial device. serial.Port reports an expired read
// timeout as (0, nil) and supports ResetInputBuffer, so it is used as
// the Port directly.
func OpenSerial(path string, opts PortOptions, timeout time.Duration) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err = port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return port, nil
}

// ListSerial enumerates serial devices.
func ListSerial() ([]string, error) {
	return serial.GetPortsList()
}
