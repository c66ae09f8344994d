package msp

import (
	"io"
	"time"
)

// Transport is the byte stream to the device.
type Transport interface {
	io.ReadWriter
	// SetReadTimeout sets the read timeout. A Read running out of time
	// returns either (0, nil) or an error satisfying os.IsTimeout.
	SetReadTimeout(time.Duration) error
}

// InputFlusher is implemented by transports able to discard unread input.
type InputFlusher interface {
	ResetInputBuffer() error
}
