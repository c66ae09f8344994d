// Package transport opens the byte streams MSP is spoken over.
package transport

import (
	"io"

	"github.com/robotalks/msp.go/pkg/msp"
)

// Port is an opened transport.
type Port interface {
	msp.Transport
	io.Closer
}
