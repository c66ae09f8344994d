package sim

import "errors"

// Fault is a failure injected into a device exchange.
type Fault int

// Faults
const (
	FaultNone Fault = iota
	// FaultTimeout drops the response.
	FaultTimeout
	// FaultBadHeader replies with a corrupted preamble.
	FaultBadHeader
	// FaultBadChecksum replies with a wrong checksum.
	FaultBadChecksum
	// FaultNoData replies with an empty payload.
	FaultNoData
	// FaultWrite fails the Write carrying the request.
	FaultWrite
)

// ErrInjected is returned by Write for FaultWrite.
var ErrInjected = errors.New("injected write failure")

// FaultFunc decides the fault for a request. nth counts requests with
// the same code from 0. For SetMotor only data frames are counted, a
// fault decided for a data frame applies to the exchange it starts.
type FaultFunc func(code byte, nth int) Fault

// FailAt injects fault on the nth request of code.
func FailAt(code byte, nth int, fault Fault) FaultFunc {
	return func(c byte, n int) Fault {
		if c == code && n == nth {
			return fault
		}
		return FaultNone
	}
}

// FailFrom injects fault on every request of code from the nth.
func FailFrom(code byte, nth int, fault Fault) FaultFunc {
	return func(c byte, n int) Fault {
		if c == code && n >= nth {
			return fault
		}
		return FaultNone
	}
}
