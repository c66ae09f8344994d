package msp

import (
	"errors"
	"fmt"
)

var (
	// ErrBadHeader indicates the frame doesn't start with the expected preamble.
	ErrBadHeader = errors.New("bad header")
	// ErrBadChecksum indicates the trailing checksum doesn't match the frame.
	ErrBadChecksum = errors.New("bad checksum")
	// ErrTimeout indicates no or partial response within the read timeout.
	ErrTimeout = errors.New("timeout")
	// ErrNoData indicates a response without payload where data was expected.
	ErrNoData = errors.New("no data response")
	// ErrShortPayload indicates a response payload is too small to decode.
	ErrShortPayload = errors.New("short payload")
)

// HeaderError reports the header bytes actually received.
type HeaderError struct {
	Header [3]byte
}

// Error implements error.
func (e *HeaderError) Error() string {
	return fmt.Sprintf("bad header %q", e.Header[:])
}

// Is matches ErrBadHeader.
func (e *HeaderError) Is(target error) bool {
	return target == ErrBadHeader
}

// ChecksumError reports a checksum mismatch.
type ChecksumError struct {
	Code     byte
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("bad checksum for code %d: expect 0x%02x, got 0x%02x", e.Code, e.Expected, e.Actual)
}

// Is matches ErrBadChecksum.
func (e *ChecksumError) Is(target error) bool {
	return target == ErrBadChecksum
}

// CodeError indicates the response belongs to a different command.
type CodeError struct {
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *CodeError) Error() string {
	return fmt.Sprintf("unexpected response code %d for %s(%d)", e.Actual, CodeName(e.Expected), e.Expected)
}

// RangeError indicates an argument outside protocol bounds.
// It is returned before anything is encoded.
type RangeError struct {
	Name  string
	Value int
	Min   int
	Max   int
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Name, e.Value, e.Min, e.Max)
}

// CheckRange returns a RangeError if value is outside [min, max].
func CheckRange(name string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Name: name, Value: value, Min: min, Max: max}
	}
	return nil
}
