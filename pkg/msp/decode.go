package msp

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Decode reads one response frame ('$' 'M' '>') from r.
func Decode(r io.Reader) (*Frame, error) {
	return readFrame(r, dirResponse)
}

// DecodeRequest reads one request frame ('$' 'M' '<') from r.
// The payload is left as raw bytes, see Frame.Int16s.
func DecodeRequest(r io.Reader) (*Frame, error) {
	return readFrame(r, dirRequest)
}

func readFrame(r io.Reader, dir byte) (*Frame, error) {
	var head [3]byte
	if err := readExact(r, head[:], "header"); err != nil {
		return nil, err
	}
	if head[0] != preamble0 || head[1] != preamble1 || head[2] != dir {
		return nil, &HeaderError{Header: head}
	}
	var lc [2]byte
	if err := readExact(r, lc[:], "length and code"); err != nil {
		return nil, err
	}
	f := &Frame{Code: lc[1]}
	if l := lc[0]; l > 0 {
		f.Data = make([]byte, l)
		if err := readExact(r, f.Data, "payload"); err != nil {
			return nil, err
		}
	}
	var sum [1]byte
	if err := readExact(r, sum[:], "checksum"); err != nil {
		return nil, err
	}
	if expected := Checksum(lc[0], lc[1]) ^ Checksum(f.Data...); expected != sum[0] {
		return nil, &ChecksumError{Code: f.Code, Expected: expected, Actual: sum[0]}
	}
	return f, nil
}

// readExact fills buf. A Read returning (0, nil) is how serial ports
// report an expired read timeout.
func readExact(r io.Reader, buf []byte, what string) error {
	for off := 0; off < len(buf); {
		n, err := r.Read(buf[off:])
		off += n
		switch {
		case err != nil && isTimeout(err):
			return fmt.Errorf("read %s (%d/%d bytes): %w", what, off, len(buf), ErrTimeout)
		case err == io.EOF:
			if off < len(buf) {
				return fmt.Errorf("read %s (%d/%d bytes): %w", what, off, len(buf), io.ErrUnexpectedEOF)
			}
		case err != nil:
			return fmt.Errorf("read %s: %w", what, err)
		case n == 0:
			return fmt.Errorf("read %s (%d/%d bytes): %w", what, off, len(buf), ErrTimeout)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	return os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, ErrTimeout)
}
