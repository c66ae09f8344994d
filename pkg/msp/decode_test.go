package msp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingReader records how many bytes were consumed.
type countingReader struct {
	r    io.Reader
	read int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

// stallingReader returns data then reports an expired timeout
// the way serial ports do: (0, nil).
type stallingReader struct {
	data []byte
}

func (s *stallingReader) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, nil
	}
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

type deadlineReader struct{}

func (deadlineReader) Read([]byte) (int, error) {
	return 0, os.ErrDeadlineExceeded
}

// oneByteReader returns a single byte per Read.
type oneByteReader struct {
	data []byte
}

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(o.data) == 0 {
		return 0, io.EOF
	}
	p[0], o.data = o.data[0], o.data[1:]
	return 1, nil
}

func asResponse(req []byte) []byte {
	resp := append([]byte(nil), req...)
	resp[2] = '>'
	return resp
}

func TestDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		code    byte
		payload []int16
	}{
		{"empty", SetMotor, nil},
		{"motors", SetMotor, []int16{1000, 1200, 1000, 1000, 0, 0, 0, 0}},
		{"imu", RawIMU, []int16{-512, 3, 512, 7, -8, 9, 10, 11, 12}},
		{"extremes", 1, []int16{-32768, 32767, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wire := Encode(tc.code, tc.payload...)

			req, err := DecodeRequest(bytes.NewReader(wire))
			require.NoError(t, err)
			require.Equal(t, tc.code, req.Code)
			require.Equal(t, len(tc.payload)*2, req.Len())
			if len(tc.payload) > 0 {
				require.Equal(t, tc.payload, req.Int16s())
			}

			resp, err := Decode(&oneByteReader{data: asResponse(wire)})
			require.NoError(t, err)
			require.Equal(t, tc.code, resp.Code)
			require.Equal(t, req.Data, resp.Data)
		})
	}
}

func TestDecodeBadHeader(t *testing.T) {
	testCases := []struct {
		name   string
		header []byte
	}{
		{"wrong M", []byte{'$', 'X', '>'}},
		{"wrong dollar", []byte{'#', 'M', '>'}},
		{"request direction", []byte{'$', 'M', '<'}},
		{"error direction", []byte{'$', 'M', '!'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := &countingReader{r: bytes.NewReader(append(tc.header, 6, 102, 1, 2, 3, 4, 5, 6, 0))}
			_, err := Decode(r)
			require.True(t, errors.Is(err, ErrBadHeader), "got %v", err)
			var he *HeaderError
			require.True(t, errors.As(err, &he))
			require.Equal(t, tc.header, he.Header[:])
			require.Equal(t, 3, r.read, "nothing beyond the header must be consumed")
		})
	}
}

func TestDecodeBadChecksum(t *testing.T) {
	wire := asResponse(Encode(RawIMU, 0x0102, 0x0304, 0x0506))

	t.Run("corrupted checksum", func(t *testing.T) {
		bad := append([]byte(nil), wire...)
		bad[len(bad)-1] ^= 0xff
		_, err := Decode(bytes.NewReader(bad))
		require.True(t, errors.Is(err, ErrBadChecksum), "got %v", err)
		var ce *ChecksumError
		require.True(t, errors.As(err, &ce))
		require.Equal(t, RawIMU, ce.Code)
	})

	t.Run("corrupted payload byte", func(t *testing.T) {
		bad := append([]byte(nil), wire...)
		bad[6] ^= 0x10
		_, err := Decode(bytes.NewReader(bad))
		require.True(t, errors.Is(err, ErrBadChecksum), "got %v", err)
	})
}

func TestDecodeDetectsCorruption(t *testing.T) {
	wire := EncodeResponse(RawIMU, []byte{0x00, 0x02, 0x10, 0x00, 0xfe, 0x01, 0x07, 0x00})
	// every byte after the length: code, payload and the checksum itself.
	for pos := 4; pos < len(wire); pos++ {
		for _, flip := range []byte{0x01, 0x80, 0xff} {
			bad := append([]byte(nil), wire...)
			bad[pos] ^= flip
			_, err := Decode(bytes.NewReader(bad))
			require.Truef(t, errors.Is(err, ErrBadChecksum), "pos %d flip %02x: %v", pos, flip, err)
		}
	}
}

func TestDecodeChecksumCoversSerializedBytes(t *testing.T) {
	// words 0x0102 and 0x0201 have the same logical XOR of their halves
	// but the checksum must follow the serialized order given on wire.
	wire := asResponse(Encode(RawIMU, 0x0102))
	f, err := Decode(bytes.NewReader(wire))
	require.NoError(t, err)
	require.Equal(t, []int16{0x0102}, f.Int16s())
	require.Equal(t, Checksum(2, RawIMU, 0x02, 0x01), wire[len(wire)-1])
	require.Equal(t, []byte{0x02, 0x01}, wire[5:7])
	require.Equal(t, uint16(0x0102), binary.LittleEndian.Uint16(wire[5:7]))
}

func TestDecodeTimeout(t *testing.T) {
	wire := EncodeResponse(RawIMU, []byte{1, 2, 3, 4, 5, 6})
	for cut := 0; cut < len(wire); cut++ {
		_, err := Decode(&stallingReader{data: wire[:cut]})
		require.Truef(t, errors.Is(err, ErrTimeout), "cut at %d: %v", cut, err)
	}
	_, err := Decode(deadlineReader{})
	require.True(t, errors.Is(err, ErrTimeout), "got %v", err)
}

func TestDecodeUnexpectedEOF(t *testing.T) {
	wire := EncodeResponse(RawIMU, []byte{1, 2})
	_, err := Decode(bytes.NewReader(wire[:6]))
	require.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
}

func TestDecodeConsumesWholeFrame(t *testing.T) {
	first := EncodeResponse(RawIMU, []byte{1, 2, 3, 4, 5, 6})
	second := EncodeResponse(SetMotor, nil)
	r := bytes.NewReader(append(first, second...))
	f, err := Decode(r)
	require.NoError(t, err)
	require.Equal(t, RawIMU, f.Code)
	f, err = Decode(r)
	require.NoError(t, err)
	require.Equal(t, SetMotor, f.Code)
	require.Zero(t, f.Len())
}
