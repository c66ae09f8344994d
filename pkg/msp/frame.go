package msp

import (
	"encoding/binary"
	"io"
)

// Frame preamble and direction bytes.
const (
	preamble0   byte = '$'
	preamble1   byte = 'M'
	dirRequest  byte = '<'
	dirResponse byte = '>'

	headerSize = 5 // '$' 'M' DIR LEN CODE
)

// Checksum calculates the XOR checksum of the bytes in order.
func Checksum(b ...byte) byte {
	var c byte
	for _, v := range b {
		c ^= v
	}
	return c
}

// Command is an outgoing request frame.
// Payload must not exceed 127 words so that the length fits in a byte.
type Command struct {
	Code    byte
	Payload []int16
}

// Len is the payload length in bytes as put on wire.
func (c *Command) Len() byte {
	return byte(len(c.Payload) * 2)
}

// Bytes returns encoded bytes for sending.
func (c *Command) Bytes() []byte {
	l := c.Len()
	b := make([]byte, headerSize+int(l)+1)
	b[0], b[1], b[2], b[3], b[4] = preamble0, preamble1, dirRequest, l, c.Code
	for n, v := range c.Payload {
		binary.LittleEndian.PutUint16(b[headerSize+n*2:], uint16(v))
	}
	b[len(b)-1] = Checksum(b[3 : len(b)-1]...)
	return b
}

// WriteTo writes the encoded frame in a single Write.
func (c *Command) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.Bytes())
	return int64(n), err
}

// Encode encodes a request frame.
func Encode(code byte, payload ...int16) []byte {
	return (&Command{Code: code, Payload: payload}).Bytes()
}

// Frame is a decoded frame with raw payload.
type Frame struct {
	Code byte
	Data []byte
}

// Len is the payload length in bytes.
func (f *Frame) Len() int {
	return len(f.Data)
}

// Int16s decodes the payload as little-endian 16-bit words.
// A trailing odd byte is ignored.
func (f *Frame) Int16s() []int16 {
	words := make([]int16, len(f.Data)/2)
	for n := range words {
		words[n] = int16(binary.LittleEndian.Uint16(f.Data[n*2:]))
	}
	return words
}

// EncodeResponse encodes a response frame, as a device sends it.
func EncodeResponse(code byte, data []byte) []byte {
	b := make([]byte, headerSize+len(data)+1)
	b[0], b[1], b[2], b[3], b[4] = preamble0, preamble1, dirResponse, byte(len(data)), code
	copy(b[headerSize:], data)
	b[len(b)-1] = Checksum(b[3 : len(b)-1]...)
	return b
}
