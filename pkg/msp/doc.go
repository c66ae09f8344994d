// Package msp provides MultiWii Serial Protocol (MSP) v1 support.
package msp

// MSP is communicated between a flight controller and a host over a
// peer-to-peer byte stream (e.g. serial port).
//
// Requests are framed as '$' 'M' '<' LEN CODE PAYLOAD CHECKSUM and
// responses as '$' 'M' '>' LEN CODE PAYLOAD CHECKSUM. CHECKSUM is the XOR
// of LEN, CODE and every PAYLOAD byte. Request payloads in this package
// are always little-endian 16-bit words.
//
// The protocol has no sequence numbers, so exchanges must be strictly
// request/response in lock-step. Client serializes them.
//
// Producer: flight controller firmware
// Consumer: host tools
