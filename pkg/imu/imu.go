// Package imu reads the flight controller accelerometer over MSP.
package imu

import (
	"fmt"

	"github.com/robotalks/msp.go/pkg/msp"
)

// OneG is the approximate raw accelerometer reading for 1g.
const OneG = 512

// Sample is one accelerometer reading in raw device units.
type Sample struct {
	X, Y, Z float64
}

// Scale divides every axis by div.
func (s Sample) Scale(div float64) Sample {
	return Sample{X: s.X / div, Y: s.Y / div, Z: s.Z / div}
}

// Sub subtracts o per axis.
func (s Sample) Sub(o Sample) Sample {
	return Sample{X: s.X - o.X, Y: s.Y - o.Y, Z: s.Z - o.Z}
}

// G converts raw units to g.
func (s Sample) G() Sample {
	return s.Scale(OneG)
}

// Link reads accelerometer samples.
type Link struct {
	client *msp.Client
}

// NewLink creates a Link.
func NewLink(client *msp.Client) *Link {
	return &Link{client: client}
}

// Read requests RAW_IMU and returns the accelerometer vector.
// Fields following the accelerometer are ignored.
func (l *Link) Read() (Sample, error) {
	f, err := l.client.Do(msp.RawIMU)
	if err != nil {
		return Sample{}, err
	}
	if f.Len() == 0 {
		return Sample{}, fmt.Errorf("read accel: %w", msp.ErrNoData)
	}
	if f.Len() < 6 {
		return Sample{}, fmt.Errorf("read accel, %d bytes: %w", f.Len(), msp.ErrShortPayload)
	}
	v := f.Int16s()
	return Sample{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}, nil
}
