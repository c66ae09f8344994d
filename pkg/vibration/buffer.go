package vibration

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robotalks/msp.go/pkg/imu"
)

// Buffer accumulates 3-axis values in insertion order.
// The three sequences always have the same length.
type Buffer struct {
	x, y, z []float64
}

// NewBuffer creates a Buffer with capacity for n samples.
func NewBuffer(n int) *Buffer {
	return &Buffer{
		x: make([]float64, 0, n),
		y: make([]float64, 0, n),
		z: make([]float64, 0, n),
	}
}

// Insert appends one value per axis.
func (b *Buffer) Insert(x, y, z float64) {
	b.x = append(b.x, x)
	b.y = append(b.y, y)
	b.z = append(b.z, z)
}

// InsertSample appends a sample.
func (b *Buffer) InsertSample(s imu.Sample) {
	b.Insert(s.X, s.Y, s.Z)
}

// Reset drops all values.
func (b *Buffer) Reset() {
	b.x, b.y, b.z = b.x[:0], b.y[:0], b.z[:0]
}

// Len is the number of samples.
func (b *Buffer) Len() int {
	return len(b.x)
}

// X returns values of the X axis.
func (b *Buffer) X() []float64 { return b.x }

// Y returns values of the Y axis.
func (b *Buffer) Y() []float64 { return b.y }

// Z returns values of the Z axis.
func (b *Buffer) Z() []float64 { return b.z }

// Sample returns the nth sample.
func (b *Buffer) Sample(n int) imu.Sample {
	return imu.Sample{X: b.x[n], Y: b.y[n], Z: b.z[n]}
}

// All returns X, Y and Z values concatenated.
func (b *Buffer) All() []float64 {
	all := make([]float64, 0, len(b.x)*3)
	all = append(all, b.x...)
	all = append(all, b.y...)
	return append(all, b.z...)
}

// Clone returns a copy not sharing storage with b.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		x: append([]float64(nil), b.x...),
		y: append([]float64(nil), b.y...),
		z: append([]float64(nil), b.z...),
	}
}

// Mean is the per-axis mean. The buffer must not be empty.
func (b *Buffer) Mean() imu.Sample {
	return imu.Sample{X: Mean(b.x), Y: Mean(b.y), Z: Mean(b.z)}
}

// RMS is the per-axis root mean square. The buffer must not be empty.
func (b *Buffer) RMS() imu.Sample {
	return imu.Sample{X: RMS(b.x), Y: RMS(b.y), Z: RMS(b.z)}
}

// RMSCombined is the root mean square over all axes together.
func (b *Buffer) RMSCombined() float64 {
	return RMS(b.All())
}

// RMS calculates the root mean square. values must not be empty.
func RMS(values []float64) float64 {
	return math.Sqrt(floats.Dot(values, values) / float64(len(values)))
}

// Mean calculates the arithmetic mean. values must not be empty.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}
