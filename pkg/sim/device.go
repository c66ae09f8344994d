// Package sim provides a simulated MSP flight controller.
package sim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/msp"
)

// Motors is the state of all SetMotor channels.
type Motors [msp.MotorChannels]int16

// Defaults
const (
	DefaultGravity   float64 = 512
	DefaultNoise     float64 = 4
	DefaultVibration float64 = 96
	throttleMin      float64 = 1000
	throttleSpan     float64 = 1000
)

// Device emulates a flight controller on the other side of a Transport.
// It accepts RAW_IMU and SET_MOTOR requests, SET_MOTOR data is applied and
// acknowledged only when the zero-length commit frame arrives.
//
// Reads never block: when no response is pending Read returns (0, nil),
// which is how a serial port reports an expired timeout.
type Device struct {
	// Gravity is the at rest Z reading in raw units.
	Gravity float64
	// Noise is the standard deviation of the reading with motors stopped.
	Noise float64
	// Vibration is the extra standard deviation at full throttle.
	Vibration float64
	// Latency delays every response.
	Latency time.Duration
	// Samples overrides generated accelerometer readings if set.
	Samples func(nth int) [3]int16
	// Faults injects failures if set.
	Faults FaultFunc

	lock     sync.Mutex
	in       bytes.Buffer
	out      bytes.Buffer
	rand     *rand.Rand
	timeout  time.Duration
	pending  []int16
	fault    Fault
	motors   Motors
	commits  []Motors
	requests map[byte]int
}

// NewDevice creates a Device with default readings and a fixed seed.
func NewDevice() *Device {
	return NewDeviceWithSeed(1)
}

// NewDeviceWithSeed creates a Device with the random seed for noise.
func NewDeviceWithSeed(seed int64) *Device {
	d := &Device{
		Gravity:   DefaultGravity,
		Noise:     DefaultNoise,
		Vibration: DefaultVibration,
		rand:      rand.New(rand.NewSource(seed)),
		requests:  make(map[byte]int),
	}
	for i := 0; i < 4; i++ {
		d.motors[i] = int16(throttleMin)
	}
	return d
}

// Read implements io.Reader.
func (d *Device) Read(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.out.Len() == 0 {
		return 0, nil
	}
	return d.out.Read(p)
}

// Write implements io.Writer. Complete request frames are processed
// and their responses queued for Read.
func (d *Device) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.in.Write(p)
	for d.in.Len() > 0 {
		r := bytes.NewReader(d.in.Bytes())
		f, err := msp.DecodeRequest(r)
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			glog.V(2).Infof("sim: drop input: %v", err)
			d.in.Next(1)
			continue
		}
		d.in.Next(d.in.Len() - r.Len())
		if err = d.handle(f); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// SetReadTimeout implements msp.Transport.
func (d *Device) SetReadTimeout(timeout time.Duration) error {
	d.lock.Lock()
	d.timeout = timeout
	d.lock.Unlock()
	return nil
}

// ResetInputBuffer implements msp.InputFlusher.
func (d *Device) ResetInputBuffer() error {
	d.lock.Lock()
	d.out.Reset()
	d.lock.Unlock()
	return nil
}

// Close implements io.Closer.
func (d *Device) Close() error {
	return nil
}

// Motors returns the applied motor channels.
func (d *Device) Motors() Motors {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.motors
}

// Commits returns every applied SetMotor vector in order.
func (d *Device) Commits() []Motors {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]Motors(nil), d.commits...)
}

// Requests returns the number of data requests received for code.
func (d *Device) Requests(code byte) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.requests[code]
}

func (d *Device) handle(f *msp.Frame) error {
	switch f.Code {
	case msp.RawIMU:
		fault := d.nextFault(f.Code)
		if fault == FaultWrite {
			return ErrInjected
		}
		d.reply(f.Code, d.imuPayload(), fault)
	case msp.SetMotor:
		if f.Len() > 0 {
			d.fault = d.nextFault(f.Code)
			if d.fault == FaultWrite {
				d.fault = FaultNone
				return ErrInjected
			}
			d.pending = f.Int16s()
			return nil
		}
		fault := d.fault
		d.fault = FaultNone
		if d.pending != nil && fault == FaultNone {
			var m Motors
			copy(m[:], d.pending)
			d.motors = m
			d.commits = append(d.commits, m)
			glog.V(2).Infof("sim: motors %v", m)
		}
		d.pending = nil
		d.reply(f.Code, nil, fault)
	default:
		d.reply(f.Code, nil, FaultNone)
	}
	return nil
}

func (d *Device) nextFault(code byte) Fault {
	n := d.requests[code]
	d.requests[code] = n + 1
	if d.Faults == nil {
		return FaultNone
	}
	return d.Faults(code, n)
}

func (d *Device) reply(code byte, data []byte, fault Fault) {
	if d.Latency > 0 {
		time.Sleep(d.Latency)
	}
	switch fault {
	case FaultTimeout:
		return
	case FaultNoData:
		data = nil
	}
	b := msp.EncodeResponse(code, data)
	switch fault {
	case FaultBadHeader:
		b[1] = 'X'
	case FaultBadChecksum:
		b[len(b)-1] ^= 0x5a
	}
	d.out.Write(b)
}

// imuPayload builds acc, gyro and mag vectors, 9 int16 values.
func (d *Device) imuPayload() []byte {
	var acc [3]int16
	if d.Samples != nil {
		acc = d.Samples(d.requests[msp.RawIMU] - 1)
	} else {
		sigma := d.Noise + d.Vibration*d.throttle()
		rest := [3]float64{0, 0, d.Gravity}
		for i := range acc {
			acc[i] = clamp16(rest[i] + d.rand.NormFloat64()*sigma)
		}
	}
	b := make([]byte, 18)
	for i, v := range acc {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

// throttle is the highest motor throttle in [0, 1].
func (d *Device) throttle() float64 {
	var t float64
	for _, v := range d.motors[:4] {
		t = math.Max(t, (float64(v)-throttleMin)/throttleSpan)
	}
	return math.Min(math.Max(t, 0), 1)
}

func clamp16(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}

// ReadTimeout returns the timeout set by SetReadTimeout.
func (d *Device) ReadTimeout() time.Duration {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.timeout
}
