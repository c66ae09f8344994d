// Package vibration measures motor induced vibration with the flight
// controller accelerometer.
package vibration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/motor"
	"github.com/robotalks/msp.go/pkg/msp"
)

// MotorLink commands motors.
type MotorLink interface {
	SetMotor(index, pwm int) error
	StopMotors() error
	Ramp(ctx context.Context, index, start, stop int, stepDelay time.Duration) error
}

// AccelLink reads accelerometer samples.
type AccelLink interface {
	Read() (imu.Sample, error)
}

// Controller runs vibration tests, one at a time.
//
// A run calibrates the accelerometer at rest, ramps the motor up,
// samples for the requested duration, stops the motor and reports RMS
// values. Any failure after the run started stops all motors before
// the error is returned.
type Controller struct {
	Motors MotorLink
	Accel  AccelLink
	// Notifier receives the states of every run. A notifier for a
	// single run is passed with WithNotifier.
	Notifier StateNotifier
	// Flush discards partial input before the safe stop, optional.
	Flush func() error

	CalibrationSamples int
	StepDelay          time.Duration
	SettleDelay        time.Duration
	// MaxRate caps the sampling rate (samples/s), 0 means unlimited.
	MaxRate float64

	state   State
	running bool
	lock    sync.Mutex
}

// NewController creates a Controller with default settings over an MSP client.
func NewController(client *msp.Client) *Controller {
	return NewConfig().NewController(client)
}

// State gets the current state.
func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Controller) setState(ctx context.Context, state State) {
	c.lock.Lock()
	changed := c.state != state
	c.state = state
	c.lock.Unlock()
	if changed {
		glog.V(1).Infof("state %s", state)
		if n := c.Notifier; n != nil {
			n.StateChanged(ctx, state)
		}
		if n := NotifierFrom(ctx); n != nil {
			n.StateChanged(ctx, state)
		}
	}
}

func (c *Controller) begin() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.running {
		return ErrBusy
	}
	c.running = true
	return nil
}

func (c *Controller) end() {
	c.lock.Lock()
	c.running = false
	c.lock.Unlock()
}

// Run runs one test of motorIndex at pwm, sampling for duration.
// Either a complete Report or the first error is returned.
func (c *Controller) Run(ctx context.Context, motorIndex, pwm int, duration time.Duration) (*Report, error) {
	if err := motor.CheckMotor(motorIndex); err != nil {
		return nil, err
	}
	if err := motor.CheckPWM(pwm); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%v: %w", duration, ErrInvalidDuration)
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	r := &Report{
		RunID:    uuid.New().String(),
		Motor:    motorIndex,
		PWM:      pwm,
		Duration: duration,
		Started:  time.Now(),
	}
	buf := NewBuffer(c.calibrationSamples())

	if err := c.safely(ctx, StateCalibrating, func() (err error) {
		r.Mean, err = c.calibrate(ctx, buf)
		return
	}); err != nil {
		return nil, err
	}
	if err := c.safely(ctx, StateRamping, func() error {
		if err := c.Motors.Ramp(ctx, motorIndex, motor.PWMStop, pwm, c.StepDelay); err != nil {
			return err
		}
		return motor.Sleep(ctx, c.SettleDelay)
	}); err != nil {
		return nil, err
	}
	if err := c.safely(ctx, StateMeasuring, func() (err error) {
		r.SampleCount, r.Elapsed, err = c.measure(ctx, buf, r.Mean, duration)
		return
	}); err != nil {
		return nil, err
	}
	glog.V(1).Infof("samples=%d freq=%.0f Hz", r.SampleCount, r.Rate())

	c.setState(ctx, StateStopping)
	if err := c.Motors.SetMotor(motorIndex, motor.PWMStop); err != nil {
		return nil, c.abort(ctx, StateStopping, err)
	}

	r.RMS = buf.RMS()
	r.RMSCombined = buf.RMSCombined()
	r.Samples = buf
	c.setState(ctx, StateReported)
	return r, nil
}

// safely runs fn in state. If fn fails, all motors are stopped before
// the failure is returned.
func (c *Controller) safely(ctx context.Context, state State, fn func() error) error {
	c.setState(ctx, state)
	if err := fn(); err != nil {
		return c.abort(ctx, state, err)
	}
	return nil
}

// abort stops all motors after err failed the run in state.
func (c *Controller) abort(ctx context.Context, state State, err error) error {
	err = &PhaseError{State: state, Err: err}
	glog.Errorf("test aborted: %v", err)
	c.setState(ctx, StateStopping)
	if c.Flush != nil {
		if ferr := c.Flush(); ferr != nil {
			glog.Warningf("flush input: %v", ferr)
		}
	}
	if stopErr := c.Motors.StopMotors(); stopErr != nil {
		glog.Errorf("stop motors: %v", stopErr)
		err = &AbortError{Err: err, StopErr: stopErr}
	}
	c.setState(ctx, StateFailed)
	return err
}

func (c *Controller) calibrationSamples() int {
	if c.CalibrationSamples > 0 {
		return c.CalibrationSamples
	}
	return DefaultCalibrationSamples
}

// calibrate returns the mean reading at rest in g. buf is left empty.
func (c *Controller) calibrate(ctx context.Context, buf *Buffer) (imu.Sample, error) {
	glog.Info("calibrating...")
	for n, count := 0, c.calibrationSamples(); n < count; n++ {
		if err := ctx.Err(); err != nil {
			return imu.Sample{}, err
		}
		s, err := c.Accel.Read()
		if err != nil {
			return imu.Sample{}, fmt.Errorf("calibration sample %d: %w", n, err)
		}
		buf.InsertSample(s.G())
	}
	mean := buf.Mean()
	buf.Reset()
	glog.V(1).Infof("mean(x,y,z)=%.2f %.2f %.2f", mean.X, mean.Y, mean.Z)
	return mean, nil
}

// measure samples into buf until duration elapsed, at least once.
func (c *Controller) measure(ctx context.Context, buf *Buffer, offset imu.Sample, duration time.Duration) (int, time.Duration, error) {
	glog.Info("measuring vibrations...")
	var limiter *rate.Limiter
	if c.MaxRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.MaxRate), 1)
	}
	start := time.Now()
	count := 0
	for ; count == 0 || time.Since(start) < duration; count++ {
		if err := ctx.Err(); err != nil {
			return count, time.Since(start), err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return count, time.Since(start), err
			}
		}
		s, err := c.Accel.Read()
		if err != nil {
			return count, time.Since(start), fmt.Errorf("sample %d: %w", count, err)
		}
		buf.InsertSample(s.G().Sub(offset))
	}
	return count, time.Since(start), nil
}
