// Package motor commands flight controller motors over MSP.
package motor

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/msp.go/pkg/msp"
)

// Motor and throttle bounds.
const (
	// Count is the number of motors addressable by index.
	Count = 4
	// PWMStop is the disarmed throttle, also the lowest valid value.
	PWMStop = 1000
	// PWMMax is the full throttle.
	PWMMax = 2000
	// RampStep is the throttle increment used by Ramp.
	RampStep = 200
)

// Vector is the throttle of all SET_MOTOR channels.
type Vector [msp.MotorChannels]int16

// StopVector returns the vector with every motor at PWMStop and the
// reserved channels at 0.
func StopVector() Vector {
	var v Vector
	for i := 0; i < Count; i++ {
		v[i] = PWMStop
	}
	return v
}

// Link sets motor throttles over an MSP client.
type Link struct {
	client *msp.Client
}

// NewLink creates a Link.
func NewLink(client *msp.Client) *Link {
	return &Link{client: client}
}

// CheckMotor validates a motor index.
func CheckMotor(index int) error {
	return msp.CheckRange("motor", index, 0, Count-1)
}

// CheckPWM validates a throttle value.
func CheckPWM(pwm int) error {
	return msp.CheckRange("pwm", pwm, PWMStop, PWMMax)
}

// SetMotor sets motor index to pwm, all other motors are stopped.
func (l *Link) SetMotor(index, pwm int) error {
	if err := CheckMotor(index); err != nil {
		return err
	}
	if err := CheckPWM(pwm); err != nil {
		return err
	}
	v := StopVector()
	v[index] = int16(pwm)
	glog.V(1).Infof("set motor %d to %d", index, pwm)
	return l.Apply(v)
}

// StopMotors stops all motors.
func (l *Link) StopMotors() error {
	glog.V(1).Info("stop motors")
	return l.Apply(StopVector())
}

// Apply sends the vector, then the zero-length commit frame and waits
// for the single acknowledgement.
func (l *Link) Apply(v Vector) error {
	_, err := l.client.Exchange(
		&msp.Command{Code: msp.SetMotor, Payload: v[:]},
		&msp.Command{Code: msp.SetMotor},
	)
	if err != nil {
		return fmt.Errorf("set motors %v: %w", v[:Count], err)
	}
	return nil
}

// Ramp moves motor index from start toward stop in RampStep increments,
// waiting stepDelay after each, and finally lands on stop.
// The values never pass stop. ctx is checked between steps.
func (l *Link) Ramp(ctx context.Context, index, start, stop int, stepDelay time.Duration) error {
	if err := CheckMotor(index); err != nil {
		return err
	}
	if err := CheckPWM(start); err != nil {
		return err
	}
	if err := CheckPWM(stop); err != nil {
		return err
	}
	for _, pwm := range RampSteps(start, stop) {
		if err := l.SetMotor(index, pwm); err != nil {
			return err
		}
		if err := Sleep(ctx, stepDelay); err != nil {
			return err
		}
	}
	return l.SetMotor(index, stop)
}

// RampSteps returns the intermediate throttles of a ramp, start
// included and stop excluded.
func RampSteps(start, stop int) []int {
	var steps []int
	switch {
	case start < stop:
		for pwm := start; pwm < stop; pwm += RampStep {
			steps = append(steps, pwm)
		}
	case start > stop:
		for pwm := start; pwm > stop; pwm -= RampStep {
			steps = append(steps, pwm)
		}
	}
	return steps
}

// Sleep waits for d or until ctx is done. A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
