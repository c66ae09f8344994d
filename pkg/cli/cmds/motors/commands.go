package motors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/msp.go/pkg/cli/sh"
	"github.com/robotalks/msp.go/pkg/vibration"
)

// ParseInts parses the leading args as integers named by names.
func ParseInts(args []string, names ...string) ([]int, error) {
	if len(args) < len(names) {
		return nil, fmt.Errorf("%s required", names[len(args)])
	}
	vals := make([]int, len(names))
	for n, name := range names {
		val, err := strconv.Atoi(args[n])
		if err != nil {
			return nil, fmt.Errorf("Invalid %s: %v", name, err)
		}
		vals[n] = val
	}
	return vals, nil
}

// Ramp ramps a motor as parsed from args: MOTOR FROM TO [DELAY].
func Ramp(ctx context.Context, conn *sh.Conn, args []string) error {
	vals, err := ParseInts(args, "MOTOR", "FROM", "TO")
	if err != nil {
		return err
	}
	delay := vibration.DefaultStepDelay
	if len(args) > 3 {
		if delay, err = time.ParseDuration(args[3]); err != nil {
			return fmt.Errorf("Invalid DELAY: %v", err)
		}
	}
	return conn.Motors.Ramp(ctx, vals[0], vals[1], vals[2], delay)
}

var (
	// SetCmd sets the throttle of one motor.
	SetCmd = ishell.Cmd{
		Name:    "motor.set",
		Aliases: []string{"ms"},
		Help:    "MOTOR(0-3) PWM(1000-2000)",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			vals, err := ParseInts(c.Args, "MOTOR", "PWM")
			if err == nil {
				err = conn.Motors.SetMotor(vals[0], vals[1])
			}
			sh.PrintResult(c, true, "OK", err)
		}),
	}

	// StopCmd stops all motors.
	StopCmd = ishell.Cmd{
		Name:    "motor.stop",
		Aliases: []string{"stop", "mx"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			sh.PrintResult(c, true, "OK", conn.Motors.StopMotors())
		}),
	}

	// RampCmd ramps one motor in steps.
	RampCmd = ishell.Cmd{
		Name:    "motor.ramp",
		Aliases: []string{"mr"},
		Help:    "MOTOR(0-3) FROM TO [DELAY]",
		Func: sh.MustBeConnected(func(c *ishell.Context, conn *sh.Conn) {
			err := conn.Do("ramp", func(ctx context.Context) error {
				return Ramp(ctx, conn, c.Args)
			})
			sh.PrintResult(c, true, "OK", err)
		}),
	}
)

func init() {
	sh.AddCmds(
		&SetCmd,
		&StopCmd,
		&RampCmd,
	)
}
