package vibration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	fx "github.com/robotalks/msp.go/pkg/framework"
	"github.com/robotalks/msp.go/pkg/motor"
)

// TestSpec is one test of a Plan.
type TestSpec struct {
	Motor    int           `yaml:"motor"`
	PWM      int           `yaml:"pwm"`
	Duration time.Duration `yaml:"duration"`
}

// Plan is a list of tests run one after another, e.g.
//
//	continue_on_error: false
//	tests:
//	  - {motor: 0, pwm: 1400, duration: 2s}
//	  - {motor: 1, pwm: 1400, duration: 2s}
type Plan struct {
	ContinueOnError bool       `yaml:"continue_on_error"`
	Tests           []TestSpec `yaml:"tests"`
}

// ParsePlan parses a YAML plan and validates the tests.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(p.Tests) == 0 {
		return nil, fmt.Errorf("plan has no tests")
	}
	for n, t := range p.Tests {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("test %d: %w", n, err)
		}
	}
	return &p, nil
}

// LoadPlan reads a plan file.
func LoadPlan(fn string) (*Plan, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}
	return ParsePlan(data)
}

// Validate checks the test parameters.
func (t TestSpec) Validate() error {
	if err := motor.CheckMotor(t.Motor); err != nil {
		return err
	}
	if err := motor.CheckPWM(t.PWM); err != nil {
		return err
	}
	if t.Duration <= 0 {
		return fmt.Errorf("%v: %w", t.Duration, ErrInvalidDuration)
	}
	return nil
}

// DefaultTestDuration is the sampling duration when none is given.
const DefaultTestDuration = time.Second

// ParseDuration parses seconds (integer or decimal) or a Go duration.
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// ParseTestSpec parses command line arguments MOTOR PWM [DURATION] into
// a validated TestSpec. DURATION is parsed by ParseDuration.
func ParseTestSpec(args []string) (TestSpec, error) {
	spec := TestSpec{Duration: DefaultTestDuration}
	if len(args) < 2 || len(args) > 3 {
		return spec, fmt.Errorf("expect MOTOR PWM [DURATION], got %d arguments", len(args))
	}
	var err error
	if spec.Motor, err = strconv.Atoi(args[0]); err != nil {
		return spec, fmt.Errorf("invalid MOTOR %q: %w", args[0], err)
	}
	if spec.PWM, err = strconv.Atoi(args[1]); err != nil {
		return spec, fmt.Errorf("invalid PWM %q: %w", args[1], err)
	}
	if len(args) > 2 {
		if spec.Duration, err = ParseDuration(args[2]); err != nil {
			return spec, fmt.Errorf("invalid DURATION %q: %w", args[2], err)
		}
	}
	return spec, spec.Validate()
}

// RunPlan runs all tests of the plan and returns the reports of the
// successful ones. Unless ContinueOnError is set the first failure ends
// the plan.
func (c *Controller) RunPlan(ctx context.Context, p *Plan) ([]*Report, error) {
	var reports []*Report
	var errs fx.AggregatedError
	for n, t := range p.Tests {
		glog.Infof("test %d/%d: motor %d pwm %d for %v", n+1, len(p.Tests), t.Motor, t.PWM, t.Duration)
		r, err := c.Run(ctx, t.Motor, t.PWM, t.Duration)
		if err != nil {
			err = fmt.Errorf("test %d (motor %d pwm %d): %w", n, t.Motor, t.PWM, err)
			if !p.ContinueOnError || ctx.Err() != nil {
				return reports, err
			}
			errs.Add(err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, errs.Aggregate()
}
