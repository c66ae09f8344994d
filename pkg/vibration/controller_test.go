package vibration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/motor"
	"github.com/robotalks/msp.go/pkg/msp"
	"github.com/robotalks/msp.go/pkg/sim"
)

var stopped = sim.Motors{1000, 1000, 1000, 1000, 0, 0, 0, 0}

func newTestController(d *sim.Device) *Controller {
	conf := NewConfig()
	conf.StepDelay, conf.SettleDelay, conf.MaxRate = 0, 0, 0
	return conf.NewController(msp.NewClient(d))
}

type stateRecorder struct {
	lock   sync.Mutex
	states []State
}

func (r *stateRecorder) StateChanged(_ context.Context, s State) {
	r.lock.Lock()
	r.states = append(r.states, s)
	r.lock.Unlock()
}

func TestRun(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	rec := &stateRecorder{}
	c.Notifier = rec

	r, err := c.Run(context.Background(), 2, 1500, 30*time.Millisecond)
	require.NoError(t, err)
	require.NotEmpty(t, r.RunID)
	require.Equal(t, 2, r.Motor)
	require.Equal(t, 1500, r.PWM)
	require.True(t, r.SampleCount > 0)
	require.Equal(t, r.SampleCount, r.Samples.Len())
	require.True(t, r.Elapsed >= 30*time.Millisecond)
	require.True(t, r.Rate() > 0)
	require.Equal(t, 50+r.SampleCount, d.Requests(msp.RawIMU))

	require.InDelta(t, 1, r.Mean.Z, 0.1, "gravity at rest")
	require.True(t, r.RMSCombined > 0)
	require.InDelta(t, RMS(r.Samples.All()), r.RMSCombined, 1e-12)

	require.Equal(t, []sim.Motors{
		{1000, 1000, 1000, 1000, 0, 0, 0, 0},
		{1000, 1000, 1200, 1000, 0, 0, 0, 0},
		{1000, 1000, 1400, 1000, 0, 0, 0, 0},
		{1000, 1000, 1500, 1000, 0, 0, 0, 0},
		stopped,
	}, d.Commits())

	require.Equal(t, []State{StateCalibrating, StateRamping, StateMeasuring, StateStopping, StateReported}, rec.states)
	require.Equal(t, StateReported, c.State())
}

func TestRunCalibrationOffset(t *testing.T) {
	d := sim.NewDevice()
	d.Samples = func(n int) [3]int16 {
		if n < DefaultCalibrationSamples {
			return [3]int16{10 * imu.OneG, 20 * imu.OneG, 30 * imu.OneG}
		}
		return [3]int16{12 * imu.OneG, 19 * imu.OneG, 31 * imu.OneG}
	}
	r, err := newTestController(d).Run(context.Background(), 0, 1200, 10*time.Millisecond)
	require.NoError(t, err)

	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff(imu.Sample{X: 10, Y: 20, Z: 30}, r.Mean, approx); diff != "" {
		t.Errorf("mean mismatch (-want +got):\n%s", diff)
	}
	for n := 0; n < r.Samples.Len(); n++ {
		if diff := cmp.Diff(imu.Sample{X: 2, Y: -1, Z: 1}, r.Samples.Sample(n), approx); diff != "" {
			t.Fatalf("sample %d mismatch (-want +got):\n%s", n, diff)
		}
	}
	if diff := cmp.Diff(imu.Sample{X: 2, Y: 1, Z: 1}, r.RMS, approx); diff != "" {
		t.Errorf("rms mismatch (-want +got):\n%s", diff)
	}
	require.InDelta(t, math.Sqrt(2), r.RMSCombined, 1e-9)
}

// scriptedAccel returns calibration zeros then the measurement samples,
// the last one takes long enough to end the measurement.
type scriptedAccel struct {
	calibration int
	samples     []imu.Sample
	slowLast    time.Duration
	reads       int
}

func (a *scriptedAccel) Read() (imu.Sample, error) {
	n := a.reads
	a.reads++
	if n < a.calibration {
		return imu.Sample{}, nil
	}
	n -= a.calibration
	if n >= len(a.samples) {
		return imu.Sample{}, fmt.Errorf("unexpected read %d", n)
	}
	if n == len(a.samples)-1 {
		time.Sleep(a.slowLast)
	}
	return a.samples[n], nil
}

func TestRunThreeSamples(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	c.CalibrationSamples = 5
	c.Accel = &scriptedAccel{
		calibration: 5,
		samples: []imu.Sample{
			{X: 3 * imu.OneG, Y: 0, Z: 0},
			{X: 4 * imu.OneG, Y: 0, Z: 0},
			{X: 0, Y: 0, Z: 0},
		},
		slowLast: 200 * time.Millisecond,
	}
	r, err := c.Run(context.Background(), 1, 1100, 100*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 3, r.SampleCount)
	require.Equal(t, []float64{3, 4, 0}, r.Samples.X())
	require.InDelta(t, 2.8867513, r.RMS.X, 1e-6)
	require.InDelta(t, math.Sqrt(25.0/9), r.RMSCombined, 1e-12)
}

func TestRunValidation(t *testing.T) {
	testCases := []struct {
		name     string
		motor    int
		pwm      int
		duration time.Duration
		check    func(*testing.T, error)
	}{
		{"motor", 4, 1500, time.Second, func(t *testing.T, err error) {
			var re *msp.RangeError
			require.True(t, errors.As(err, &re))
		}},
		{"pwm", 0, 2500, time.Second, func(t *testing.T, err error) {
			var re *msp.RangeError
			require.True(t, errors.As(err, &re))
		}},
		{"duration", 0, 1500, 0, func(t *testing.T, err error) {
			require.True(t, errors.Is(err, ErrInvalidDuration))
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := sim.NewDevice()
			_, err := newTestController(d).Run(context.Background(), tc.motor, tc.pwm, tc.duration)
			tc.check(t, err)
			require.Zero(t, d.Requests(msp.RawIMU))
			require.Zero(t, d.Requests(msp.SetMotor))
		})
	}
}

func TestRunSafeStop(t *testing.T) {
	type failurePoint struct {
		name   string
		faults   sim.FaultFunc
		state    State
		expect   error
		duration time.Duration
	}
	var points []failurePoint
	readFaults := map[string]struct {
		fault  sim.Fault
		expect error
	}{
		"timeout":  {sim.FaultTimeout, msp.ErrTimeout},
		"header":   {sim.FaultBadHeader, msp.ErrBadHeader},
		"checksum": {sim.FaultBadChecksum, msp.ErrBadChecksum},
		"no data":  {sim.FaultNoData, msp.ErrNoData},
		"write":    {sim.FaultWrite, sim.ErrInjected},
	}
	for name, f := range readFaults {
		for _, n := range []int{0, 17, DefaultCalibrationSamples - 1} {
			points = append(points, failurePoint{
				name:   fmt.Sprintf("calibration read %d %s", n, name),
				faults: sim.FailAt(msp.RawIMU, n, f.fault),
				state:  StateCalibrating,
				expect: f.expect,
			})
		}
		for _, n := range []int{0, 1, 7} {
			points = append(points, failurePoint{
				name:   fmt.Sprintf("measurement read %d %s", n, name),
				faults: sim.FailAt(msp.RawIMU, DefaultCalibrationSamples+n, f.fault),
				state:  StateMeasuring,
				expect: f.expect,
			})
		}
	}
	// ramp 1000 -> 1800 sends 5 SET_MOTOR exchanges.
	for n := 0; n < 5; n++ {
		points = append(points,
			failurePoint{
				name:   fmt.Sprintf("ramp write %d", n),
				faults: sim.FailAt(msp.SetMotor, n, sim.FaultWrite),
				state:  StateRamping,
				expect: sim.ErrInjected,
			},
			failurePoint{
				name:   fmt.Sprintf("ramp ack %d timeout", n),
				faults: sim.FailAt(msp.SetMotor, n, sim.FaultTimeout),
				state:  StateRamping,
				expect: msp.ErrTimeout,
			},
			failurePoint{
				name:   fmt.Sprintf("ramp ack %d checksum", n),
				faults: sim.FailAt(msp.SetMotor, n, sim.FaultBadChecksum),
				state:  StateRamping,
				expect: msp.ErrBadChecksum,
			})
	}

	// the 6th exchange stops motor 0 after measuring.
	points = append(points,
		failurePoint{
			name:     "stop write",
			faults:   sim.FailAt(msp.SetMotor, 5, sim.FaultWrite),
			state:    StateStopping,
			expect:   sim.ErrInjected,
			duration: time.Millisecond,
		},
		failurePoint{
			name:     "stop ack timeout",
			faults:   sim.FailAt(msp.SetMotor, 5, sim.FaultTimeout),
			state:    StateStopping,
			expect:   msp.ErrTimeout,
			duration: time.Millisecond,
		})

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			d := sim.NewDevice()
			d.Faults = p.faults
			c := newTestController(d)
			duration := p.duration
			if duration == 0 {
				duration = time.Minute
			}
			_, err := c.Run(context.Background(), 0, 1800, duration)
			require.Error(t, err)
			require.True(t, errors.Is(err, p.expect), "got %v", err)
			var pe *PhaseError
			require.True(t, errors.As(err, &pe))
			require.Equal(t, p.state, pe.State)
			var ae *AbortError
			require.False(t, errors.As(err, &ae), "stop succeeded")

			commits := d.Commits()
			require.NotEmpty(t, commits)
			require.Equal(t, stopped, commits[len(commits)-1])
			require.Equal(t, stopped, d.Motors())
			require.Equal(t, StateFailed, c.State())
		})
	}
}

func TestRunStopFailure(t *testing.T) {
	d := sim.NewDevice()
	// ramp fails at its 3rd step, the safe stop is the 4th data frame.
	d.Faults = sim.FailFrom(msp.SetMotor, 2, sim.FaultWrite)
	_, err := newTestController(d).Run(context.Background(), 0, 1800, time.Minute)
	var ae *AbortError
	require.True(t, errors.As(err, &ae), "got %v", err)
	require.True(t, errors.Is(err, sim.ErrInjected))
	require.True(t, errors.Is(ae.StopErr, sim.ErrInjected))
	var pe *PhaseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, StateRamping, pe.State)
	require.Equal(t, 4, d.Requests(msp.SetMotor))
}

func TestRunStopPhaseFailure(t *testing.T) {
	d := sim.NewDevice()
	d.Faults = sim.FailFrom(msp.SetMotor, 5, sim.FaultWrite)
	c := newTestController(d)
	_, err := c.Run(context.Background(), 0, 1800, time.Millisecond)
	var ae *AbortError
	require.True(t, errors.As(err, &ae), "got %v", err)
	require.True(t, errors.Is(ae.StopErr, sim.ErrInjected))
	var pe *PhaseError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, StateStopping, pe.State)
	require.Equal(t, 7, d.Requests(msp.SetMotor))
	require.Equal(t, StateFailed, c.State())
}

func TestRunContextNotifier(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	shared, run := &stateRecorder{}, &stateRecorder{}
	c.Notifier = shared

	ctx := WithNotifier(context.Background(), run)
	_, err := c.Run(ctx, 1, 1200, time.Millisecond)
	require.NoError(t, err)
	expected := []State{StateCalibrating, StateRamping, StateMeasuring, StateStopping, StateReported}
	require.Equal(t, expected, run.states)
	require.Equal(t, expected, shared.states)

	_, err = c.Run(context.Background(), 1, 1200, time.Millisecond)
	require.NoError(t, err)
	require.Len(t, run.states, len(expected), "notifier is bound to its run")
	require.Len(t, shared.states, 2*len(expected))
	require.Nil(t, NotifierFrom(context.Background()))
}

func TestRunCanceled(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Notifier = StateChangedFunc(func(_ context.Context, s State) {
		if s == StateMeasuring {
			cancel()
		}
	})
	_, err := c.Run(ctx, 3, 1600, time.Minute)
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	commits := d.Commits()
	require.Equal(t, sim.Motors{1000, 1000, 1000, 1600, 0, 0, 0, 0}, commits[len(commits)-2])
	require.Equal(t, stopped, commits[len(commits)-1])
}

func TestRunBusy(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	var nested error
	c.Notifier = StateChangedFunc(func(ctx context.Context, s State) {
		if s == StateCalibrating {
			_, nested = c.Run(ctx, 0, 1200, time.Millisecond)
		}
	})
	_, err := c.Run(context.Background(), 0, 1200, time.Millisecond)
	require.NoError(t, err)
	require.True(t, errors.Is(nested, ErrBusy))

	c.Notifier = nil
	_, err = c.Run(context.Background(), 0, 1200, time.Millisecond)
	require.NoError(t, err, "controller is reusable")
}

func TestRunMaxRate(t *testing.T) {
	d := sim.NewDevice()
	c := newTestController(d)
	c.MaxRate = 100
	r, err := c.Run(context.Background(), 0, 1000, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, r.SampleCount <= 15, "got %d samples", r.SampleCount)
}

func TestStopVectorMatchesDevice(t *testing.T) {
	v := motor.StopVector()
	m := sim.Motors(v)
	require.Equal(t, stopped[:], m[:])
}
