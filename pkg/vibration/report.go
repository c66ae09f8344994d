package vibration

import (
	"time"

	"github.com/robotalks/msp.go/pkg/imu"
)

// Report is the result of a test run.
type Report struct {
	RunID    string
	Motor    int
	PWM      int
	Duration time.Duration
	Started  time.Time

	// Mean is the calibration offset, the per-axis mean at rest in g.
	Mean imu.Sample
	// RMS is the per-axis RMS of the measured samples in g.
	RMS imu.Sample
	// RMSCombined is the RMS over all axes, the headline result.
	RMSCombined float64

	SampleCount int
	Elapsed     time.Duration
	// Samples holds the offset corrected measurements.
	Samples *Buffer
}

// Rate is the effective sampling rate in samples/s.
func (r *Report) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.SampleCount) / r.Elapsed.Seconds()
}
