// Package report renders and publishes vibration test results.
package report

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/robotalks/msp.go/pkg/vibration"
)

const boldFormat = "\033[1m%s\033[0m"

// Text renders a Report for a console.
type Text struct {
	// Verbose adds the calibration offset and per-axis RMS at 1,
	// and the sampling rate at 2.
	Verbose int
	// Bold highlights the combined RMS with ANSI escapes.
	Bold bool
}

// Write renders r to w.
func (t Text) Write(w io.Writer, r *vibration.Report) error {
	ew := &errWriter{w: w}
	if t.Verbose > 0 {
		ew.printf("mean(x,y,z)=%.2f %.2f %.2f\n", r.Mean.X, r.Mean.Y, r.Mean.Z)
	}
	if t.Verbose > 1 {
		ew.printf("samples=%d freq=%d Hz\n", r.SampleCount, int(math.Round(r.Rate())))
	}
	if t.Verbose > 0 {
		ew.printf("rms(x,y,z)=%.2f %.2f %.2f\n", r.RMS.X, r.RMS.Y, r.RMS.Z)
	}
	total := fmt.Sprintf("%.2f", r.RMSCombined)
	if t.Bold {
		total = fmt.Sprintf(boldFormat, total)
	}
	ew.printf("rms(total)=%s\n", total)
	return ew.err
}

// Progress returns a StateNotifier printing the phases of a run to w.
func Progress(w io.Writer) vibration.StateNotifier {
	return vibration.StateChangedFunc(func(_ context.Context, state vibration.State) {
		var msg string
		switch state {
		case vibration.StateCalibrating:
			msg = "Calibrating..."
		case vibration.StateRamping:
			msg = "Starting motor..."
		case vibration.StateMeasuring:
			msg = "Measuring vibrations..."
		case vibration.StateStopping:
			msg = "Stopping motor..."
		case vibration.StateFailed:
			msg = "Test failed, motors stopped."
		default:
			return
		}
		fmt.Fprintln(w, msg)
	})
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) printf(format string, args ...interface{}) {
	if w.err == nil {
		_, w.err = fmt.Fprintf(w.w, format, args...)
	}
}
