package vibration

import "context"

// State is the phase of a test run.
type State int

// States
const (
	StateIdle State = iota
	StateCalibrating
	StateRamping
	StateMeasuring
	StateStopping
	StateReported
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateCalibrating: "calibrating",
	StateRamping:     "ramping",
	StateMeasuring:   "measuring",
	StateStopping:    "stopping",
	StateReported:    "reported",
	StateFailed:      "failed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// IsActive indicates motors may be spinning in this state.
func (s State) IsActive() bool {
	return s >= StateCalibrating && s <= StateStopping
}

// StateNotifier is called when the controller changes state.
type StateNotifier interface {
	StateChanged(context.Context, State)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, State)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state State) {
	f(ctx, state)
}

type notifierKey struct{}

// WithNotifier returns a context which makes Controller.Run report state
// changes to n, in addition to the controller's Notifier.
func WithNotifier(ctx context.Context, n StateNotifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

// NotifierFrom returns the notifier attached by WithNotifier, or nil.
func NotifierFrom(ctx context.Context) StateNotifier {
	n, _ := ctx.Value(notifierKey{}).(StateNotifier)
	return n
}
