package schedule

import (
	"context"
	"time"
)

// Clock abstracts the scheduler's two timing needs, the yield between
// classification groups and the debounce timer, so tests can drive both
// without wall-clock waits.
type Clock interface {
	// Sleep pauses for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error

	// NewTimer returns a timer that fires once after d.
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Stop releases the timer. It is safe to call after firing.
	Stop()
}

// realClock implements Clock with the time package.
type realClock struct{}

// RealClock returns the wall-clock implementation.
func RealClock() Clock {
	return realClock{}
}

// Sleep implements Clock.
func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewTimer implements Clock.
func (realClock) NewTimer(d time.Duration) Timer {
	return realTimer{timer: time.NewTimer(d)}
}

// realTimer wraps time.Timer.
type realTimer struct {
	timer *time.Timer
}

// C implements Timer.
func (t realTimer) C() <-chan time.Time {
	return t.timer.C
}

// Stop implements Timer.
func (t realTimer) Stop() {
	t.timer.Stop()
}
