package reactor

import "time"

// Timer is the other host-integration point: a source of "fires after
// duration D" primitives, so the core never depends on a particular async
// runtime's sleep/delay implementation.
type Timer interface {
	// Delay returns a channel that receives once after d has elapsed.
	Delay(d time.Duration) <-chan time.Time
}

// stdTimer is the default Timer, backed by the standard library's
// time.After. A real host scheduler with its own timer wheel can supply
// its own Timer implementation instead.
type stdTimer struct{}

func (stdTimer) Delay(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// DefaultTimer is the Timer used by New when none is supplied via
// WithTimer.
var DefaultTimer Timer = stdTimer{}
