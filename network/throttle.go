package network

import "time"

const (
	PollFast = 1 * time.Second
	PollSlow = 5 * time.Second
)

// Throttle limits how often an enumerator queries the OS. The first call to
// Ready always succeeds.
type Throttle struct {
	Fast time.Duration
	Slow time.Duration

	next time.Time
}

// NewThrottle returns a Throttle with the default intervals.
func NewThrottle() *Throttle {
	return &Throttle{Fast: PollFast, Slow: PollSlow}
}

// Ready reports whether the next poll is due at now.
func (t *Throttle) Ready(now time.Time) bool {
	return t.next.IsZero() || !now.Before(t.next)
}

// Schedule records a poll at now. The next one is due after the fast
// interval when fast is set, the slow interval otherwise.
func (t *Throttle) Schedule(now time.Time, fast bool) {
	interval := t.Slow
	if fast {
		interval = t.Fast
	}
	t.next = now.Add(interval)
}
