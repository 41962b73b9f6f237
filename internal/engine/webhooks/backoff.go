package webhooks

import "time"

// Schedule maps an attempt count to a retry delay. The delay for attempt n is
// the n-th entry; attempts past the end reuse the last entry, so the schedule
// settles into a steady cadence for persistent outages.
type Schedule []time.Duration

// DefaultSchedule is front-loaded rather than purely exponential: fast retry
// for transient blips, then an hourly cadence until the attempt ceiling.
var DefaultSchedule = Schedule{
	30 * time.Second,
	2 * time.Minute,
	10 * time.Minute,
	time.Hour,
}

func (s Schedule) Delay(attempts int) time.Duration {
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s) {
		idx = len(s) - 1
	}
	return s[idx]
}
