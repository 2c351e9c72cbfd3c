package usecase

import "time"

// pollBackoff produces the status-poll cadence: start at the configured
// interval, double up to the ceiling, stay there. Reset returns to the
// start interval when an observed state transition suggests the flow is in
// a fast-moving stage.
type pollBackoff struct {
	start   time.Duration
	max     time.Duration
	current time.Duration
}

func newPollBackoff(start, max time.Duration) *pollBackoff {
	if start <= 0 {
		start = 2 * time.Second
	}
	if max < start {
		max = start
	}
	return &pollBackoff{start: start, max: max, current: start}
}

// Next returns the interval to wait before the next poll and advances the
// schedule. Successive intervals are non-decreasing until the ceiling.
func (b *pollBackoff) Next() time.Duration {
	interval := b.current
	doubled := b.current * 2
	if doubled > b.max {
		doubled = b.max
	}
	b.current = doubled
	return interval
}

func (b *pollBackoff) Reset() {
	b.current = b.start
}
