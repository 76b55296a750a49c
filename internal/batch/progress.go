package batch

import "time"

// Progress tracks completed item durations for one batch and advises on time
// remaining. The estimate is the arithmetic mean over everything completed so
// far times the number of items left; purely advisory, printed after each
// item for interactive runs.
type Progress struct {
	durations []time.Duration
}

// Observe records the duration of one completed item.
func (p *Progress) Observe(d time.Duration) {
	p.durations = append(p.durations, d)
}

// Completed returns how many items have been observed.
func (p *Progress) Completed() int { return len(p.durations) }

// Average returns the arithmetic mean of all observed durations, or zero when
// nothing has completed yet.
func (p *Progress) Average() time.Duration {
	if len(p.durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range p.durations {
		sum += d
	}
	return sum / time.Duration(len(p.durations))
}

// Estimate returns the advisory time remaining for itemsLeft items.
func (p *Progress) Estimate(itemsLeft int) time.Duration {
	if itemsLeft <= 0 {
		return 0
	}
	return p.Average() * time.Duration(itemsLeft)
}
