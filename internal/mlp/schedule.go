package mlp

import (
	"fmt"
	"slices"
)

var defaultCheckpoints = []int{5, 10, 50, 100, 500, 1000, 1500, 3000, 5000, 7500, 10000, 15000, 30000, 35000, 50000}

// Schedule decides at which training steps the held-out set is evaluated.
//
// A Schedule is either an explicit list of strictly increasing steps or a
// uniform interval. Steps are 1-based: step k is the k-th training example.
// Once an explicit list is exhausted no further evaluations run. The zero
// Schedule never fires.
type Schedule struct {
	steps []int
	every int
}

// DefaultSchedule returns the logarithmic-ish schedule
// 5, 10, 50, 100, 500, 1000, 1500, 3000, 5000, 7500, 10000, 15000, 30000, 35000, 50000.
func DefaultSchedule() Schedule {
	return Schedule{steps: slices.Clone(defaultCheckpoints)}
}

// NewSchedule builds an explicit schedule. Steps must be positive and
// strictly increasing.
func NewSchedule(steps ...int) (Schedule, error) {
	for i, s := range steps {
		if s <= 0 {
			return Schedule{}, &ConfigError{Field: "Schedule", Reason: fmt.Sprintf("step %d is not positive", s)}
		}
		if i > 0 && s <= steps[i-1] {
			return Schedule{}, &ConfigError{Field: "Schedule", Reason: fmt.Sprintf("step %d does not follow %d", s, steps[i-1])}
		}
	}
	return Schedule{steps: slices.Clone(steps)}, nil
}

// Every builds a schedule firing at every multiple of n.
func Every(n int) (Schedule, error) {
	if n <= 0 {
		return Schedule{}, &ConfigError{Field: "Schedule", Reason: fmt.Sprintf("interval must be > 0 (got %d)", n)}
	}
	return Schedule{every: n}, nil
}

// Steps returns the explicit steps, or nil for an interval schedule.
func (s Schedule) Steps() []int {
	return slices.Clone(s.steps)
}

// Interval returns the interval, or 0 for an explicit schedule.
func (s Schedule) Interval() int {
	return s.every
}

// Count returns how many evaluations fire during a run of the given length.
func (s Schedule) Count(epochs int) int {
	if s.every > 0 {
		return epochs / s.every
	}
	n := 0
	for _, step := range s.steps {
		if step <= epochs {
			n++
		}
	}
	return n
}

func (s Schedule) cursor() *scheduleCursor {
	return &scheduleCursor{schedule: s}
}

// scheduleCursor walks a Schedule during one Fit call.
type scheduleCursor struct {
	schedule Schedule
	next     int
}

// due reports whether step fires and advances past it.
func (c *scheduleCursor) due(step int) bool {
	if c.schedule.every > 0 {
		return step%c.schedule.every == 0
	}
	if c.next >= len(c.schedule.steps) {
		return false
	}
	if c.schedule.steps[c.next] != step {
		return false
	}
	c.next++
	return true
}
