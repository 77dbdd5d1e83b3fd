package planner

import "time"

// Timeline tracks the instant each machine becomes free.
type Timeline struct {
	free map[string]time.Time
}

func NewTimeline(machines []string, start time.Time) *Timeline {
	free := make(map[string]time.Time, len(machines))
	for _, m := range machines {
		free[m] = start
	}
	return &Timeline{free: free}
}

// AvailableAt returns when machine is next free. Unregistered machines are
// treated as free from the zero time.
func (t *Timeline) AvailableAt(machine string) time.Time {
	return t.free[machine]
}

// Advance moves the machine's free instant forward to at. Earlier instants are ignored.
func (t *Timeline) Advance(machine string, at time.Time) {
	if at.After(t.free[machine]) {
		t.free[machine] = at
	}
}
