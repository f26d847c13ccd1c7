package domain

// RouteState is the observable state of the single supply route.
type RouteState int

const (
	Operational RouteState = iota
	Blocked
)

// Route models the Markov-modulated blocking process. Its Blocked state is
// recomputed lazily: any observation at or after unblockAt transitions it
// back to Operational, so the state machine never needs a background timer.
type Route struct {
	state            RouteState
	unblockAt        float64
	disruptionCount  int
	totalBlockedDays float64
	lastBlockStart   float64
}

// NewRoute starts the route Operational.
func NewRoute() *Route {
	return &Route{state: Operational}
}

// Observe resolves any elapsed blockage as of now and returns the resulting
// state. Every read of route state must go through Observe so a stale
// Blocked flag is never reported past its unblock time.
func (r *Route) Observe(now float64) RouteState {
	if r.state == Blocked && now >= r.unblockAt {
		r.totalBlockedDays += r.unblockAt - r.lastBlockStart
		r.state = Operational
	}
	return r.state
}

// Block transitions the route to Blocked for duration d starting at now.
// A block issued while already blocked extends unblockAt if the new window
// runs later (disruptions are independent Poisson arrivals and are not
// expected to overlap in practice, but the method stays well-defined if they
// do).
func (r *Route) Block(now, d float64) {
	r.Observe(now)
	newUnblock := now + d
	if r.state == Blocked {
		if newUnblock > r.unblockAt {
			r.unblockAt = newUnblock
		}
	} else {
		r.state = Blocked
		r.unblockAt = newUnblock
		r.lastBlockStart = now
	}
	r.disruptionCount++
}

// LeadTime returns the effective lead time for an order placed at now: the
// nominal lead time when operational, or the nominal lead time plus the
// remaining blockage when blocked.
func (r *Route) LeadTime(now, nominal float64) float64 {
	if r.Observe(now) == Operational {
		return nominal
	}
	remaining := r.unblockAt - now
	if remaining < 0 {
		remaining = 0
	}
	return nominal + remaining
}

// DisruptionCount returns the total number of Block calls so far.
func (r *Route) DisruptionCount() int {
	return r.disruptionCount
}

// TotalBlockedDays returns cumulative blocked duration resolved so far. Call
// Finalize at the end of the run to flush an in-progress block.
func (r *Route) TotalBlockedDays() float64 {
	return r.totalBlockedDays
}

// Finalize resolves any still-open blockage as of the simulation horizon end
// so TotalBlockedDays reflects time blocked up to the end of the run even
// if the route never naturally unblocked within the horizon.
func (r *Route) Finalize(end float64) {
	if r.state == Blocked {
		stop := end
		if r.unblockAt < stop {
			stop = r.unblockAt
		}
		r.totalBlockedDays += stop - r.lastBlockStart
		r.lastBlockStart = stop
	}
}
