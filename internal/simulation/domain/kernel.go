package domain

import "math"

// Simulation is the discrete-event kernel: one inventory container, one
// route, a set of orders in transit, and a per-day metrics record, advanced
// one virtual day at a time. A Simulation is single-use: Run executes it to
// completion and leaves the kernel in its terminal state.
type Simulation struct {
	cfg Config
	rng *Stream

	container *Container
	route     *Route
	orders    []Order

	totalReceived             float64
	lastTotalReceivedSnapshot float64
	totalDispatched           float64

	nextDisruptionArrival float64
	disruptionEnabled     bool

	days []DailyMetrics
}

// NewSimulation constructs a kernel instance. cfg must already have passed
// Validate(); the kernel does not re-validate.
func NewSimulation(cfg Config) *Simulation {
	s := &Simulation{
		cfg:       cfg,
		rng:       NewStream(cfg.Seed),
		container: NewContainer(cfg.CapacityTM, cfg.InitialInventoryTM),
		route:     NewRoute(),
		orders:    make([]Order, 0, MaxConcurrentOrders),
		days:      make([]DailyMetrics, 0, cfg.SimulationDays),
	}

	s.disruptionEnabled = cfg.DisruptionMaxDays > 0 && cfg.AnnualDisruptionRate > 0
	if s.disruptionEnabled {
		lambdaD := cfg.AnnualDisruptionRate / 365.0
		s.nextDisruptionArrival = s.rng.Exponential(1 / lambdaD)
	}

	return s
}

// Run advances the kernel across [0, T) and returns the finalized day-by-day
// metrics. It is the only entry point; a Simulation is not meant to be
// stepped externally.
func (s *Simulation) Run() []DailyMetrics {
	for k := 0; k < s.cfg.SimulationDays; k++ {
		now := float64(k)

		s.resolveDisruptionsThrough(now + 1)
		s.deliverDueOrders(now)

		demand := s.sampleDemand(k)
		satisfied := s.container.Take(demand)
		stockout := satisfied < demand

		routeBlocked := s.route.Observe(now) == Blocked

		autonomy := 0.0
		if demand > 0 {
			autonomy = s.container.Level() / demand
		}

		supplyToday := s.supplyReceivedToday(now)

		s.days = append(s.days, DailyMetrics{
			Day:            k,
			InventoryTM:    s.container.Level(),
			DemandTM:       demand,
			SatisfiedTM:    satisfied,
			SupplyReceived: supplyToday,
			Stockout:       stockout,
			RouteBlocked:   routeBlocked,
			PendingOrders:  len(s.orders),
			AutonomyDays:   autonomy,
		})

		s.totalDispatched += satisfied

		s.maybeReplenish(now)
	}

	s.route.Finalize(float64(s.cfg.SimulationDays))
	return s.days
}

// sampleDemand draws d_k = max(0, d-bar * sigma(k) * eps).
func (s *Simulation) sampleDemand(k int) float64 {
	sigma := 1.0
	if s.cfg.UseSeasonality {
		sigma = 1 + s.cfg.SeasonalAmplitude*math.Sin(2*math.Pi*(float64(k)-float64(s.cfg.SeasonalPeakDay))/365.0)
	}
	eps := s.rng.Normal(1, s.cfg.DemandVariability)
	d := s.cfg.BaseDailyDemandTM * sigma * eps
	if d < 0 {
		d = 0
	}
	return d
}

// maybeReplenish implements the (s,Q) check: if inventory position <= R,
// fewer than MaxConcurrentOrders are in transit, and the route is
// operational, place a dynamically-sized order.
func (s *Simulation) maybeReplenish(now float64) {
	position := s.container.Level()
	for _, o := range s.orders {
		position += o.Quantity
	}

	if position > s.cfg.ReorderPointTM {
		return
	}
	if len(s.orders) >= MaxConcurrentOrders {
		return
	}
	if s.route.Observe(now) != Operational {
		return
	}

	leadTime := s.route.LeadTime(now, s.cfg.NominalLeadTimeDays)
	quantity := s.cfg.BaseDailyDemandTM * leadTime * (1 + SafetyMargin)
	headroom := s.container.Headroom()
	if quantity > headroom {
		quantity = headroom
	}
	if quantity <= 0 {
		return
	}

	s.orders = append(s.orders, Order{
		Quantity:     quantity,
		LeadTimeDays: leadTime,
		CreatedDay:   now,
	})
}

// deliverDueOrders adds the quantity of every order whose delivery day has
// arrived to the container and removes it from transit.
func (s *Simulation) deliverDueOrders(now float64) {
	remaining := s.orders[:0]
	for _, o := range s.orders {
		if o.DeliveryDay() <= now {
			added := s.container.Put(o.Quantity)
			s.totalReceived += added
			continue
		}
		remaining = append(remaining, o)
	}
	s.orders = remaining
}

// supplyReceivedToday returns the quantity delivered since the previous call,
// i.e. this day's deliveries, by diffing against a running snapshot of
// totalReceived (deliverDueOrders has already folded today's arrivals into
// it by the time this runs).
func (s *Simulation) supplyReceivedToday(now float64) float64 {
	delta := s.totalReceived - s.lastTotalReceivedSnapshot
	s.lastTotalReceivedSnapshot = s.totalReceived
	return delta
}

// resolveDisruptionsThrough draws and applies every disruption arrival whose
// time falls before horizon, advancing the Poisson process one arrival at a
// time. Disabled entirely when the configuration has no disruption risk.
func (s *Simulation) resolveDisruptionsThrough(horizon float64) {
	if !s.disruptionEnabled {
		return
	}
	lambdaD := s.cfg.AnnualDisruptionRate / 365.0
	for s.nextDisruptionArrival < horizon {
		arrival := s.nextDisruptionArrival

		var duration float64
		if s.cfg.DisruptionMinDays == s.cfg.DisruptionModeDays && s.cfg.DisruptionModeDays == s.cfg.DisruptionMaxDays {
			duration = s.cfg.DisruptionMaxDays
		} else {
			duration = s.rng.Triangular(s.cfg.DisruptionMinDays, s.cfg.DisruptionModeDays, s.cfg.DisruptionMaxDays)
		}
		s.route.Block(arrival, duration)

		s.nextDisruptionArrival += s.rng.Exponential(1 / lambdaD)
	}
}

// TotalReceived returns cumulative supply received over the run so far.
func (s *Simulation) TotalReceived() float64 { return s.totalReceived }

// TotalDispatched returns cumulative demand satisfied over the run so far.
func (s *Simulation) TotalDispatched() float64 { return s.totalDispatched }

// FinalInventory returns the container level at the end of the run.
func (s *Simulation) FinalInventory() float64 { return s.container.Level() }

// TotalDisruptions returns the number of route blockages triggered.
func (s *Simulation) TotalDisruptions() int { return s.route.DisruptionCount() }

// TotalBlockedDays returns cumulative time the route spent blocked.
func (s *Simulation) TotalBlockedDays() float64 { return s.route.TotalBlockedDays() }
