package sim

// Agent is anything the scheduler activates once per tick.
type Agent interface {
	Occupant
	Step()
}

// Fire is a spreading hazard. Each tick it inspects its Moore-1
// neighborhood, ignites flammable neighbors and seeds smoke where
// propagation is permitted.
type Fire struct {
	pos   Cell
	model *Model
}

// NewFire creates a fire agent; callers place it and add it to the schedule
// via Model.SpawnFire.
func NewFire(pos Cell, m *Model) *Fire {
	return &Fire{pos: pos, model: m}
}

func (f *Fire) Kind() Kind    { return KindFire }
func (f *Fire) Pos() Cell     { return f.pos }
func (f *Fire) setPos(c Cell) { f.pos = c }

// Step spreads the fire one ring.
func (f *Fire) Step() {
	m := f.model
	for _, c := range m.grid.Neighborhood(f.pos, true, 1, false) {
		if m.grid.HasKind(c, KindFire) {
			continue
		}
		// Ignite when some existing occupant there can burn.
		for _, o := range m.grid.Occupants(c) {
			if CapsFor(o.Kind()).Flammable {
				m.SpawnFire(c)
				break
			}
		}
		if m.grid.HasKind(c, KindFire) || m.grid.HasKind(c, KindSmoke) {
			continue
		}
		if cellPermitsSmoke(m.grid, c) {
			m.SpawnSmoke(c)
		}
	}
}

// Smoke is a passive hazard with a one-shot fan-out: its spread accumulator
// grows each tick and, once past the threshold, the instance seeds copies in
// its neighborhood exactly once and then stays inert.
type Smoke struct {
	pos    Cell
	model  *Model
	spread float64
	fanned bool
}

// NewSmoke creates a smoke agent; see Model.SpawnSmoke.
func NewSmoke(pos Cell, m *Model) *Smoke {
	return &Smoke{pos: pos, model: m}
}

func (s *Smoke) Kind() Kind    { return KindSmoke }
func (s *Smoke) Pos() Cell     { return s.pos }
func (s *Smoke) setPos(c Cell) { s.pos = c }

// Step accumulates spread and fans out once over the threshold.
func (s *Smoke) Step() {
	if s.fanned {
		return
	}
	s.spread += s.model.tuning.SmokeSpreadRate
	if s.spread < s.model.tuning.SmokeSpreadThreshold {
		return
	}
	s.fanned = true
	m := s.model
	for _, c := range m.grid.Neighborhood(s.pos, true, 1, false) {
		if m.grid.HasKind(c, KindFire) || m.grid.HasKind(c, KindSmoke) {
			continue
		}
		if cellPermitsSmoke(m.grid, c) {
			m.SpawnSmoke(c)
		}
	}
}

// cellPermitsSmoke reports whether every occupant of the cell lets smoke
// through. Empty cells always permit.
func cellPermitsSmoke(g *Grid, c Cell) bool {
	for _, o := range g.Occupants(c) {
		if !CapsFor(o.Kind()).SpreadsSmoke {
			return false
		}
	}
	return true
}
