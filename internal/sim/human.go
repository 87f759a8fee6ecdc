package sim

import (
	"fmt"
	"math"
)

// Mobility is an agent's movement-capability state.
type Mobility int

const (
	MobilityNormal Mobility = iota
	MobilityPanic
	MobilityIncapacitated
)

func (m Mobility) String() string {
	switch m {
	case MobilityNormal:
		return "normal"
	case MobilityPanic:
		return "panic"
	case MobilityIncapacitated:
		return "incapacitated"
	default:
		return "unknown"
	}
}

// Status is an agent's survival state.
type Status int

const (
	StatusAlive Status = iota
	StatusDead
	StatusEscaped
)

func (s Status) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusDead:
		return "dead"
	case StatusEscaped:
		return "escaped"
	default:
		return "unknown"
	}
}

// Action is a planned act to perform on reaching the planned target.
type Action int

const (
	ActionNone Action = iota
	ActionPhysical
	ActionMorale
	ActionVerbal
	ActionRetreat
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionPhysical:
		return "physical_support"
	case ActionMorale:
		return "morale_support"
	case ActionVerbal:
		return "verbal_support"
	case ActionRetreat:
		return "retreat"
	default:
		return "unknown"
	}
}

// planTarget is the agent's current destination. When agent is non-nil the
// destination follows that agent's position tick to tick.
type planTarget struct {
	agent *Human
	cell  Cell
}

// Human is the principal stateful agent: it perceives the grid, updates its
// cognitive state, plans a target and moves toward it each tick.
type Human struct {
	id    int
	label string
	pos   Cell
	model *Model

	health float64 // [0,1]
	speed  float64 // graph steps per tick, floored at 0
	shock  float64 // [0,1]

	vision      int
	nervousness int // fixed per agent, shapes panic score
	experience  int // fixed per agent, shapes panic score and morale rescue

	status        Status
	mobility      Mobility
	moraleBoost   bool // sticky: permanently exits panic behaviour
	believesAlarm bool
	collaborates  bool

	knowledge  float64
	knownTiles map[Cell][]Kind
	visited    map[Cell]bool

	plannedTarget *planTarget
	plannedAction Action

	verbalCount   int
	moraleCount   int
	physicalCount int

	visible  []VisibleCell // last vision scan, valid within the current step
	thoughts *ThoughtLog
}

// NewHuman creates a human agent. Callers place it on the grid and register
// it with the schedule via Model.AddHuman.
func NewHuman(id int, pos Cell, speed float64, vision, nervousness, experience int, collaborates bool, m *Model) *Human {
	return &Human{
		id:           id,
		label:        fmt.Sprintf("H%d", id),
		pos:          pos,
		model:        m,
		health:       1.0,
		speed:        speed,
		vision:       vision,
		nervousness:  nervousness,
		experience:   experience,
		collaborates: collaborates,
		knownTiles:   make(map[Cell][]Kind),
		visited:      map[Cell]bool{pos: true},
		thoughts:     NewThoughtLog(),
	}
}

func (h *Human) Kind() Kind    { return KindHuman }
func (h *Human) Pos() Cell     { return h.pos }
func (h *Human) setPos(c Cell) { h.pos = c }

// ID returns the agent's unique identifier.
func (h *Human) ID() int { return h.id }

// Label returns the short display label, e.g. "H3".
func (h *Human) Label() string { return h.label }

// Status returns the agent's survival state.
func (h *Human) Status() Status { return h.status }

// Mobility returns the agent's movement-capability state.
func (h *Human) Mobility() Mobility { return h.mobility }

// Health returns current health in [0,1].
func (h *Human) Health() float64 { return h.health }

// Speed returns current speed in graph steps per tick.
func (h *Human) Speed() float64 { return h.speed }

// Knowledge returns the learned fraction of the grid (capped at 1 for
// gating purposes).
func (h *Human) Knowledge() float64 { return h.knowledge }

// BelievesAlarm reports whether the agent acts on the fire alarm.
func (h *Human) BelievesAlarm() bool { return h.believesAlarm }

// CollabCounts returns (verbal, morale, physical) collaboration totals.
func (h *Human) CollabCounts() (verbal, morale, physical int) {
	return h.verbalCount, h.moraleCount, h.physicalCount
}

// Thoughts exposes the agent's decision ring buffer.
func (h *Human) Thoughts() *ThoughtLog { return h.thoughts }

// Step runs the agent's full per-tick sequence: hazard contact, perception,
// panic/shock, learning, planning, movement, escape check.
func (h *Human) Step() {
	if h.status != StatusAlive {
		return
	}

	h.hazardContact()
	if h.status != StatusAlive || h.mobility == MobilityIncapacitated {
		return
	}

	h.visible = h.model.ComputeVisible(h.pos, h.vision)
	if h.model.visualiseVision {
		h.model.emitSight(h.visible)
	}

	h.updatePanic()
	if h.status != StatusAlive || h.mobility == MobilityIncapacitated {
		return
	}

	h.learnEnvironment()

	if h.model.fireStarted && h.believesAlarm {
		h.plan()
		h.move()
		if h.status != StatusAlive {
			return
		}
		h.checkEscape()
	}
}

// hazardContact applies fire and smoke damage from the Moore-1 neighborhood
// (own cell included), then resolves death and incapacitation.
func (h *Human) hazardContact() {
	t := h.model.tuning
	for _, c := range h.model.grid.Neighborhood(h.pos, true, 1, true) {
		for _, o := range h.model.grid.Occupants(c) {
			switch o.Kind() {
			case KindFire:
				h.health -= t.FireHealthDamage
				h.speed -= t.FireSpeedDamage
			case KindSmoke:
				h.health -= t.SmokeHealthDamage
				if h.health < t.SlowdownThreshold {
					h.speed -= t.SmokeSpeedDamage
				}
			}
		}
	}
	if h.health < 0 {
		h.health = 0
	}
	if h.speed < 0 {
		h.speed = 0
	}

	if h.health == 0 {
		h.die()
		return
	}
	if h.speed == 0 && h.mobility != MobilityIncapacitated {
		h.incapacitate()
	}
}

// PanicScore derives the panic scalar from health, experience, nervousness
// and shock: the mean of 1/exp(health/nervousness), 1/exp(experience/
// nervousness) and shock.
func (h *Human) PanicScore() float64 {
	n := float64(h.nervousness)
	healthComponent := 1.0 / math.Exp(h.health/n)
	experienceComponent := 1.0 / math.Exp(float64(h.experience)/n)
	return (healthComponent + experienceComponent + h.shock) / 3.0
}

// updatePanic accumulates shock from the current view, flips alarm belief
// when shock rises, and drives the NORMAL/PANIC mobility transitions.
// Agents with a permanent morale boost skip the whole rule.
func (h *Human) updatePanic() {
	if h.moraleBoost {
		return
	}
	t := h.model.tuning

	delta := -t.ShockDecay
	for _, vc := range h.visible {
		for _, o := range vc.Occupants {
			switch o.Kind() {
			// KindSmoke never actually lands here: a smoke cell's own
			// occlusion unit hides it from the visible set.
			case KindFire, KindSmoke, KindDeadHuman:
				delta += t.ShockIncrement
			case KindHuman:
				if other := o.(*Human); other != h && other.mobility != MobilityNormal {
					delta += t.ShockIncrement
				}
			}
		}
	}

	before := h.shock
	h.shock = clamp01(h.shock + delta)
	if h.shock > before && !h.believesAlarm {
		h.believesAlarm = true
		h.thoughts.Add(h.model.tick, h.label, "now believes the alarm")
		h.model.log(h.label, "state", "believes_alarm", "shock rose", h.shock)
	}

	score := h.PanicScore()
	switch {
	case score >= t.PanicThreshold && h.mobility == MobilityNormal:
		h.enterPanic()
	case score < t.PanicThreshold && h.mobility == MobilityPanic:
		h.mobility = MobilityNormal
		h.thoughts.Add(h.model.tick, h.label, "calmed down")
	}

	// Faint check: a hard-panicking agent may collapse outright.
	if h.mobility == MobilityPanic && score > t.FaintThreshold {
		if h.model.rng.Float64() < score {
			h.thoughts.Add(h.model.tick, h.label, "fainted from panic")
			h.incapacitate()
		}
	}
}

// enterPanic is the explicit PANIC-entry transition: the agent drops
// whoever it carries and loses its situational awareness.
func (h *Human) enterPanic() {
	h.mobility = MobilityPanic
	h.model.dropCarried(h)
	h.knownTiles = make(map[Cell][]Kind)
	h.knowledge = 0
	h.thoughts.Add(h.model.tick, h.label, "panicking")
	h.model.log(h.label, "mobility", "panic_enter", "", h.PanicScore())
}

// learnEnvironment merges the current view into the agent's private map,
// growing knowledge by the newly seen fraction of the grid. Learning stops
// once the grid is fully known.
func (h *Human) learnEnvironment() {
	if h.knowledge >= 1 {
		return
	}
	newTiles := 0
	for _, vc := range h.visible {
		if _, known := h.knownTiles[vc.Cell]; !known {
			newTiles++
		}
		kinds := make([]Kind, len(vc.Occupants))
		for i, o := range vc.Occupants {
			kinds[i] = o.Kind()
		}
		h.knownTiles[vc.Cell] = kinds
	}
	total := h.model.grid.Width() * h.model.grid.Height()
	h.knowledge += float64(newTiles) / float64(total)
}

// die replaces the agent with a dead-human marker and removes it from the
// simulation. Any carried agent is dropped first.
func (h *Human) die() {
	h.model.dropCarried(h)
	h.status = StatusDead
	pos := h.pos
	h.model.removeHuman(h)
	h.model.placeDeadMarker(pos)
	h.model.log(h.label, "state", "death", pos.String(), 0)
}

// incapacitate marks the agent immobile. Its cell becomes traversable by
// others, see Traversable. External morale support may still rescue it.
func (h *Human) incapacitate() {
	h.model.dropCarried(h)
	h.mobility = MobilityIncapacitated
	h.clearPlan()
	h.model.log(h.label, "mobility", "incapacitated", h.pos.String(), 0)
}

// checkEscape resolves arrival on a fire-exit cell: the agent (and anyone
// it carries) leaves the simulation as ESCAPED.
func (h *Human) checkEscape() {
	if !h.model.fireStarted || !h.model.grid.HasKind(h.pos, KindFireExit) {
		return
	}
	if carried := h.model.Carrying(h); carried != nil {
		h.model.dropCarried(h)
		carried.status = StatusEscaped
		h.model.removeHuman(carried)
		h.model.log(carried.label, "state", "escaped", "carried out", 0)
	}
	h.status = StatusEscaped
	h.model.removeHuman(h)
	h.model.log(h.label, "state", "escaped", h.pos.String(), 0)
}

func (h *Human) clearPlan() {
	h.plannedTarget = nil
	h.plannedAction = ActionNone
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// String renders a cell as "(x,y)".
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}
