package sim

import (
	"math"
	"sort"
)

// plan decides the agent's target and optional action for this tick. It is
// only invoked while the agent believes a fire is occurring.
func (h *Human) plan() {
	h.refreshPlan()

	if h.plannedTarget == nil && h.plannedAction == ActionNone {
		h.attemptExitPlan()
	}

	if h.mobility == MobilityNormal && h.collaborates && h.model.Carrying(h) == nil {
		h.checkForCollaboration()
	}

	if h.mobility == MobilityPanic {
		// Panic overrides whatever was planned with a fresh random dash.
		h.setRandomTarget(false)
		return
	}

	if h.plannedTarget == nil {
		h.setRandomTarget(false)
	}
}

// refreshPlan tracks a moving target agent and prunes plans whose action is
// no longer valid. Retreat plans are never invalidated here.
func (h *Human) refreshPlan() {
	if h.plannedTarget == nil {
		if h.plannedAction != ActionRetreat {
			h.plannedAction = ActionNone
		}
		return
	}

	t := h.plannedTarget.agent
	if t == nil {
		// Static cell target: only support actions require a tracked agent.
		switch h.plannedAction {
		case ActionMorale, ActionPhysical, ActionVerbal:
			h.clearPlan()
		}
		return
	}

	switch h.plannedAction {
	case ActionMorale:
		if t.status != StatusAlive || t.mobility != MobilityPanic {
			h.clearPlan()
			return
		}
	case ActionPhysical:
		if t.status != StatusAlive || t.mobility != MobilityIncapacitated || h.model.CarrierOf(t) != nil {
			h.clearPlan()
			return
		}
	case ActionRetreat:
	default:
		h.clearPlan()
		return
	}
	h.plannedTarget.cell = t.pos
}

// attemptExitPlan targets the nearest known fire exit; failing that, a
// visible unvisited door; failing that, a random known tile (preferring
// unvisited ones).
func (h *Human) attemptExitPlan() {
	var exits []Cell
	for c, kinds := range h.knownTiles {
		if containsKind(kinds, KindFireExit) {
			exits = append(exits, c)
		}
	}
	if len(exits) > 0 {
		// Nearest by rasterized-line length, not true graph distance. Sorted
		// so equal distances break deterministically.
		sort.Slice(exits, func(i, j int) bool {
			di, dj := TraceDist(h.pos, exits[i]), TraceDist(h.pos, exits[j])
			if di != dj {
				return di < dj
			}
			if exits[i].Y != exits[j].Y {
				return exits[i].Y < exits[j].Y
			}
			return exits[i].X < exits[j].X
		})
		h.plannedTarget = &planTarget{cell: exits[0]}
		h.thoughts.Add(h.model.tick, h.label, "heading for exit "+exits[0].String())
		h.model.log(h.label, "plan", "exit_target", exits[0].String(), 0)
		return
	}

	for _, vc := range h.visible {
		if h.visited[vc.Cell] {
			continue
		}
		for _, o := range vc.Occupants {
			if o.Kind() == KindDoor {
				h.plannedTarget = &planTarget{cell: vc.Cell}
				h.thoughts.Add(h.model.tick, h.label, "trying door "+vc.Cell.String())
				h.model.log(h.label, "plan", "door_target", vc.Cell.String(), 0)
				return
			}
		}
	}

	h.setRandomTarget(true)
}

// checkForCollaboration rolls the stochastic gate and, if it passes, plans
// help for the first incapacitated or panicking human in view, or shouts a
// visible exit's location to everyone nearby.
func (h *Human) checkForCollaboration() {
	prior := h.verbalCount + h.moraleCount + h.physicalCount
	component := 1.0 / math.Exp(1.0/float64(prior+1))
	cost := (component + h.PanicScore()) / 2.0
	if h.model.rng.Float64() <= cost {
		return
	}

	var panicking *Human
	var exitCell *Cell
	for _, vc := range h.visible {
		for _, o := range vc.Occupants {
			switch o.Kind() {
			case KindHuman:
				other := o.(*Human)
				if other == h || other.status != StatusAlive {
					continue
				}
				if other.mobility == MobilityIncapacitated && h.model.CarrierOf(other) == nil {
					h.plannedTarget = &planTarget{agent: other, cell: other.pos}
					h.plannedAction = ActionPhysical
					h.thoughts.Add(h.model.tick, h.label, "going to carry "+other.label)
					h.model.log(h.label, "collab", "physical_plan", other.label, 0)
					return
				}
				if panicking == nil && other.mobility == MobilityPanic {
					panicking = other
				}
			case KindFireExit:
				if exitCell == nil {
					c := vc.Cell
					exitCell = &c
				}
			}
		}
	}

	if panicking != nil {
		h.plannedTarget = &planTarget{agent: panicking, cell: panicking.pos}
		h.plannedAction = ActionMorale
		h.thoughts.Add(h.model.tick, h.label, "going to calm "+panicking.label)
		h.model.log(h.label, "collab", "morale_plan", panicking.label, 0)
		return
	}

	if exitCell != nil {
		h.broadcastExit(*exitCell)
	}
}

// broadcastExit is verbal support: every visible NORMAL human learns the
// exit's location and starts believing the alarm. Their own active plans
// are left untouched.
func (h *Human) broadcastExit(exit Cell) {
	informed := 0
	for _, vc := range h.visible {
		for _, o := range vc.Occupants {
			if o.Kind() != KindHuman {
				continue
			}
			other := o.(*Human)
			if other == h || other.status != StatusAlive || other.mobility != MobilityNormal {
				continue
			}
			other.believesAlarm = true
			if !containsKind(other.knownTiles[exit], KindFireExit) {
				other.knownTiles[exit] = append(other.knownTiles[exit], KindFireExit)
			}
			informed++
		}
	}
	if informed > 0 {
		h.verbalCount++
		h.thoughts.Add(h.model.tick, h.label, "shouted exit location "+exit.String())
		h.model.log(h.label, "collab", "verbal", exit.String(), float64(informed))
	}
}

// setRandomTarget picks a uniformly random known, reachable cell (excluding
// the current position). With preferUnvisited, unvisited candidates win
// when any exist.
func (h *Human) setRandomTarget(preferUnvisited bool) {
	reachable := h.model.graph.ReachableSet(h.pos)

	var all, unvisited []Cell
	for c := range h.knownTiles {
		if c == h.pos || !reachable[c] {
			continue
		}
		all = append(all, c)
		if !h.visited[c] {
			unvisited = append(unvisited, c)
		}
	}

	pool := all
	if preferUnvisited && len(unvisited) > 0 {
		pool = unvisited
	}
	if len(pool) == 0 {
		h.clearPlan()
		return
	}
	// Stable order before sampling keeps runs reproducible for a fixed seed.
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Y != pool[j].Y {
			return pool[i].Y < pool[j].Y
		}
		return pool[i].X < pool[j].X
	})
	pick := pool[h.model.rng.Intn(len(pool))]
	h.plannedTarget = &planTarget{cell: pick}
	if h.plannedAction != ActionRetreat {
		h.plannedAction = ActionNone
	}
	h.model.log(h.label, "plan", "random_target", pick.String(), 0)
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, cur := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}
