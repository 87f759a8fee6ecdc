package sim

// maxMoveRetries bounds the prune-and-retry loop within one tick. Each
// retry either excludes a cell or swaps the plan, so the bound is only a
// backstop against degenerate retreat ping-pong.
const maxMoveRetries = 16

// move advances the agent up to speed graph-steps toward its planned
// target, respecting hazards and obstacles. Pathing runs over the shared
// graph with a transient exclusion overlay; the canonical graph is never
// mutated.
func (h *Human) move() {
	if h.plannedTarget == nil {
		return
	}

	excluded := map[Cell]bool{}
	for attempt := 0; attempt < maxMoveRetries; attempt++ {
		target := h.plannedTarget.cell

		var path []Cell
		if h.model.cellFree(target) {
			path = h.model.graph.ShortestPath(h.pos, target, excluded)
		} else {
			path = h.model.graph.ShortestPathNextTo(h.pos, target, excluded)
		}
		if path == nil {
			h.model.log(h.label, "move", "path_fail", target.String(), 0)
			h.clearPlan()
			return
		}
		if len(path) == 0 {
			panic("sim: pathfinder returned an empty path")
		}
		if len(path) == 1 {
			// Already there (or adjacent to the tracked agent).
			h.arrive()
			return
		}

		steps := int(h.speed)
		if steps < 1 {
			return
		}
		if steps > len(path)-1 {
			steps = len(path) - 1
		}
		next := path[steps]
		sub := path[1 : steps+1]

		// Retreat: a visible hazard on this tick's walk aborts the advance
		// and targets the mirror cell behind the agent instead.
		if hz, found := h.visibleHazardOn(sub); found {
			mirror := Cell{X: 2*h.pos.X - next.X, Y: 2*h.pos.Y - next.Y}
			h.model.log(h.label, "move", "retreat", "hazard at "+hz.String(), 0)
			h.thoughts.Add(h.model.tick, h.label, "retreating from "+hz.String())
			if h.model.grid.OutOfBounds(mirror) || h.model.cellHazardous(mirror) {
				h.setRandomTarget(false)
				if h.plannedTarget == nil {
					return
				}
			} else {
				h.plannedTarget = &planTarget{cell: mirror}
				h.plannedAction = ActionRetreat
			}
			continue
		}

		if h.model.cellFree(next) {
			h.stepTo(next)
			if next == target {
				h.arrive()
			}
			return
		}

		// Blocked by an occupant. A sufficiently panicked mover shoves a
		// mobile human out of the way and takes the vacated cell.
		if blocker := h.model.blockingHuman(next); blocker != nil && blocker.mobility != MobilityIncapacitated {
			if h.mobility == MobilityPanic || h.PanicScore() >= h.model.tuning.PushThreshold {
				if h.model.push(h, blocker) {
					h.stepTo(next)
					if next == target {
						h.arrive()
					}
					return
				}
			}
		}

		// Genuinely blocked: prune the cell for the rest of this tick.
		if next == path[len(path)-1] {
			h.clearPlan()
			return
		}
		excluded[next] = true
	}
	h.clearPlan()
}

// visibleHazardOn returns the first hazard cell on the sub-path that the
// agent can currently see. Fire always counts; smoke only while no action
// is planned (an agent en route to help or retreating pushes through smoke).
func (h *Human) visibleHazardOn(sub []Cell) (Cell, bool) {
	visible := make(map[Cell]bool, len(h.visible))
	for _, vc := range h.visible {
		visible[vc.Cell] = true
	}
	for _, c := range sub {
		if !visible[c] {
			continue
		}
		if h.model.grid.HasKind(c, KindFire) {
			return c, true
		}
		if h.plannedAction == ActionNone && h.model.grid.HasKind(c, KindSmoke) {
			return c, true
		}
	}
	return Cell{}, false
}

// stepTo relocates the agent, records the visit, and drags any carried
// agent into the vacated cell. A carried agent that died in the meantime is
// dropped instead.
func (h *Human) stepTo(next Cell) {
	vacated := h.pos
	h.model.grid.Move(h, next)
	h.visited[next] = true

	if carried := h.model.Carrying(h); carried != nil {
		if carried.status != StatusAlive {
			h.model.dropCarried(h)
			return
		}
		h.model.grid.Move(carried, vacated)
	}
}

// arrive executes the planned action exactly once and clears the plan.
func (h *Human) arrive() {
	action := h.plannedAction
	var target *Human
	if h.plannedTarget != nil {
		target = h.plannedTarget.agent
	}
	h.clearPlan()

	switch action {
	case ActionPhysical:
		if target == nil || target.status != StatusAlive || target.mobility != MobilityIncapacitated {
			return
		}
		if h.model.CarrierOf(target) != nil {
			return
		}
		h.model.beginCarry(h, target)
		h.physicalCount++
		h.thoughts.Add(h.model.tick, h.label, "picked up "+target.label)
		h.model.log(h.label, "collab", "physical", target.label, 0)

	case ActionMorale:
		if target == nil || target.status != StatusAlive {
			return
		}
		// Success odds scale with the target's own experience; a boosted
		// agent never panics again.
		p := float64(target.experience) / float64(h.model.tuning.MaxExperience)
		if h.model.rng.Float64() < p {
			target.moraleBoost = true
			target.mobility = MobilityNormal
			target.thoughts.Add(h.model.tick, target.label, "calmed by "+h.label)
			h.model.log(h.label, "collab", "morale_success", target.label, p)
		} else {
			h.model.log(h.label, "collab", "morale_fail", target.label, p)
		}
		h.moraleCount++
	}
}
