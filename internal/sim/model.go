package sim

import (
	"fmt"
	"log/slog"
	"math/rand"
)

// Model owns the shared simulation state: the grid, the traversability
// graph, the schedule, and the carry relation between humans. One Model is
// one run.
type Model struct {
	grid   *Grid
	graph  *NavGraph
	rng    *rand.Rand
	tuning Tuning

	agents []Agent
	humans []*Human

	// carrier → carried. The relation is owned here, never mirrored as
	// flags on the agents, so it cannot desynchronize.
	carries map[*Human]*Human

	fireStarted     bool
	visualiseVision bool
	sightMarkers    []*Floor

	tick    int
	running bool
	nextID  int

	simLog *SimLog

	spawnCells []Cell
	exits      []Cell

	fireProbability float64
}

// ModelOption configures a Model at construction.
type ModelOption func(*Model)

// WithTuning overrides the default tuning constants.
func WithTuning(t Tuning) ModelOption {
	return func(m *Model) { m.tuning = t }
}

// WithRNG sets the model's random source. Every stochastic decision in the
// run draws from it, so a fixed seed fixes the run.
func WithRNG(rng *rand.Rand) ModelOption {
	return func(m *Model) { m.rng = rng }
}

// WithFireProbability sets the chance that a fire ignites at
// Tuning.FireStartTick. Outside [0,1] values are clamped.
func WithFireProbability(p float64) ModelOption {
	return func(m *Model) { m.fireProbability = clamp01(p) }
}

// WithVisionMarkers makes the visibility engine drop transient Sight
// markers for display. Purely cosmetic.
func WithVisionMarkers(on bool) ModelOption {
	return func(m *Model) { m.visualiseVision = on }
}

// WithVerboseLog records per-tick verbose SimLog entries.
func WithVerboseLog(v bool) ModelOption {
	return func(m *Model) { m.simLog = NewSimLog(v) }
}

// NewModel builds a model from a parsed floorplan and spawns humanCount
// randomized humans on spawn cells (falling back to any empty cell).
// collaborationRate is the fraction of humans that attempt collaborative
// actions.
func NewModel(fp *Floorplan, humanCount int, collaborationRate float64, opts ...ModelOption) *Model {
	m := &Model{
		grid:            NewGrid(fp.Width, fp.Height),
		tuning:          DefaultTuning(),
		rng:             rand.New(rand.NewSource(1)), // #nosec G404 -- simulation, not crypto
		carries:         make(map[*Human]*Human),
		simLog:          NewSimLog(false),
		running:         true,
		fireProbability: 1.0,
	}
	for _, o := range opts {
		o(m)
	}

	for _, pl := range fp.Placements {
		f := NewFloor(pl.Kind, pl.Cell)
		m.grid.Place(f, pl.Cell)
		if pl.Kind == KindFireExit {
			m.exits = append(m.exits, pl.Cell)
		}
	}
	m.spawnCells = append(m.spawnCells, fp.Spawns...)
	m.graph = BuildNavGraph(m.grid)

	for i := 0; i < humanCount; i++ {
		collaborates := m.rng.Float64() < collaborationRate
		if _, ok := m.spawnHuman(collaborates); !ok {
			// Resource exhaustion: skip the agent and keep going.
			slog.Warn("no empty cell to spawn human", "wanted", humanCount, "spawned", i)
			m.log("--", "model", "spawn_skipped", fmt.Sprintf("%d of %d placed", i, humanCount), 0)
			break
		}
	}
	return m
}

// spawnHuman creates one randomized human on a free spawn cell, or any
// empty cell when the floorplan has no free spawn markers left.
func (m *Model) spawnHuman(collaborates bool) (*Human, bool) {
	pos, ok := m.pickSpawnCell()
	if !ok {
		return nil, false
	}
	t := m.tuning
	speed := float64(randBetween(m.rng, t.MinSpeed, t.MaxSpeed))
	vision := randBetween(m.rng, t.MinVision, t.MaxVision)
	nervousness := randBetween(m.rng, t.MinNervousness, t.MaxNervousness)
	experience := randBetween(m.rng, t.MinExperience, t.MaxExperience)

	h := NewHuman(m.nextID, pos, speed, vision, nervousness, experience, collaborates, m)
	m.nextID++
	m.AddHuman(h, pos)
	return h, true
}

func (m *Model) pickSpawnCell() (Cell, bool) {
	var free []Cell
	for _, c := range m.spawnCells {
		if !m.grid.HasKind(c, KindHuman) {
			free = append(free, c)
		}
	}
	if len(free) > 0 {
		return free[m.rng.Intn(len(free))], true
	}
	return m.grid.FindEmpty(m.rng)
}

// AddHuman places an already-constructed human and registers it with the
// schedule. Exposed for the test harness.
func (m *Model) AddHuman(h *Human, pos Cell) {
	m.grid.Place(h, pos)
	m.humans = append(m.humans, h)
	m.agents = append(m.agents, h)
	if h.id >= m.nextID {
		m.nextID = h.id + 1
	}
}

// SpawnFire places a fire agent and marks the run as burning.
func (m *Model) SpawnFire(c Cell) *Fire {
	f := NewFire(c, m)
	m.grid.Place(f, c)
	m.agents = append(m.agents, f)
	if !m.fireStarted {
		m.fireStarted = true
		m.log("--", "fire", "started", c.String(), 0)
	}
	return f
}

// SpawnSmoke places a smoke agent.
func (m *Model) SpawnSmoke(c Cell) *Smoke {
	s := NewSmoke(c, m)
	m.grid.Place(s, c)
	m.agents = append(m.agents, s)
	return s
}

// Step advances the model one tick: possibly ignites the fire, then
// activates every live agent once in randomized order. Sequential by
// default; see ParallelStep for the experimental worker-pool mode.
func (m *Model) Step() {
	m.tick++
	m.clearSightMarkers()
	m.maybeIgnite()

	prev := m.mobilitySnapshot()

	order := make([]Agent, len(m.agents))
	copy(order, m.agents)
	m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, a := range order {
		a.Step()
	}

	m.logMobilityChanges(prev)
	if m.CountStatus(StatusAlive) == 0 {
		m.running = false
	}
}

// maybeIgnite rolls the fire-probability once the start tick is reached and
// seeds a fire at a random flammable-occupied cell.
func (m *Model) maybeIgnite() {
	if m.fireStarted || m.tick < m.tuning.FireStartTick || m.fireProbability <= 0 {
		return
	}
	if m.rng.Float64() >= m.fireProbability {
		// One roll per run: a miss means a fire-free run.
		m.fireProbability = 0
		return
	}
	var flammable []Cell
	for y := 0; y < m.grid.Height(); y++ {
		for x := 0; x < m.grid.Width(); x++ {
			c := Cell{X: x, Y: y}
			for _, o := range m.grid.Occupants(c) {
				if CapsFor(o.Kind()).Flammable {
					flammable = append(flammable, c)
					break
				}
			}
		}
	}
	if len(flammable) == 0 {
		m.fireProbability = 0
		return
	}
	m.SpawnFire(flammable[m.rng.Intn(len(flammable))])
}

// RunTicks advances the model n ticks, stopping early when no agent
// remains alive.
func (m *Model) RunTicks(n int) {
	for i := 0; i < n && m.running; i++ {
		m.Step()
	}
}

// Running reports whether any agent remains ALIVE.
func (m *Model) Running() bool { return m.running }

// Tick returns the current tick number.
func (m *Model) Tick() int { return m.tick }

// Grid exposes the spatial grid.
func (m *Model) Grid() *Grid { return m.grid }

// Graph exposes the canonical traversability graph.
func (m *Model) Graph() *NavGraph { return m.graph }

// SimLog exposes the structured event log.
func (m *Model) SimLog() *SimLog { return m.simLog }

// Humans returns all humans ever added, including dead and escaped ones.
func (m *Model) Humans() []*Human { return m.humans }

// FireStarted reports whether a fire is burning this run.
func (m *Model) FireStarted() bool { return m.fireStarted }

// CountStatus counts humans with the given survival state.
func (m *Model) CountStatus(s Status) int {
	n := 0
	for _, h := range m.humans {
		if h.status == s {
			n++
		}
	}
	return n
}

// CountMobility counts alive humans in the given mobility state.
func (m *Model) CountMobility(mob Mobility) int {
	n := 0
	for _, h := range m.humans {
		if h.status == StatusAlive && h.mobility == mob {
			n++
		}
	}
	return n
}

// CollabTotals sums collaboration counters across all humans.
func (m *Model) CollabTotals() (verbal, morale, physical int) {
	for _, h := range m.humans {
		verbal += h.verbalCount
		morale += h.moraleCount
		physical += h.physicalCount
	}
	return verbal, morale, physical
}

// --- carry relation ---

// Carrying returns the human carried by c, or nil.
func (m *Model) Carrying(c *Human) *Human {
	return m.carries[c]
}

// CarrierOf returns the human carrying t, or nil.
func (m *Model) CarrierOf(t *Human) *Human {
	for carrier, carried := range m.carries {
		if carried == t {
			return carrier
		}
	}
	return nil
}

// beginCarry establishes the carrier→carried pair. A second carrier for
// the same target indicates a planning bug and aborts the run.
func (m *Model) beginCarry(carrier, target *Human) {
	if cur := m.CarrierOf(target); cur != nil {
		panic(fmt.Sprintf("sim: %s already carried by %s, cannot assign %s", target.label, cur.label, carrier.label))
	}
	m.carries[carrier] = target
}

// dropCarried releases whoever h carries. No-op when not carrying.
func (m *Model) dropCarried(h *Human) {
	delete(m.carries, h)
}

// --- movement support ---

// cellFree reports whether no occupant blocks ending a move on the cell.
func (m *Model) cellFree(c Cell) bool {
	if m.grid.OutOfBounds(c) {
		return false
	}
	for _, o := range m.grid.Occupants(c) {
		if !Traversable(o) {
			return false
		}
	}
	return true
}

// cellHazardous reports fire or smoke on the cell.
func (m *Model) cellHazardous(c Cell) bool {
	return m.grid.HasKind(c, KindFire) || m.grid.HasKind(c, KindSmoke)
}

// blockingHuman returns the first non-traversable human on the cell.
func (m *Model) blockingHuman(c Cell) *Human {
	for _, o := range m.grid.Occupants(c) {
		if o.Kind() == KindHuman && !Traversable(o) {
			return o.(*Human)
		}
	}
	return nil
}

// push shoves the target to a random traversable cell in its own Moore-1
// neighborhood, inflicting small random damage. Returns false when the
// target has nowhere to go.
func (m *Model) push(mover, target *Human) bool {
	var options []Cell
	for _, c := range m.grid.Neighborhood(target.pos, true, 1, false) {
		if m.graph.HasNode(c) && m.cellFree(c) {
			options = append(options, c)
		}
	}
	if len(options) == 0 {
		return false
	}
	to := options[m.rng.Intn(len(options))]
	m.grid.Move(target, to)
	target.health = clamp01(target.health - m.rng.Float64()*m.tuning.PushDamageMax)
	m.log(mover.label, "move", "push", target.label+" to "+to.String(), 0)
	if target.health == 0 {
		target.die()
	}
	return true
}

// removeHuman takes a dead or escaped human off the grid and out of the
// schedule; no further steps execute for it.
func (m *Model) removeHuman(h *Human) {
	if h.status == StatusAlive {
		panic("sim: removing a live human from the schedule")
	}
	m.dropCarried(h)
	m.grid.Remove(h)
	for i, a := range m.agents {
		if a == Agent(h) {
			m.agents = append(m.agents[:i], m.agents[i+1:]...)
			break
		}
	}
}

// placeDeadMarker leaves a dead-human marker behind at the cell.
func (m *Model) placeDeadMarker(c Cell) {
	m.grid.Place(NewFloor(KindDeadHuman, c), c)
}

// --- vision markers ---

func (m *Model) emitSight(visible []VisibleCell) {
	for _, vc := range visible {
		if m.grid.IsEmpty(vc.Cell) {
			f := NewFloor(KindSight, vc.Cell)
			m.grid.Place(f, vc.Cell)
			m.sightMarkers = append(m.sightMarkers, f)
		}
	}
}

func (m *Model) clearSightMarkers() {
	for _, f := range m.sightMarkers {
		m.grid.Remove(f)
	}
	m.sightMarkers = m.sightMarkers[:0]
}

// --- logging ---

func (m *Model) log(label, category, key, value string, numVal float64) {
	m.simLog.Add(m.tick, label, category, key, value, numVal)
}

func (m *Model) mobilitySnapshot() map[int]Mobility {
	snap := make(map[int]Mobility, len(m.humans))
	for _, h := range m.humans {
		if h.status == StatusAlive {
			snap[h.id] = h.mobility
		}
	}
	return snap
}

func (m *Model) logMobilityChanges(prev map[int]Mobility) {
	for _, h := range m.humans {
		if h.status != StatusAlive {
			continue
		}
		if was, ok := prev[h.id]; ok && was != h.mobility {
			m.log(h.label, "mobility", "change", fmt.Sprintf("%s -> %s", was, h.mobility), 0)
		}
	}
}

func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
