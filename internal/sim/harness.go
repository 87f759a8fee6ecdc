package sim

import "math/rand"

// TestSim is a headless harness used by tests and the batch runner. It
// wraps a Model built from explicit placements instead of randomized
// spawning, so scenarios are fully deterministic.
type TestSim struct {
	Model *Model

	floorplan string
	seed      int64
	tuning    Tuning
	verbose   bool
	fireProb  float64
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // floorplan, seed, tuning, applied first
	simOptAgent                      // humans, fires, smoke, applied once the model exists
	simOptState                      // per-agent state tweaks, applied last
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithFloorplan sets the text-grid layout. Panics on a malformed plan:
// harness misuse is a test bug.
func WithFloorplan(text string) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.floorplan = text }}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.seed = seed }}
}

// WithHarnessTuning overrides tuning constants.
func WithHarnessTuning(t Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.tuning = t }}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.verbose = v }}
}

// WithFireChance sets the per-run ignition probability (default 0 in the
// harness: tests place fire explicitly).
func WithFireChance(p float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.fireProb = p }}
}

// HumanSpec pins down every randomized attribute of a harness human.
type HumanSpec struct {
	ID           int
	X, Y         int
	Speed        float64
	Vision       int
	Nervousness  int
	Experience   int
	Collaborates bool
}

// WithHuman adds a fully specified human.
func WithHuman(spec HumanSpec) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		h := NewHuman(spec.ID, Cell{X: spec.X, Y: spec.Y}, spec.Speed, spec.Vision,
			spec.Nervousness, spec.Experience, spec.Collaborates, ts.Model)
		ts.Model.AddHuman(h, Cell{X: spec.X, Y: spec.Y})
	}}
}

// WithFireAt places a fire agent and marks the run as burning.
func WithFireAt(x, y int) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Model.SpawnFire(Cell{X: x, Y: y})
	}}
}

// WithSmokeAt places a smoke agent.
func WithSmokeAt(x, y int) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Model.SpawnSmoke(Cell{X: x, Y: y})
	}}
}

// WithKnownExit seeds a human's private map with a fire-exit location.
func WithKnownExit(humanID, x, y int) SimOption {
	return SimOption{simOptState, func(ts *TestSim) {
		h := ts.Human(humanID)
		c := Cell{X: x, Y: y}
		if !containsKind(h.knownTiles[c], KindFireExit) {
			h.knownTiles[c] = append(h.knownTiles[c], KindFireExit)
		}
	}}
}

// WithAlarmBelief makes a human believe the alarm from tick one.
func WithAlarmBelief(humanID int) SimOption {
	return SimOption{simOptState, func(ts *TestSim) {
		ts.Human(humanID).believesAlarm = true
	}}
}

// WithMobility forces a human's initial mobility state.
func WithMobility(humanID int, mob Mobility) SimOption {
	return SimOption{simOptState, func(ts *TestSim) {
		ts.Human(humanID).mobility = mob
	}}
}

// WithShock forces a human's initial shock level.
func WithShock(humanID int, shock float64) SimOption {
	return SimOption{simOptState, func(ts *TestSim) {
		ts.Human(humanID).shock = clamp01(shock)
	}}
}

// NewTestSim constructs a harness in three ordered passes: infrastructure,
// then agents, then per-agent state tweaks.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		floorplan: DefaultFloorplan,
		seed:      1,
		tuning:    DefaultTuning(),
		fireProb:  0,
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	fp, err := ParseFloorplan(ts.floorplan)
	if err != nil {
		panic("sim harness: " + err.Error())
	}
	ts.Model = NewModel(fp, 0, 0,
		WithTuning(ts.tuning),
		WithRNG(rand.New(rand.NewSource(ts.seed))), // #nosec G404 -- test harness
		WithFireProbability(ts.fireProb),
		WithVerboseLog(ts.verbose),
	)

	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptState {
			o.fn(ts)
		}
	}
	return ts
}

// Human returns the harness human with the given ID. Panics when absent:
// harness misuse is a test bug.
func (ts *TestSim) Human(id int) *Human {
	for _, h := range ts.Model.Humans() {
		if h.id == id {
			return h
		}
	}
	panic("sim harness: no human with that id")
}

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	ts.Model.RunTicks(n)
}

// RunUntil advances up to maxTicks, stopping early when the predicate
// holds. Returns the tick at which it was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*Model) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Model.Step()
		if predicate(ts.Model) {
			return ts.Model.Tick()
		}
	}
	return -1
}

// SimLog exposes the model's structured event log.
func (ts *TestSim) SimLog() *SimLog {
	return ts.Model.SimLog()
}
