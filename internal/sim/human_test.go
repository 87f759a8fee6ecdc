package sim

import (
	"math"
	"testing"
)

const sealedRoomPlan = `
W W W W W W W
W - - - - - W
W - - - - - W
W - - - - - W
W W W W W W W
`

func TestHazardContact_FireDamage(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 2, Vision: 1, Nervousness: 1, Experience: 10}),
		WithFireAt(2, 1),
	)
	h := ts.Human(0)
	h.hazardContact()

	if got, want := h.Health(), 0.8; math.Abs(got-want) > 1e-9 {
		t.Errorf("health = %v, want %v", got, want)
	}
	if h.Speed() != 0 {
		t.Errorf("speed = %v, want 0 (clamped)", h.Speed())
	}
	if h.Mobility() != MobilityIncapacitated {
		t.Errorf("mobility = %v, want incapacitated at speed 0", h.Mobility())
	}
}

func TestHazardContact_DeathLeavesMarker(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 2, Vision: 1, Nervousness: 1, Experience: 10}),
		WithFireAt(2, 1),
	)
	h := ts.Human(0)
	h.health = 0.15
	h.hazardContact()

	if h.Status() != StatusDead {
		t.Fatalf("status = %v, want dead", h.Status())
	}
	if h.Health() != 0 {
		t.Errorf("health = %v, want exactly 0", h.Health())
	}
	if !ts.Model.Grid().HasKind(Cell{X: 1, Y: 1}, KindDeadHuman) {
		t.Error("no dead-human marker left behind")
	}
	if ts.Model.Grid().HasKind(Cell{X: 1, Y: 1}, KindHuman) {
		t.Error("dead human still on the grid")
	}
}

func TestHazardContact_SmokeSlowsOnlyWhenWeak(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 2, Vision: 1, Nervousness: 1, Experience: 10}),
		WithSmokeAt(1, 2),
	)
	h := ts.Human(0)

	h.hazardContact()
	if got, want := h.Health(), 0.99; math.Abs(got-want) > 1e-9 {
		t.Errorf("health = %v, want %v", got, want)
	}
	if h.Speed() != 2 {
		t.Errorf("healthy agent slowed by smoke: speed %v", h.Speed())
	}

	h.health = 0.4 // below the slowdown threshold
	h.hazardContact()
	if h.Speed() != 1 {
		t.Errorf("weak agent not slowed: speed %v, want 1", h.Speed())
	}
}

func TestPanicScore_Components(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 1, Nervousness: 10, Experience: 4}),
		WithShock(0, 0.6),
	)
	h := ts.Human(0)

	want := (math.Exp(-1.0/10) + math.Exp(-4.0/10) + 0.6) / 3
	if got := h.PanicScore(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}

	// More experience can only lower the score.
	h.experience = 9
	if h.PanicScore() >= want {
		t.Error("score did not drop with more experience")
	}
}

func TestUpdatePanic_EntryWipesKnowledge(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 1, Nervousness: 10, Experience: 4}),
		WithFireAt(5, 3),
		WithKnownExit(0, 5, 1),
		WithShock(0, 1.0),
	)
	h := ts.Human(0)
	if len(h.knownTiles) == 0 {
		t.Fatal("precondition: agent should know the exit cell")
	}

	ts.RunTicks(1)

	if h.Mobility() != MobilityPanic {
		t.Fatalf("mobility = %v, want panic", h.Mobility())
	}
	if containsKind(h.knownTiles[Cell{X: 5, Y: 1}], KindFireExit) {
		t.Error("panic entry should wipe the remembered exit")
	}
	if !ts.SimLog().HasEntry("mobility", "panic_enter", "") {
		t.Error("panic entry not logged")
	}
}

func TestUpdatePanic_ShockFromViewAndDecay(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)
	h.visible = ts.Model.ComputeVisible(h.pos, h.vision)

	h.updatePanic()
	if h.shock != 0 {
		t.Fatalf("empty view raised shock to %v", h.shock)
	}

	ts.Model.placeDeadMarker(Cell{X: 2, Y: 1})
	h.visible = ts.Model.ComputeVisible(h.pos, h.vision)
	h.updatePanic()
	if got, want := h.shock, 0.05; math.Abs(got-want) > 1e-9 {
		t.Fatalf("shock = %v, want increment minus decay = %v", got, want)
	}
	if !h.BelievesAlarm() {
		t.Error("rising shock should flip alarm belief")
	}
}

func TestUpdatePanic_SustainedTerrorFaints(t *testing.T) {
	// A body in permanent view pins shock at the ceiling; the score sits
	// above the faint threshold, so the agent collapses within a few checks.
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithSeed(3),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 2, Speed: 1, Vision: 1, Nervousness: 10, Experience: 1}),
	)
	ts.Model.placeDeadMarker(Cell{X: 2, Y: 1})

	ts.RunTicks(80)
	h := ts.Human(0)
	if h.Mobility() != MobilityIncapacitated {
		t.Fatalf("mobility = %v, want incapacitated after sustained max panic", h.Mobility())
	}
	if h.Status() != StatusAlive {
		t.Fatalf("status = %v, want alive (fainted, not dead)", h.Status())
	}
}

func TestUpdatePanic_MoraleBoostImmunity(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 2, Speed: 1, Vision: 1, Nervousness: 10, Experience: 1}),
		WithShock(0, 1.0),
	)
	h := ts.Human(0)
	h.moraleBoost = true
	ts.Model.placeDeadMarker(Cell{X: 2, Y: 1})

	ts.RunTicks(20)
	if h.Mobility() != MobilityNormal {
		t.Fatalf("boosted agent left normal mobility: %v", h.Mobility())
	}
}

func TestLearnEnvironment_KnowledgeGrowsAndCaps(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 3, Y: 2, Speed: 1, Vision: 2, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)

	h.visible = ts.Model.ComputeVisible(h.pos, h.vision)
	h.learnEnvironment()
	firstPass := h.Knowledge()
	if firstPass <= 0 {
		t.Fatal("no knowledge gained from first scan")
	}
	if len(h.knownTiles) != len(h.visible) {
		t.Fatalf("known %d tiles, saw %d", len(h.knownTiles), len(h.visible))
	}

	// Re-learning the same view adds nothing.
	h.learnEnvironment()
	if h.Knowledge() != firstPass {
		t.Fatalf("knowledge changed on a repeat scan: %v -> %v", firstPass, h.Knowledge())
	}
}

func TestCheckEscape_RequiresFireAndExit(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W
W - - E W
W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 3, Y: 1, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)

	// Standing on the exit with no fire: nobody leaves a building that is
	// not burning.
	h.checkEscape()
	if h.Status() != StatusAlive {
		t.Fatalf("escaped without a fire: %v", h.Status())
	}

	ts.Model.SpawnFire(Cell{X: 1, Y: 1})
	h.checkEscape()
	if h.Status() != StatusEscaped {
		t.Fatalf("status = %v, want escaped", h.Status())
	}
	if ts.Model.Grid().HasKind(Cell{X: 3, Y: 1}, KindHuman) {
		t.Error("escaped human still on the grid")
	}
}
