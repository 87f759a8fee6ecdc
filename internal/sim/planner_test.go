package sim

import "testing"

func TestAttemptExitPlan_PicksNearestKnownExit(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W W W W W
W E - - - - - E W
W - - - - - - - W
W W W W W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 3, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithKnownExit(0, 1, 1),
		WithKnownExit(0, 7, 1),
	)
	h := ts.Human(0)
	h.attemptExitPlan()

	if h.plannedTarget == nil {
		t.Fatal("no target planned despite known exits")
	}
	if h.plannedTarget.cell != (Cell{X: 1, Y: 1}) {
		t.Fatalf("target = %v, want the nearer exit (1,1)", h.plannedTarget.cell)
	}
}

func TestAttemptExitPlan_TieBreaksDeterministically(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W W W
W E - - - E W
W - - - - - W
W W W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 3, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithKnownExit(0, 1, 1),
		WithKnownExit(0, 5, 1),
	)
	h := ts.Human(0)
	// Both exits rasterize to the same line length: the lower coordinate
	// wins, on every run.
	for i := 0; i < 5; i++ {
		h.clearPlan()
		h.attemptExitPlan()
		if h.plannedTarget.cell != (Cell{X: 1, Y: 1}) {
			t.Fatalf("run %d: target = %v, want (1,1)", i, h.plannedTarget.cell)
		}
	}
}

func TestAttemptExitPlan_FallsBackToVisibleDoor(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W
W - - D W
W - - - W
W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 2, Speed: 1, Vision: 2, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)
	h.visible = ts.Model.ComputeVisible(h.pos, h.vision)
	h.attemptExitPlan()

	if h.plannedTarget == nil || h.plannedTarget.cell != (Cell{X: 3, Y: 1}) {
		t.Fatalf("want the visible door (3,1), got %v", h.plannedTarget)
	}
}

func TestAttemptExitPlan_VisitedDoorIgnored(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W
W - - D W
W - - - W
W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 2, Speed: 1, Vision: 2, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)
	h.visited[Cell{X: 3, Y: 1}] = true
	h.visible = ts.Model.ComputeVisible(h.pos, h.vision)
	h.learnEnvironment()
	h.attemptExitPlan()

	if h.plannedTarget != nil && h.plannedTarget.cell == (Cell{X: 3, Y: 1}) {
		t.Fatal("already-visited door picked again")
	}
}

func TestSetRandomTarget_OnlyKnownReachableCells(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W W W
W - - W - - W
W - - W - - W
W W W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)
	// The agent somehow knows about a cell in the sealed right-hand room.
	h.knownTiles[Cell{X: 4, Y: 1}] = nil
	h.knownTiles[Cell{X: 2, Y: 2}] = nil

	for i := 0; i < 10; i++ {
		h.clearPlan()
		h.setRandomTarget(false)
		if h.plannedTarget == nil {
			t.Fatal("no target despite a reachable known cell")
		}
		if got := h.plannedTarget.cell; got != (Cell{X: 2, Y: 2}) {
			t.Fatalf("picked %v, want the only reachable candidate (2,2)", got)
		}
	}
}

func TestSetRandomTarget_NothingKnownClearsPlan(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
	)
	h := ts.Human(0)
	h.setRandomTarget(false)
	if h.plannedTarget != nil {
		t.Fatalf("target %v planned with an empty mental map", h.plannedTarget.cell)
	}
}

func TestRefreshPlan_MoraleTargetThatCalmedIsDropped(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 3, Nervousness: 1, Experience: 10}),
		WithHuman(HumanSpec{ID: 1, X: 4, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithMobility(1, MobilityPanic),
	)
	helper, target := ts.Human(0), ts.Human(1)
	helper.plannedTarget = &planTarget{agent: target, cell: target.Pos()}
	helper.plannedAction = ActionMorale

	// Target regains composure on its own: helping is moot.
	target.mobility = MobilityNormal
	helper.refreshPlan()
	if helper.plannedTarget != nil || helper.plannedAction != ActionNone {
		t.Fatal("stale morale plan survived the target calming down")
	}
}

func TestRefreshPlan_TracksMovingTarget(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 1, Speed: 1, Vision: 3, Nervousness: 1, Experience: 10}),
		WithHuman(HumanSpec{ID: 1, X: 4, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithMobility(1, MobilityPanic),
	)
	helper, target := ts.Human(0), ts.Human(1)
	helper.plannedTarget = &planTarget{agent: target, cell: target.Pos()}
	helper.plannedAction = ActionMorale

	ts.Model.Grid().Move(target, Cell{X: 3, Y: 3})
	helper.refreshPlan()
	if helper.plannedTarget == nil || helper.plannedTarget.cell != (Cell{X: 3, Y: 3}) {
		t.Fatal("plan did not follow the moving target")
	}
}

func TestBroadcastExit_InformsOnlyCalmHumans(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(`
W W W W W W W
W - - - - E W
W - - - - - W
W W W W W W W
`),
		WithHuman(HumanSpec{ID: 0, X: 2, Y: 1, Speed: 1, Vision: 4, Nervousness: 1, Experience: 10, Collaborates: true}),
		WithHuman(HumanSpec{ID: 1, X: 3, Y: 1, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithHuman(HumanSpec{ID: 2, X: 3, Y: 2, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithMobility(2, MobilityPanic),
	)
	shouter := ts.Human(0)
	shouter.visible = ts.Model.ComputeVisible(shouter.pos, shouter.vision)

	exit := Cell{X: 5, Y: 1}
	shouter.broadcastExit(exit)

	calm, panicked := ts.Human(1), ts.Human(2)
	if !calm.BelievesAlarm() {
		t.Error("calm listener did not pick up the alarm")
	}
	if !containsKind(calm.knownTiles[exit], KindFireExit) {
		t.Error("calm listener did not learn the exit")
	}
	if panicked.BelievesAlarm() || containsKind(panicked.knownTiles[exit], KindFireExit) {
		t.Error("panicking bystander should not register the shout")
	}
	if verbal, _, _ := shouter.CollabCounts(); verbal != 1 {
		t.Errorf("verbal count = %d, want 1", verbal)
	}

	// A second shout at the same crowd still counts as one more assist.
	shouter.broadcastExit(exit)
	if verbal, _, _ := shouter.CollabCounts(); verbal != 2 {
		t.Errorf("verbal count = %d, want 2", verbal)
	}
}

func TestCheckForCollaboration_PhysicalBeatsMorale(t *testing.T) {
	ts := NewTestSim(
		WithFloorplan(sealedRoomPlan),
		WithSeed(5),
		WithHuman(HumanSpec{ID: 0, X: 1, Y: 2, Speed: 1, Vision: 4, Nervousness: 1, Experience: 10, Collaborates: true}),
		WithHuman(HumanSpec{ID: 1, X: 3, Y: 1, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithHuman(HumanSpec{ID: 2, X: 3, Y: 3, Speed: 1, Vision: 1, Nervousness: 1, Experience: 10}),
		WithMobility(1, MobilityPanic),
		WithMobility(2, MobilityIncapacitated),
	)
	helper := ts.Human(0)
	helper.visible = ts.Model.ComputeVisible(helper.pos, helper.vision)

	// The stochastic gate may hold a few times; the choice itself is fixed.
	for i := 0; i < 100 && helper.plannedAction == ActionNone; i++ {
		helper.checkForCollaboration()
	}
	if helper.plannedAction != ActionPhysical {
		t.Fatalf("action = %v, want physical support first", helper.plannedAction)
	}
	if helper.plannedTarget.agent != ts.Human(2) {
		t.Fatal("physical support must pick the incapacitated human")
	}
}
