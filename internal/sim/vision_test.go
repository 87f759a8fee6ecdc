package sim

import "testing"

const openPlan9x3 = `
- - - - - - - - -
- - - - - - - - -
- - - - - - - - -
`

// visibleAt returns the occupants seen on a cell, and whether the cell
// itself resolved visible.
func visibleAt(visible []VisibleCell, c Cell) ([]Occupant, bool) {
	for _, vc := range visible {
		if vc.Cell == c {
			return vc.Occupants, true
		}
	}
	return nil, false
}

func TestComputeVisible_WallBlocksRay(t *testing.T) {
	ts := NewTestSim(WithFloorplan(`
- - - W - - - - -
- - - W - - - - -
- - - W - - - - -
`))
	m := ts.Model
	m.SpawnFire(Cell{X: 6, Y: 1})

	visible := m.ComputeVisible(Cell{X: 0, Y: 1}, 8)
	for _, vc := range visible {
		if vc.Cell.X > 3 {
			t.Fatalf("cell %v behind the wall resolved visible", vc.Cell)
		}
	}
	if _, ok := visibleAt(visible, Cell{X: 6, Y: 1}); ok {
		t.Fatal("fire behind a full wall should be invisible")
	}
	if _, ok := visibleAt(visible, Cell{X: 2, Y: 1}); !ok {
		t.Fatal("open cell in front of the wall should be visible")
	}
}

func TestComputeVisible_SmokeOcclusionAccumulates(t *testing.T) {
	ts := NewTestSim(WithFloorplan(openPlan9x3))
	m := ts.Model

	// Along y=1: smoke at x=2 and x=4, a human at x=3, fire at x=6, a dead
	// body at x=7. Everything viewed from (0,1).
	m.SpawnSmoke(Cell{X: 2, Y: 1})
	m.SpawnSmoke(Cell{X: 4, Y: 1})
	watcher := NewHuman(0, Cell{}, 1, 8, 1, 1, false, m)
	m.AddHuman(watcher, Cell{X: 0, Y: 1})
	bystander := NewHuman(1, Cell{}, 1, 8, 1, 1, false, m)
	m.AddHuman(bystander, Cell{X: 3, Y: 1})
	m.SpawnFire(Cell{X: 6, Y: 1})
	m.placeDeadMarker(Cell{X: 7, Y: 1})

	visible := m.ComputeVisible(Cell{X: 0, Y: 1}, 8)

	// One smoke unit of occlusion: the human (score 2) is still seen.
	occ, ok := visibleAt(visible, Cell{X: 3, Y: 1})
	if !ok {
		t.Fatal("human's cell did not resolve")
	}
	if len(occ) != 1 || occ[0].Kind() != KindHuman {
		t.Fatalf("behind one smoke: got %v, want the human", occ)
	}

	// Two units: fire (score 20) punches through, the dead body (score 1)
	// does not.
	occ, ok = visibleAt(visible, Cell{X: 6, Y: 1})
	if !ok {
		t.Fatal("fire's cell did not resolve")
	}
	if len(occ) != 1 || occ[0].Kind() != KindFire {
		t.Fatalf("behind two smoke: got %v, want the fire", occ)
	}
	occ, _ = visibleAt(visible, Cell{X: 7, Y: 1})
	for _, o := range occ {
		if o.Kind() == KindDeadHuman {
			t.Fatal("dead body visible through two smoke cells")
		}
	}

	// Smoke occludes itself: score 1 against its own occlusion unit.
	occ, ok = visibleAt(visible, Cell{X: 2, Y: 1})
	if !ok {
		t.Fatal("first smoke cell did not resolve")
	}
	if len(occ) != 0 {
		t.Fatalf("smoke cell should resolve with no visible occupants, got %v", occ)
	}
}

func TestComputeVisible_RadiusAndCenter(t *testing.T) {
	ts := NewTestSim(WithFloorplan(openPlan9x3))
	m := ts.Model

	visible := m.ComputeVisible(Cell{X: 4, Y: 1}, 1)
	if len(visible) != 9 {
		t.Fatalf("got %d visible cells, want the 3x3 block", len(visible))
	}
	if _, ok := visibleAt(visible, Cell{X: 4, Y: 1}); !ok {
		t.Fatal("origin cell must be included")
	}
	if _, ok := visibleAt(visible, Cell{X: 6, Y: 1}); ok {
		t.Fatal("cell outside the radius resolved visible")
	}
}

func TestComputeVisible_SightMarkersNeverReported(t *testing.T) {
	ts := NewTestSim(WithFloorplan(openPlan9x3))
	m := ts.Model
	m.grid.Place(NewFloor(KindSight, Cell{}), Cell{X: 5, Y: 1})

	visible := m.ComputeVisible(Cell{X: 4, Y: 1}, 2)
	occ, ok := visibleAt(visible, Cell{X: 5, Y: 1})
	if !ok {
		t.Fatal("marker cell did not resolve")
	}
	for _, o := range occ {
		if o.Kind() == KindSight {
			t.Fatal("sight marker leaked into the visible set")
		}
	}
}
