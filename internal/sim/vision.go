package sim

import "sort"

// VisibleCell pairs a visible cell with the occupants actually seen there.
// A cell can be visible with an empty occupant list when everything on it is
// hidden behind accumulated smoke.
type VisibleCell struct {
	Cell      Cell
	Occupants []Occupant
}

// ComputeVisible ray-casts from origin to every cell within the Chebyshev
// radius (center included) and returns the visible cells with their visible
// occupants. Rays stop at walls; each smoke-bearing cell along a ray adds
// one occlusion unit, and an occupant is seen only while its visibility
// score strictly exceeds the accumulated occlusion.
//
// Candidate cells are processed farthest-first so that one traced ray
// resolves every cell it crosses, and nearer candidates rarely need a ray
// of their own. Out-of-bounds candidates are skipped.
func (m *Model) ComputeVisible(origin Cell, radius int) []VisibleCell {
	candidates := m.grid.Neighborhood(origin, true, radius, true)
	sort.Slice(candidates, func(i, j int) bool {
		di := ChebyshevDist(origin, candidates[i])
		dj := ChebyshevDist(origin, candidates[j])
		if di != dj {
			return di > dj
		}
		if candidates[i].Y != candidates[j].Y {
			return candidates[i].Y < candidates[j].Y
		}
		return candidates[i].X < candidates[j].X
	})

	resolved := make(map[Cell]bool, len(candidates))
	seen := make(map[Cell][]Occupant)

	for _, target := range candidates {
		if resolved[target] {
			continue
		}
		occlusion := 0
		blocked := false
		for _, tc := range TraceLine(origin, target) {
			if blocked {
				resolved[tc] = true
				continue
			}
			contents := m.grid.Occupants(tc)
			for _, o := range contents {
				if o.Kind() == KindWall {
					blocked = true
					break
				}
			}
			if blocked {
				resolved[tc] = true
				continue
			}
			for _, o := range contents {
				if o.Kind() == KindSmoke {
					occlusion++
				}
			}
			if !resolved[tc] {
				resolved[tc] = true
				var vis []Occupant
				for _, o := range contents {
					if score := VisibilityScore(o); score > occlusion {
						vis = append(vis, o)
					}
				}
				seen[tc] = vis
			}
		}
	}

	out := make([]VisibleCell, 0, len(seen))
	for c, occ := range seen {
		out = append(out, VisibleCell{Cell: c, Occupants: occ})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cell.Y != out[j].Cell.Y {
			return out[i].Cell.Y < out[j].Cell.Y
		}
		return out[i].Cell.X < out[j].Cell.X
	})
	return out
}
