package sim

// NavGraph is the canonical traversability graph: one node per cell free of
// terrain blockers (walls, furniture), an implicit edge between every pair
// of Moore-adjacent nodes. Dynamic blockers (humans, fire) are not part
// of the graph; agents exclude them per search via an overlay, so the
// canonical graph is never mutated during pathing.
type NavGraph struct {
	cols, rows int
	node       []bool
}

// BuildNavGraph derives the traversability graph from the grid's terrain.
// Called once after floorplan placement; fire and agents do not affect it.
func BuildNavGraph(g *Grid) *NavGraph {
	ng := &NavGraph{
		cols: g.Width(),
		rows: g.Height(),
		node: make([]bool, g.Width()*g.Height()),
	}
	for y := 0; y < ng.rows; y++ {
		for x := 0; x < ng.cols; x++ {
			c := Cell{X: x, Y: y}
			blocked := false
			for _, o := range g.Occupants(c) {
				if o.Kind() == KindWall || o.Kind() == KindFurniture {
					blocked = true
					break
				}
			}
			ng.node[y*ng.cols+x] = !blocked
		}
	}
	return ng
}

// HasNode reports whether the cell is a node of the graph.
func (ng *NavGraph) HasNode(c Cell) bool {
	if c.X < 0 || c.Y < 0 || c.X >= ng.cols || c.Y >= ng.rows {
		return false
	}
	return ng.node[c.Y*ng.cols+c.X]
}

var navDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// ShortestPath returns the minimum-hop path from 'from' to 'to' inclusive,
// skipping nodes in the excluded overlay. Returns nil when no path exists.
// The first element is always 'from'.
func (ng *NavGraph) ShortestPath(from, to Cell, excluded map[Cell]bool) []Cell {
	return ng.bfs(from, func(c Cell) bool { return c == to }, excluded)
}

// ShortestPathNextTo returns the minimum-hop path from 'from' to any node
// Moore-adjacent to 'to', excluding 'to' itself. Used when the destination
// cell is occupied by a non-traversable occupant (typically another agent).
func (ng *NavGraph) ShortestPathNextTo(from, to Cell, excluded map[Cell]bool) []Cell {
	goal := func(c Cell) bool {
		return c != to && ChebyshevDist(c, to) == 1
	}
	// Copy the overlay before adding 'to' so the caller's map is untouched.
	overlay := make(map[Cell]bool, len(excluded)+1)
	for c := range excluded {
		overlay[c] = true
	}
	overlay[to] = true
	return ng.bfs(from, goal, overlay)
}

// ReachableSet returns every node reachable from 'from', itself included.
func (ng *NavGraph) ReachableSet(from Cell) map[Cell]bool {
	out := map[Cell]bool{}
	if !ng.HasNode(from) {
		return out
	}
	out[from] = true
	queue := []Cell{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range navDirs {
			next := Cell{X: cur.X + d[0], Y: cur.Y + d[1]}
			if out[next] || !ng.HasNode(next) {
				continue
			}
			out[next] = true
			queue = append(queue, next)
		}
	}
	return out
}

// Reachable reports whether a path exists between the two cells.
func (ng *NavGraph) Reachable(from, to Cell) bool {
	return ng.ShortestPath(from, to, nil) != nil
}

// bfs runs an unweighted breadth-first search from 'from' until goal holds.
func (ng *NavGraph) bfs(from Cell, goal func(Cell) bool, excluded map[Cell]bool) []Cell {
	if !ng.HasNode(from) || excluded[from] {
		return nil
	}
	if goal(from) {
		return []Cell{from}
	}

	prev := make(map[Cell]Cell)
	visited := map[Cell]bool{from: true}
	queue := []Cell{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range navDirs {
			next := Cell{X: cur.X + d[0], Y: cur.Y + d[1]}
			if visited[next] || !ng.HasNode(next) || excluded[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if goal(next) {
				return rebuildPath(prev, from, next)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func rebuildPath(prev map[Cell]Cell, from, end Cell) []Cell {
	var rev []Cell
	for c := end; c != from; c = prev[c] {
		rev = append(rev, c)
	}
	rev = append(rev, from)
	path := make([]Cell, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}
