package sim

// Cell is an integer grid coordinate. The grid is finite and non-toroidal.
type Cell struct {
	X, Y int
}

// ChebyshevDist returns the Chebyshev (king-move) distance between two cells.
func ChebyshevDist(a, b Cell) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// TraceLine rasterizes the segment from start to end using Bresenham's
// algorithm. The result includes both endpoints and is symmetric as a cell
// set: TraceLine(a, b) covers exactly the cells of TraceLine(b, a), in
// start-to-end order either way.
func TraceLine(start, end Cell) []Cell {
	x1, y1 := start.X, start.Y
	x2, y2 := end.X, end.Y

	steep := absInt(y2-y1) > absInt(x2-x1)
	if steep {
		x1, y1 = y1, x1
		x2, y2 = y2, x2
	}

	swapped := false
	if x1 > x2 {
		x1, x2 = x2, x1
		y1, y2 = y2, y1
		swapped = true
	}

	dx := x2 - x1
	dy := y2 - y1

	err := dx / 2
	ystep := -1
	if y1 < y2 {
		ystep = 1
	}

	cells := make([]Cell, 0, dx+1)
	y := y1
	for x := x1; x <= x2; x++ {
		if steep {
			cells = append(cells, Cell{X: y, Y: x})
		} else {
			cells = append(cells, Cell{X: x, Y: y})
		}
		err -= absInt(dy)
		if err < 0 {
			y += ystep
			err += dx
		}
	}

	if swapped {
		for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
			cells[i], cells[j] = cells[j], cells[i]
		}
	}
	return cells
}

// TraceDist returns the number of cells on the rasterized segment between a
// and b. Used as a cheap distance proxy when ranking exit candidates.
func TraceDist(a, b Cell) int {
	return len(TraceLine(a, b))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
