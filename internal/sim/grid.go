package sim

import "math/rand"

// Grid is the shared spatial state: a finite, bounded field where each cell
// holds a multiset of occupants. Multiple occupants may coexist on one cell
// (a human standing in smoke on a door, for example).
type Grid struct {
	width, height int
	cells         [][]Occupant // flat, indexed y*width+x
}

// NewGrid creates an empty grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make([][]Occupant, width*height),
	}
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// OutOfBounds reports whether the cell lies outside the grid.
func (g *Grid) OutOfBounds(c Cell) bool {
	return c.X < 0 || c.Y < 0 || c.X >= g.width || c.Y >= g.height
}

func (g *Grid) idx(c Cell) int { return c.Y*g.width + c.X }

// Occupants returns the occupants of a cell. The slice must not be mutated
// by the caller. Out-of-bounds cells report no occupants.
func (g *Grid) Occupants(c Cell) []Occupant {
	if g.OutOfBounds(c) {
		return nil
	}
	return g.cells[g.idx(c)]
}

// IsEmpty reports whether the cell has no occupants at all.
func (g *Grid) IsEmpty(c Cell) bool {
	return !g.OutOfBounds(c) && len(g.cells[g.idx(c)]) == 0
}

// HasKind reports whether any occupant of the given kind sits on the cell.
func (g *Grid) HasKind(c Cell, k Kind) bool {
	for _, o := range g.Occupants(c) {
		if o.Kind() == k {
			return true
		}
	}
	return false
}

// Place puts an occupant on a cell and updates its position.
func (g *Grid) Place(o Occupant, c Cell) {
	if g.OutOfBounds(c) {
		panic("sim: place out of bounds")
	}
	i := g.idx(c)
	g.cells[i] = append(g.cells[i], o)
	o.setPos(c)
}

// Remove takes an occupant off the grid. Removing an occupant that is not
// on the grid is a no-op.
func (g *Grid) Remove(o Occupant) {
	c := o.Pos()
	if g.OutOfBounds(c) {
		return
	}
	i := g.idx(c)
	for j, cur := range g.cells[i] {
		if cur == o {
			g.cells[i] = append(g.cells[i][:j], g.cells[i][j+1:]...)
			return
		}
	}
}

// Move relocates an occupant to another cell.
func (g *Grid) Move(o Occupant, to Cell) {
	g.Remove(o)
	g.Place(o, to)
}

// Neighborhood returns the cells around center within the given radius,
// clipped to the grid. Moore includes diagonals; Von Neumann does not.
func (g *Grid) Neighborhood(center Cell, moore bool, radius int, includeCenter bool) []Cell {
	var out []Cell
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx == 0 && dy == 0 && !includeCenter {
				continue
			}
			if !moore && absInt(dx)+absInt(dy) > radius {
				continue
			}
			c := Cell{X: center.X + dx, Y: center.Y + dy}
			if g.OutOfBounds(c) {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

// FindEmpty returns a uniformly random empty cell, or false when the grid
// has none left.
func (g *Grid) FindEmpty(rng *rand.Rand) (Cell, bool) {
	var empties []Cell
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			c := Cell{X: x, Y: y}
			if g.IsEmpty(c) {
				empties = append(empties, c)
			}
		}
	}
	if len(empties) == 0 {
		return Cell{}, false
	}
	return empties[rng.Intn(len(empties))], true
}
