package sim

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Placement is one floor object's position in a parsed floorplan.
type Placement struct {
	Kind Kind
	Cell Cell
}

// Floorplan is the parsed text-grid layout of a floor: static object
// placements plus the spawn candidates for humans.
type Floorplan struct {
	Width, Height int
	Placements    []Placement
	Spawns        []Cell
}

// ParseFloorplan reads a whitespace-separated text grid. Symbols:
//
//	W wall   E fire exit   F furniture   D door   S spawn   - open floor
//
// All rows must have the same number of tokens.
func ParseFloorplan(text string) (*Floorplan, error) {
	var rows [][]string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		rows = append(rows, strings.Fields(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("floorplan: no rows")
	}

	width := len(rows[0])
	fp := &Floorplan{Width: width, Height: len(rows)}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("floorplan: row %d has %d cells, want %d", y, len(row), width)
		}
		for x, tok := range row {
			c := Cell{X: x, Y: y}
			switch tok {
			case "W":
				fp.Placements = append(fp.Placements, Placement{Kind: KindWall, Cell: c})
			case "E":
				fp.Placements = append(fp.Placements, Placement{Kind: KindFireExit, Cell: c})
			case "F":
				fp.Placements = append(fp.Placements, Placement{Kind: KindFurniture, Cell: c})
			case "D":
				fp.Placements = append(fp.Placements, Placement{Kind: KindDoor, Cell: c})
			case "S":
				fp.Spawns = append(fp.Spawns, c)
			case "-", ".":
				// open floor
			default:
				return nil, fmt.Errorf("floorplan: unknown symbol %q at %s", tok, c)
			}
		}
	}
	return fp, nil
}

// LoadFloorplan parses a floorplan file.
func LoadFloorplan(path string) (*Floorplan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fp, err := ParseFloorplan(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fp, nil
}

// DefaultFloorplan is a small office: two rooms joined by a door corridor,
// furniture to burn, exits top-left and bottom-right.
const DefaultFloorplan = `
W W W W W W W W W W W W W W W W W W W W
W E - - - - - - W - - - - - - - - - - W
W - S - - F F - W - - F F - - S - - - W
W - - - - F F - D - - F F - - - - - - W
W - S - - - - - W - - - - - - S - - - W
W - - - - - - - W - - - - - - - - - - W
W W W D W W W W W W W W W W W D W W W W
W - - - - - - - - - - - - - - - - - - W
W - S - F F - - - - - - - F F - S - - W
W - - - F F - - - - - - - F F - - - - W
W - S - - - - - - - - - - - - S - - E W
W W W W W W W W W W W W W W W W W W W W
`
