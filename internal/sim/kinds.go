package sim

// Kind is the closed set of occupant variants that may share a grid cell.
type Kind int

const (
	KindWall Kind = iota
	KindDoor
	KindFireExit
	KindFurniture
	KindFire
	KindSmoke
	KindDeadHuman
	KindSight
	KindHuman
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindDoor:
		return "door"
	case KindFireExit:
		return "fire_exit"
	case KindFurniture:
		return "furniture"
	case KindFire:
		return "fire"
	case KindSmoke:
		return "smoke"
	case KindDeadHuman:
		return "dead_human"
	case KindSight:
		return "sight"
	case KindHuman:
		return "human"
	default:
		return "unknown"
	}
}

// sightSentinel marks occupants that exist purely for visualization and are
// never reported by the visibility engine.
const sightSentinel = -1

// Caps is the capability set of an occupant kind.
type Caps struct {
	Traversable  bool // an agent may end a move on this cell
	Flammable    bool // fire can ignite it
	SpreadsSmoke bool // smoke propagates through its cell
	Visibility   int  // smoke-occlusion units it can be seen through
}

var kindCaps = map[Kind]Caps{
	KindWall:      {Traversable: false, Flammable: false, SpreadsSmoke: false, Visibility: 1},
	KindDoor:      {Traversable: true, Flammable: false, SpreadsSmoke: true, Visibility: 1},
	KindFireExit:  {Traversable: true, Flammable: false, SpreadsSmoke: true, Visibility: 6},
	KindFurniture: {Traversable: false, Flammable: true, SpreadsSmoke: true, Visibility: 1},
	KindFire:      {Traversable: false, Flammable: false, SpreadsSmoke: true, Visibility: 20},
	KindSmoke:     {Traversable: true, Flammable: false, SpreadsSmoke: true, Visibility: 1},
	KindDeadHuman: {Traversable: true, Flammable: true, SpreadsSmoke: true, Visibility: 1},
	KindSight:     {Traversable: true, Flammable: false, SpreadsSmoke: true, Visibility: sightSentinel},
	// Live humans burn through hazard contact, never by ignition.
	KindHuman: {Traversable: false, Flammable: false, SpreadsSmoke: true, Visibility: 2},
}

// CapsFor returns the capability set for a kind.
func CapsFor(k Kind) Caps {
	return kindCaps[k]
}

// Occupant is anything that can be placed on a grid cell.
type Occupant interface {
	Kind() Kind
	Pos() Cell
	setPos(Cell)
}

// Traversable reports whether an agent may end a move on the occupant's
// cell. Humans are a dynamic case: an incapacitated human no longer blocks.
func Traversable(o Occupant) bool {
	switch o.Kind() {
	case KindHuman:
		return o.(*Human).mobility == MobilityIncapacitated
	default:
		return kindCaps[o.Kind()].Traversable
	}
}

// VisibilityScore returns how many smoke-occlusion units the occupant can be
// seen through. Sight markers return the sentinel and are never visible.
func VisibilityScore(o Occupant) int {
	return kindCaps[o.Kind()].Visibility
}

// Floor is a static floor object: wall, door, fire exit, furniture, or one
// of the marker kinds (dead-human, sight).
type Floor struct {
	kind Kind
	pos  Cell
}

// NewFloor creates a static floor object of the given kind.
func NewFloor(kind Kind, pos Cell) *Floor {
	return &Floor{kind: kind, pos: pos}
}

func (f *Floor) Kind() Kind    { return f.kind }
func (f *Floor) Pos() Cell     { return f.pos }
func (f *Floor) setPos(c Cell) { f.pos = c }
