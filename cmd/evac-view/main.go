package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math/rand"
	"os"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"evacsim/internal/sim"
)

const (
	cellPx        = 24
	panelWidth    = 320
	ticksPerSec   = 5 // sim ticks per second at 60 fps
	logLineHeight = 12
)

// viewer drives one model run and renders it.
type viewer struct {
	model  *sim.Model
	fp     *sim.Floorplan
	tuning sim.Tuning

	humans     int
	collabRate float64
	fireProb   float64
	seed       int64

	paused     bool
	frameCount int
	status     string
}

func newViewer(fp *sim.Floorplan, tuning sim.Tuning, humans int, collabRate, fireProb float64, seed int64) *viewer {
	v := &viewer{
		fp:         fp,
		tuning:     tuning,
		humans:     humans,
		collabRate: collabRate,
		fireProb:   fireProb,
		seed:       seed,
	}
	v.restart()
	return v
}

func (v *viewer) restart() {
	v.model = sim.NewModel(v.fp, v.humans, v.collabRate,
		sim.WithTuning(v.tuning),
		sim.WithRNG(rand.New(rand.NewSource(v.seed))), // #nosec G404 -- visualization
		sim.WithFireProbability(v.fireProb),
		sim.WithVisionMarkers(true),
	)
	v.status = fmt.Sprintf("seed=%d", v.seed)
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.seed++
		v.restart()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) && v.paused {
		v.model.Step()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		summary := v.model.SimLog().Summary(v.model)
		if err := clipboard.WriteAll(summary); err != nil {
			v.status = "clipboard: " + err.Error()
		} else {
			v.status = "summary copied"
		}
	}

	if v.paused || !v.model.Running() {
		return nil
	}
	v.frameCount++
	if v.frameCount%(60/ticksPerSec) == 0 {
		v.model.Step()
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	g := v.model.Grid()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := sim.Cell{X: x, Y: y}
			vector.FillRect(screen,
				float32(x*cellPx), float32(y*cellPx), cellPx-1, cellPx-1,
				cellColor(v.model, c), false)
		}
	}
	v.drawPanel(screen, g.Width()*cellPx, g.Height()*cellPx)
}

// cellColor picks the display color of a cell's most salient occupant.
func cellColor(m *sim.Model, c sim.Cell) color.RGBA {
	g := m.Grid()
	var human *sim.Human
	for _, o := range g.Occupants(c) {
		if h, ok := o.(*sim.Human); ok {
			human = h
			break
		}
	}

	switch {
	case g.HasKind(c, sim.KindFire):
		return color.RGBA{R: 230, G: 80, B: 20, A: 255}
	case human != nil:
		switch human.Mobility() {
		case sim.MobilityPanic:
			return color.RGBA{R: 230, G: 200, B: 40, A: 255}
		case sim.MobilityIncapacitated:
			return color.RGBA{R: 120, G: 90, B: 150, A: 255}
		default:
			return color.RGBA{R: 60, G: 170, B: 230, A: 255}
		}
	case g.HasKind(c, sim.KindSmoke):
		return color.RGBA{R: 120, G: 120, B: 120, A: 255}
	case g.HasKind(c, sim.KindDeadHuman):
		return color.RGBA{R: 90, G: 40, B: 40, A: 255}
	case g.HasKind(c, sim.KindFireExit):
		return color.RGBA{R: 40, G: 200, B: 90, A: 255}
	case g.HasKind(c, sim.KindDoor):
		return color.RGBA{R: 170, G: 120, B: 60, A: 255}
	case g.HasKind(c, sim.KindFurniture):
		return color.RGBA{R: 110, G: 80, B: 40, A: 255}
	case g.HasKind(c, sim.KindWall):
		return color.RGBA{R: 40, G: 40, B: 48, A: 255}
	case g.HasKind(c, sim.KindSight):
		return color.RGBA{R: 36, G: 44, B: 36, A: 255}
	default:
		return color.RGBA{R: 24, G: 26, B: 30, A: 255}
	}
}

// drawPanel renders the side panel: run summary plus the thought log of the
// first human still alive.
func (v *viewer) drawPanel(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, panelWidth, float32(panelH),
		color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0,
		color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	face := basicfont.Face7x13
	m := v.model
	y := 16
	line := func(s string) {
		text.Draw(screen, s, face, panelX+8, y, color.RGBA{R: 200, G: 220, B: 200, A: 255})
		y += logLineHeight + 2
	}

	line(fmt.Sprintf("EVACUATION  T=%03d", m.Tick()))
	line(fmt.Sprintf("alive=%d dead=%d escaped=%d",
		m.CountStatus(sim.StatusAlive), m.CountStatus(sim.StatusDead), m.CountStatus(sim.StatusEscaped)))
	line(fmt.Sprintf("normal=%d panic=%d incap=%d",
		m.CountMobility(sim.MobilityNormal), m.CountMobility(sim.MobilityPanic), m.CountMobility(sim.MobilityIncapacitated)))
	verbal, morale, physical := m.CollabTotals()
	line(fmt.Sprintf("collab v=%d m=%d p=%d", verbal, morale, physical))
	line(v.status)
	if v.paused {
		line("[paused]  N=step")
	}
	line("space=pause r=restart c=copy")
	y += 6

	// Thought log for the first live human.
	for _, h := range m.Humans() {
		if h.Status() != sim.StatusAlive {
			continue
		}
		line(fmt.Sprintf("-- %s thoughts --", h.Label()))
		thoughts := h.Thoughts().Recent()
		start := 0
		if max := (panelH - y) / logLineHeight; len(thoughts) > max {
			start = len(thoughts) - max
		}
		for _, e := range thoughts[start:] {
			ebitenutil.DebugPrintAt(screen, e.String(), panelX+8, y)
			y += logLineHeight
		}
		break
	}
}

func (v *viewer) Layout(_, _ int) (int, int) {
	g := v.model.Grid()
	return g.Width()*cellPx + panelWidth, g.Height() * cellPx
}

func main() {
	var (
		humans     int
		collabRate float64
		fireProb   float64
		seed       int64
		planPath   string
		tuningPath string
	)
	flag.IntVar(&humans, "humans", 20, "human agents")
	flag.Float64Var(&collabRate, "collab", 0.5, "fraction of humans that collaborate")
	flag.Float64Var(&fireProb, "fire-prob", 1.0, "probability a fire ignites")
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.StringVar(&planPath, "floorplan", "", "floorplan file (blank = built-in office)")
	flag.StringVar(&tuningPath, "tuning", "", "optional yaml tuning file")
	flag.Parse()

	tuning := sim.DefaultTuning()
	if tuningPath != "" {
		var err error
		if tuning, err = sim.LoadTuning(tuningPath); err != nil {
			log.Fatal(err)
		}
	}

	planText := sim.DefaultFloorplan
	if planPath != "" {
		raw, err := os.ReadFile(planPath)
		if err != nil {
			log.Fatal(err)
		}
		planText = string(raw)
	}
	fp, err := sim.ParseFloorplan(planText)
	if err != nil {
		log.Fatal(err)
	}

	v := newViewer(fp, tuning, humans, collabRate, fireProb, seed)
	ebiten.SetWindowTitle("Evacuation Sim")
	ebiten.SetWindowSize(fp.Width*cellPx+panelWidth, fp.Height*cellPx)
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
