package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"evacsim/internal/results"
	"evacsim/internal/sim"
)

type runStats struct {
	runIndex int
	seed     int64

	ticks   int
	alive   int
	dead    int
	escaped int

	firstFireTick   int
	firstPanicTick  int
	firstDeathTick  int
	firstEscapeTick int

	verbal   int
	morale   int
	physical int
	pushes   int
	retreats int
}

func main() {
	var (
		runs       int
		ticks      int
		humans     int
		collabRate float64
		fireProb   float64
		seedBase   int64
		seedStep   int64
		planPath   string
		tuningPath string
		dbPath     string
		replayPath string
		parallel   bool
	)

	flag.IntVar(&runs, "runs", 5, "number of simulation runs")
	flag.IntVar(&ticks, "ticks", 500, "maximum ticks per run")
	flag.IntVar(&humans, "humans", 20, "human agents per run")
	flag.Float64Var(&collabRate, "collab", 0.5, "fraction of humans that collaborate")
	flag.Float64Var(&fireProb, "fire-prob", 1.0, "probability a fire ignites")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&planPath, "floorplan", "", "floorplan file (blank = built-in office)")
	flag.StringVar(&tuningPath, "tuning", "", "optional yaml tuning file")
	flag.StringVar(&dbPath, "db", "", "optional sqlite file to store run results")
	flag.StringVar(&replayPath, "replay", "", "optional zstd replay output (first run only)")
	flag.BoolVar(&parallel, "parallel", false, "use the experimental worker-pool scheduler")
	flag.Parse()

	if runs <= 0 || ticks <= 0 || humans <= 0 {
		fmt.Println("error: -runs, -ticks and -humans must be > 0")
		os.Exit(2)
	}

	tuning := sim.DefaultTuning()
	if tuningPath != "" {
		var err error
		if tuning, err = sim.LoadTuning(tuningPath); err != nil {
			slog.Error("load tuning", "err", err)
			os.Exit(1)
		}
	}

	planText := sim.DefaultFloorplan
	planName := "builtin-office"
	if planPath != "" {
		raw, err := os.ReadFile(planPath)
		if err != nil {
			slog.Error("read floorplan", "err", err)
			os.Exit(1)
		}
		planText = string(raw)
		planName = planPath
	}
	fp, err := sim.ParseFloorplan(planText)
	if err != nil {
		slog.Error("parse floorplan", "err", err)
		os.Exit(1)
	}

	var db *results.DB
	if dbPath != "" {
		if db, err = results.Open(dbPath); err != nil {
			slog.Error("open results db", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	fmt.Printf("=== Evacuation Batch Report ===\n")
	fmt.Printf("floorplan=%s humans=%d collab=%.2f fire_prob=%.2f runs=%d ticks=%d seed_base=%d\n\n",
		planName, humans, collabRate, fireProb, runs, ticks, seedBase)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		replay := ""
		if i == 0 {
			replay = replayPath
		}
		rs := runOnce(i+1, seed, ticks, humans, collabRate, fireProb, fp, tuning, parallel, replay)
		all = append(all, rs)
		printRun(rs)

		if db != nil {
			_, err := db.InsertRun(results.Run{
				Floorplan:         planName,
				Seed:              seed,
				Humans:            humans,
				CollaborationRate: collabRate,
				FireProbability:   fireProb,
				Ticks:             rs.ticks,
				Escaped:           rs.escaped,
				Dead:              rs.dead,
				VerbalCollabs:     rs.verbal,
				MoraleCollabs:     rs.morale,
				PhysicalCollabs:   rs.physical,
			})
			if err != nil {
				slog.Error("store run", "err", err)
			}
		}
	}

	printAggregate(all)
}

func runOnce(runIndex int, seed int64, maxTicks, humans int, collabRate, fireProb float64,
	fp *sim.Floorplan, tuning sim.Tuning, parallel bool, replayPath string) runStats {

	m := sim.NewModel(fp, humans, collabRate,
		sim.WithTuning(tuning),
		sim.WithRNG(rand.New(rand.NewSource(seed))), // #nosec G404 -- simulation seeding
		sim.WithFireProbability(fireProb),
	)

	var replay *sim.ReplayWriter
	if replayPath != "" {
		f, err := os.Create(replayPath)
		if err != nil {
			slog.Error("create replay", "err", err)
		} else {
			defer f.Close()
			if replay, err = sim.NewReplayWriter(f); err != nil {
				slog.Error("replay writer", "err", err)
				replay = nil
			} else {
				defer replay.Close()
			}
		}
	}

	for t := 0; t < maxTicks && m.Running(); t++ {
		if parallel {
			m.ParallelStep()
		} else {
			m.Step()
		}
		if replay != nil {
			if err := replay.WriteFrame(m); err != nil {
				slog.Error("replay frame", "err", err)
			}
		}
	}

	log := m.SimLog()
	verbal, morale, physical := m.CollabTotals()
	return runStats{
		runIndex:        runIndex,
		seed:            seed,
		ticks:           m.Tick(),
		alive:           m.CountStatus(sim.StatusAlive),
		dead:            m.CountStatus(sim.StatusDead),
		escaped:         m.CountStatus(sim.StatusEscaped),
		firstFireTick:   log.FirstTick("fire", "started", ""),
		firstPanicTick:  log.FirstTick("mobility", "panic_enter", ""),
		firstDeathTick:  log.FirstTick("state", "death", ""),
		firstEscapeTick: log.FirstTick("state", "escaped", ""),
		verbal:          verbal,
		morale:          morale,
		physical:        physical,
		pushes:          log.CountCategory("move", "push"),
		retreats:        log.CountCategory("move", "retreat"),
	}
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("outcome: ticks=%d alive=%d dead=%d escaped=%d\n", rs.ticks, rs.alive, rs.dead, rs.escaped)
	fmt.Printf("phase_markers: fire=%d first_panic=%d first_death=%d first_escape=%d\n",
		rs.firstFireTick, rs.firstPanicTick, rs.firstDeathTick, rs.firstEscapeTick)
	fmt.Printf("collaborations: verbal=%d morale=%d physical=%d\n", rs.verbal, rs.morale, rs.physical)
	fmt.Printf("movement_events: push=%d retreat=%d\n\n", rs.pushes, rs.retreats)
}

func printAggregate(all []runStats) {
	var escaped, dead, verbal, morale, physical int
	escapeTicks := make([]int, 0, len(all))
	for _, rs := range all {
		escaped += rs.escaped
		dead += rs.dead
		verbal += rs.verbal
		morale += rs.morale
		physical += rs.physical
		if rs.firstEscapeTick >= 0 {
			escapeTicks = append(escapeTicks, rs.firstEscapeTick)
		}
	}
	total := escaped + dead
	rate := 0.0
	if total > 0 {
		rate = float64(escaped) / float64(total) * 100
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d\n", len(all))
	fmt.Printf("escape_rate=%.1f%% (escaped=%d dead=%d)\n", rate, escaped, dead)
	fmt.Printf("avg_collaborations_per_run: verbal=%.1f morale=%.1f physical=%.1f\n",
		avg(verbal, len(all)), avg(morale, len(all)), avg(physical, len(all)))
	fmt.Printf("first_escape_avg_tick=%s\n", avgTickString(escapeTicks))
}

func avg(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
