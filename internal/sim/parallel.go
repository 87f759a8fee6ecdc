package sim

import (
	"runtime"
	"sync"
)

// ParallelStep advances the model one tick using a worker pool, mirroring
// the sequential Step. All shared-state access (grid, graph, carry
// relation) stays serialized behind a single mutex held for the whole of
// each agent's step, so every invariant of the sequential mode holds; the
// only relaxation is activation order, which is decided by goroutine
// scheduling instead of the shuffled slice order. Results are therefore
// valid runs of the model but not reproducible from the seed alone. This
// mode exists for scheduling experiments, not for speed: with a whole-step
// lock there is no parallel computation inside a tick.
func (m *Model) ParallelStep() {
	m.tick++
	m.clearSightMarkers()
	m.maybeIgnite()

	prev := m.mobilitySnapshot()

	order := make([]Agent, len(m.agents))
	copy(order, m.agents)
	m.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	var mu sync.Mutex
	work := make(chan Agent)
	var wg sync.WaitGroup
	workers := runtime.NumCPU()
	if workers > len(order) {
		workers = len(order)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range work {
				mu.Lock()
				a.Step()
				mu.Unlock()
			}
		}()
	}
	for _, a := range order {
		work <- a
	}
	close(work)
	wg.Wait()

	m.logMobilityChanges(prev)
	if m.CountStatus(StatusAlive) == 0 {
		m.running = false
	}
}
