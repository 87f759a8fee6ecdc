package sim

import "fmt"

const thoughtLogCap = 60

// ThoughtEntry is a single recorded agent decision.
type ThoughtEntry struct {
	Tick    int
	Label   string
	Message string
}

func (e ThoughtEntry) String() string {
	return fmt.Sprintf("%4d [%s] %s", e.Tick, e.Label, e.Message)
}

// ThoughtLog is a fixed-capacity ring buffer of an agent's recent decisions.
// It exists for inspection (viewer panel, test dumps); the machine-readable
// record is the model's SimLog.
type ThoughtLog struct {
	entries []ThoughtEntry
	head    int
	count   int
}

// NewThoughtLog creates a thought log with a fixed capacity.
func NewThoughtLog() *ThoughtLog {
	return &ThoughtLog{entries: make([]ThoughtEntry, thoughtLogCap)}
}

// Add appends an entry to the log.
func (tl *ThoughtLog) Add(tick int, label, msg string) {
	tl.entries[tl.head] = ThoughtEntry{Tick: tick, Label: label, Message: msg}
	tl.head = (tl.head + 1) % thoughtLogCap
	if tl.count < thoughtLogCap {
		tl.count++
	}
}

// Recent returns entries in chronological order (oldest first).
func (tl *ThoughtLog) Recent() []ThoughtEntry {
	result := make([]ThoughtEntry, tl.count)
	for i := 0; i < tl.count; i++ {
		idx := (tl.head - tl.count + i + thoughtLogCap) % thoughtLogCap
		result[i] = tl.entries[idx]
	}
	return result
}
