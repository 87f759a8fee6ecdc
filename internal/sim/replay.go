package sim

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ReplayFrame is one tick's worth of replayable state.
type ReplayFrame struct {
	Tick   int            `json:"tick"`
	Humans []ReplayHuman  `json:"humans"`
	Cells  []ReplayHazard `json:"hazards,omitempty"`
}

// ReplayHuman is a human's snapshot within a frame.
type ReplayHuman struct {
	ID       int     `json:"id"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Health   float64 `json:"health"`
	Status   string  `json:"status"`
	Mobility string  `json:"mobility"`
}

// ReplayHazard marks a fire or smoke cell within a frame.
type ReplayHazard struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Kind string `json:"kind"`
}

// ReplayWriter streams zstd-compressed JSON-lines frames, one per tick.
type ReplayWriter struct {
	zw  *zstd.Encoder
	buf *bufio.Writer
}

// NewReplayWriter wraps w. Callers must Close to flush the zstd frame.
func NewReplayWriter(w io.Writer) (*ReplayWriter, error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return &ReplayWriter{zw: zw, buf: bufio.NewWriter(zw)}, nil
}

// WriteFrame captures the model's current state as one frame.
func (rw *ReplayWriter) WriteFrame(m *Model) error {
	frame := ReplayFrame{Tick: m.Tick()}
	for _, h := range m.Humans() {
		if h.Status() != StatusAlive {
			continue
		}
		frame.Humans = append(frame.Humans, ReplayHuman{
			ID:       h.ID(),
			X:        h.Pos().X,
			Y:        h.Pos().Y,
			Health:   h.Health(),
			Status:   h.Status().String(),
			Mobility: h.Mobility().String(),
		})
	}
	g := m.Grid()
	for y := 0; y < g.Height(); y++ {
		for x := 0; x < g.Width(); x++ {
			c := Cell{X: x, Y: y}
			if g.HasKind(c, KindFire) {
				frame.Cells = append(frame.Cells, ReplayHazard{X: x, Y: y, Kind: "fire"})
			} else if g.HasKind(c, KindSmoke) {
				frame.Cells = append(frame.Cells, ReplayHazard{X: x, Y: y, Kind: "smoke"})
			}
		}
	}

	raw, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if _, err := rw.buf.Write(raw); err != nil {
		return err
	}
	return rw.buf.WriteByte('\n')
}

// Close flushes and finalizes the compressed stream.
func (rw *ReplayWriter) Close() error {
	if err := rw.buf.Flush(); err != nil {
		return err
	}
	return rw.zw.Close()
}

// ReadReplay decodes a full replay stream back into frames.
func ReadReplay(r io.Reader) ([]ReplayFrame, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer zr.Close()

	var frames []ReplayFrame
	sc := bufio.NewScanner(zr)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<24)
	for sc.Scan() {
		var f ReplayFrame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return nil, fmt.Errorf("replay frame: %w", err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
