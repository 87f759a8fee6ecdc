// Package results provides SQLite-based storage for batch-run outcomes.
package results

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for run-result persistence.
type DB struct {
	conn *sqlx.DB
}

// Run is one completed simulation run.
type Run struct {
	ID                string    `db:"id"`
	StartedAt         time.Time `db:"started_at"`
	Floorplan         string    `db:"floorplan"`
	Seed              int64     `db:"seed"`
	Humans            int       `db:"humans"`
	CollaborationRate float64   `db:"collaboration_rate"`
	FireProbability   float64   `db:"fire_probability"`
	Ticks             int       `db:"ticks"`
	Escaped           int       `db:"escaped"`
	Dead              int       `db:"dead"`
	VerbalCollabs     int       `db:"verbal_collabs"`
	MoraleCollabs     int       `db:"morale_collabs"`
	PhysicalCollabs   int       `db:"physical_collabs"`
}

// EscapeRate returns the fraction of humans that got out.
func (r Run) EscapeRate() float64 {
	total := r.Escaped + r.Dead
	if total == 0 {
		return 0
	}
	return float64(r.Escaped) / float64(total)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		floorplan TEXT NOT NULL,
		seed INTEGER NOT NULL,
		humans INTEGER NOT NULL,
		collaboration_rate REAL NOT NULL,
		fire_probability REAL NOT NULL,
		ticks INTEGER NOT NULL,
		escaped INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		verbal_collabs INTEGER NOT NULL,
		morale_collabs INTEGER NOT NULL,
		physical_collabs INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_params
		ON runs (floorplan, humans, collaboration_rate, fire_probability);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// InsertRun stores one run, assigning it a fresh ID when empty, and
// returns the stored record.
func (db *DB) InsertRun(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	_, err := db.conn.NamedExec(`
		INSERT INTO runs (id, started_at, floorplan, seed, humans,
			collaboration_rate, fire_probability, ticks, escaped, dead,
			verbal_collabs, morale_collabs, physical_collabs)
		VALUES (:id, :started_at, :floorplan, :seed, :humans,
			:collaboration_rate, :fire_probability, :ticks, :escaped, :dead,
			:verbal_collabs, :morale_collabs, :physical_collabs)`, r)
	if err != nil {
		return r, fmt.Errorf("insert run: %w", err)
	}
	slog.Debug("run stored", "id", r.ID, "escaped", r.Escaped, "dead", r.Dead)
	return r, nil
}

// ListRuns returns all stored runs, newest first.
func (db *DB) ListRuns() ([]Run, error) {
	var runs []Run
	if err := db.conn.Select(&runs, `SELECT * FROM runs ORDER BY started_at DESC`); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ParamSummary aggregates runs sharing one parameter combination.
type ParamSummary struct {
	Humans            int     `db:"humans"`
	CollaborationRate float64 `db:"collaboration_rate"`
	FireProbability   float64 `db:"fire_probability"`
	Runs              int     `db:"runs"`
	AvgEscaped        float64 `db:"avg_escaped"`
	AvgDead           float64 `db:"avg_dead"`
	AvgTicks          float64 `db:"avg_ticks"`
}

// Summarize groups stored runs by parameter combination.
func (db *DB) Summarize() ([]ParamSummary, error) {
	var out []ParamSummary
	err := db.conn.Select(&out, `
		SELECT humans, collaboration_rate, fire_probability,
			COUNT(*) AS runs,
			AVG(escaped) AS avg_escaped,
			AVG(dead) AS avg_dead,
			AVG(ticks) AS avg_ticks
		FROM runs
		GROUP BY humans, collaboration_rate, fire_probability
		ORDER BY humans, collaboration_rate, fire_probability`)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return out, nil
}
