// Package history persists parsed activities as an append-only workout log
// in SQLite. Each record wraps the immutable parsed activity as a JSON blob;
// coach narrative is attached on the record, never merged into the parse.
package history

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	runcoach "github.com/strideworks/runcoach"
)

// ErrNotFound is returned when no record carries the requested id.
var ErrNotFound = errors.New("history: record not found")

// Record is one stored workout.
type Record struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	CreatedAt       time.Time                `json:"created_at"`
	StartTime       time.Time                `json:"start_time"`
	DistanceM       float64                  `json:"distance_m"`
	DurationSec     float64                  `json:"duration_s"`
	AvgPaceSecPerKm float64                  `json:"avg_pace_s_per_km"`
	TrainingLoad    int                      `json:"training_load"`
	Activity        *runcoach.ParsedActivity `json:"activity,omitempty"`
	Narrative       string                   `json:"narrative,omitempty"`
	NarrativeSource string                   `json:"narrative_source,omitempty"`
}

// Stats summarizes the whole log.
type Stats struct {
	Workouts      int     `json:"workouts"`
	TotalKM       float64 `json:"total_km"`
	TotalDuration float64 `json:"total_duration_s"`
}

// Store is a SQLite-backed workout log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the workout database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		start_time TEXT NOT NULL,
		distance_m REAL NOT NULL,
		duration_s REAL NOT NULL,
		avg_pace_s_per_km REAL NOT NULL,
		training_load INTEGER NOT NULL,
		activity_json TEXT NOT NULL,
		narrative TEXT NOT NULL DEFAULT '',
		narrative_source TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_workouts_start_time ON workouts(start_time);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("history: create tables: %w", err)
	}
	return nil
}

// Save appends a workout to the log and returns the stored record. The
// record id is generated; records are never updated in place apart from
// narrative attachment.
func (s *Store) Save(name string, activity *runcoach.ParsedActivity) (*Record, error) {
	if activity == nil {
		return nil, fmt.Errorf("history: nil activity")
	}
	blob, err := json.Marshal(activity)
	if err != nil {
		return nil, fmt.Errorf("history: encode activity: %w", err)
	}

	rec := &Record{
		ID:              newID(),
		Name:            name,
		CreatedAt:       time.Now().UTC(),
		StartTime:       activity.StartTime,
		DistanceM:       activity.TotalDistanceM,
		DurationSec:     activity.TotalDurationSec,
		AvgPaceSecPerKm: activity.AvgPaceSecPerKm,
		TrainingLoad:    activity.TrainingLoad,
		Activity:        activity,
	}

	_, err = s.db.Exec(`
		INSERT INTO workouts
			(id, name, created_at, start_time, distance_m, duration_s,
			 avg_pace_s_per_km, training_load, activity_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name,
		rec.CreatedAt.Format(time.RFC3339),
		rec.StartTime.UTC().Format(time.RFC3339),
		rec.DistanceM, rec.DurationSec, rec.AvgPaceSecPerKm,
		rec.TrainingLoad, string(blob),
	)
	if err != nil {
		return nil, fmt.Errorf("history: insert workout: %w", err)
	}
	return rec, nil
}

// Get loads one record, including the full parsed activity.
func (s *Store) Get(id string) (*Record, error) {
	row := s.db.QueryRow(`
		SELECT id, name, created_at, start_time, distance_m, duration_s,
		       avg_pace_s_per_km, training_load, activity_json,
		       narrative, narrative_source
		FROM workouts WHERE id = ?`, id)

	rec, err := scanRecord(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

// List returns records newest first. The parsed activity blob is not
// loaded; use Get for the full record.
func (s *Store) List(limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, name, created_at, start_time, distance_m, duration_s,
		       avg_pace_s_per_km, training_load, narrative, narrative_source
		FROM workouts
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("history: list workouts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var createdAt, startTime string
		if err := rows.Scan(
			&rec.ID, &rec.Name, &createdAt, &startTime,
			&rec.DistanceM, &rec.DurationSec, &rec.AvgPaceSecPerKm,
			&rec.TrainingLoad, &rec.Narrative, &rec.NarrativeSource,
		); err != nil {
			return nil, fmt.Errorf("history: scan workout: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.StartTime, _ = time.Parse(time.RFC3339, startTime)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// AttachNarrative stores coach commentary on an existing record.
func (s *Store) AttachNarrative(id, source, narrative string) error {
	res, err := s.db.Exec(`
		UPDATE workouts SET narrative = ?, narrative_source = ? WHERE id = ?`,
		narrative, source, id)
	if err != nil {
		return fmt.Errorf("history: attach narrative: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates the whole log.
func (s *Store) Stats() (*Stats, error) {
	row := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(distance_m), 0), COALESCE(SUM(duration_s), 0)
		FROM workouts`)
	var st Stats
	var meters float64
	if err := row.Scan(&st.Workouts, &meters, &st.TotalDuration); err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	st.TotalKM = meters / 1000.0
	return &st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, withActivity bool) (*Record, error) {
	var rec Record
	var createdAt, startTime, blob string
	if err := row.Scan(
		&rec.ID, &rec.Name, &createdAt, &startTime,
		&rec.DistanceM, &rec.DurationSec, &rec.AvgPaceSecPerKm,
		&rec.TrainingLoad, &blob, &rec.Narrative, &rec.NarrativeSource,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if withActivity && blob != "" {
		var act runcoach.ParsedActivity
		if err := json.Unmarshal([]byte(blob), &act); err == nil {
			rec.Activity = &act
		}
	}
	return &rec, nil
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("w%d", time.Now().UnixNano())
	}
	return "w" + hex.EncodeToString(buf)
}
