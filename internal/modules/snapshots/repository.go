package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Repository persists snapshots to the exposure_snapshots table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new snapshot repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save encodes and stores a snapshot, returning it with ID and TakenAt
// filled in.
func (r *Repository) Save(s Snapshot) (Snapshot, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	takenAt := time.Now().UTC()
	result, err := r.db.Exec(
		"INSERT INTO exposure_snapshots (taken_at, data) VALUES (?, ?)",
		takenAt.Unix(), data,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	s.ID = id
	s.TakenAt = takenAt
	return s, nil
}

// List returns snapshots newest first, up to limit (0 means no limit).
func (r *Repository) List(limit int) ([]Snapshot, error) {
	query := "SELECT id, taken_at, data FROM exposure_snapshots ORDER BY taken_at DESC, id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (r *Repository) Latest() (*Snapshot, error) {
	snapshots, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// Count returns the number of stored snapshots.
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM exposure_snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

func scanSnapshot(rows *sql.Rows) (Snapshot, error) {
	var (
		id      int64
		takenAt int64
		data    []byte
	)
	if err := rows.Scan(&id, &takenAt, &data); err != nil {
		return Snapshot{}, fmt.Errorf("failed to scan snapshot row: %w", err)
	}

	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot %d: %w", id, err)
	}

	s.ID = id
	s.TakenAt = time.Unix(takenAt, 0).UTC()
	return s, nil
}
