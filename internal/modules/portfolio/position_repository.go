package portfolio

import (
	"database/sql"
	"fmt"
)

// PersistedPosition is the durable part of a position. Resolution state
// (profile, error) is not persisted; it is rebuilt from the profile
// cache on startup.
type PersistedPosition struct {
	ID        string
	Symbol    string
	Equity    float64
	CreatedAt int64 // Unix seconds
}

// PositionRepository provides access to the positions table.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Insert adds a new position row.
func (r *PositionRepository) Insert(p PersistedPosition) error {
	_, err := r.db.Exec(
		"INSERT INTO positions (id, symbol, equity, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Symbol, p.Equity, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", p.Symbol, err)
	}
	return nil
}

// Delete removes a position by ID. Returns whether a row was deleted.
func (r *PositionRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec("DELETE FROM positions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete position %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Exists reports whether a position row is present.
func (r *PositionRepository) Exists(id string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM positions WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check position %s: %w", id, err)
	}
	return true, nil
}

// List returns all positions ordered by creation time, oldest first.
// Insertion order is what makes aggregation output deterministic.
func (r *PositionRepository) List() ([]PersistedPosition, error) {
	rows, err := r.db.Query(
		"SELECT id, symbol, equity, created_at FROM positions ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []PersistedPosition
	for rows.Next() {
		var p PersistedPosition
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Equity, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate position rows: %w", err)
	}

	return positions, nil
}

// Count returns the number of positions.
func (r *PositionRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM positions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}
