package househelp

import (
	"database/sql"
	"fmt"
)

// Repository persists workers to SQLite so the roster survives restarts.
// The Store stays the source of truth while the process runs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a worker repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const upsertSQL = `INSERT INTO domestic_helps
	(id, name, category, phone, passcode, status, last_entry_at, last_exit_at, avatar_ref, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		last_entry_at = excluded.last_entry_at,
		last_exit_at = excluded.last_exit_at`

// Save inserts a worker or updates its status and timestamps.
func (r *Repository) Save(w Worker) error {
	if _, err := r.db.Exec(upsertSQL,
		w.ID, w.Name, string(w.Category), w.Phone, w.Passcode, string(w.Status),
		w.LastEntryAt, w.LastExitAt, w.AvatarRef, w.CreatedAt,
	); err != nil {
		return fmt.Errorf("saving worker %s: %w", w.ID, err)
	}
	return nil
}

// List returns all saved workers in the order they were first saved.
func (r *Repository) List() (workers []Worker, err error) {
	rows, err := r.db.Query(
		`SELECT id, name, category, phone, passcode, status, last_entry_at, last_exit_at, avatar_ref, created_at
		 FROM domestic_helps ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing workers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			workers = nil
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var w Worker
		var category, status string
		var lastEntry, lastExit sql.NullTime
		if err := rows.Scan(&w.ID, &w.Name, &category, &w.Phone, &w.Passcode, &status,
			&lastEntry, &lastExit, &w.AvatarRef, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning worker: %w", err)
		}
		w.Category = Category(category)
		w.Status = Status(status)
		if lastEntry.Valid {
			w.LastEntryAt = &lastEntry.Time
		}
		if lastExit.Valid {
			w.LastExitAt = &lastExit.Time
		}
		workers = append(workers, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workers: %w", err)
	}

	return workers, nil
}
