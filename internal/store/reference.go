package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/seanbenoit06/dancetrainer/internal/reference"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Reference represents a stored reference dance sequence.
type Reference struct {
	ID         string
	Name       string
	Source     string
	FrameCount int
	DurationMs int64
	FPS        float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReferenceRepository provides CRUD operations for reference sequences.
type ReferenceRepository struct {
	db *sql.DB
}

// References returns the reference repository for this store.
func (s *Store) References() *ReferenceRepository {
	return &ReferenceRepository{db: s.db}
}

// Create inserts a reference and its frames in a single transaction.
// The frame count is taken from the records, not the caller.
func (r *ReferenceRepository) Create(ref *Reference, frames []reference.FrameRecord) error {
	now := time.Now()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	ref.FrameCount = len(frames)

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO reference_sequences (id, name, source, frame_count, duration_ms, fps, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.ID, ref.Name, ref.Source, ref.FrameCount, ref.DurationMs, ref.FPS, ref.CreatedAt, ref.UpdatedAt,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO reference_frames (reference_id, frame_index, timestamp_ms, landmarks)
		 VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		landmarks, err := json.Marshal(f.Landmarks)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(ref.ID, f.FrameIndex, f.TimestampMs, string(landmarks)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID retrieves a reference by its ID.
func (r *ReferenceRepository) GetByID(id string) (*Reference, error) {
	ref := &Reference{}

	err := r.db.QueryRow(
		`SELECT id, name, source, frame_count, duration_ms, fps, created_at, updated_at
		 FROM reference_sequences WHERE id = ?`,
		id,
	).Scan(&ref.ID, &ref.Name, &ref.Source, &ref.FrameCount, &ref.DurationMs, &ref.FPS, &ref.CreatedAt, &ref.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return ref, nil
}

// GetByName retrieves a reference by its name.
func (r *ReferenceRepository) GetByName(name string) (*Reference, error) {
	ref := &Reference{}

	err := r.db.QueryRow(
		`SELECT id, name, source, frame_count, duration_ms, fps, created_at, updated_at
		 FROM reference_sequences WHERE name = ?`,
		name,
	).Scan(&ref.ID, &ref.Name, &ref.Source, &ref.FrameCount, &ref.DurationMs, &ref.FPS, &ref.CreatedAt, &ref.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return ref, nil
}

// List retrieves all references, newest first.
func (r *ReferenceRepository) List() ([]*Reference, error) {
	rows, err := r.db.Query(
		`SELECT id, name, source, frame_count, duration_ms, fps, created_at, updated_at
		 FROM reference_sequences ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []*Reference
	for rows.Next() {
		ref := &Reference{}
		err := rows.Scan(&ref.ID, &ref.Name, &ref.Source, &ref.FrameCount, &ref.DurationMs, &ref.FPS, &ref.CreatedAt, &ref.UpdatedAt)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refs, nil
}

// Frames retrieves the frame records of a reference in frame order.
// Returns ErrNotFound when the reference does not exist.
func (r *ReferenceRepository) Frames(referenceID string) ([]reference.FrameRecord, error) {
	if _, err := r.GetByID(referenceID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT frame_index, timestamp_ms, landmarks
		 FROM reference_frames
		 WHERE reference_id = ?
		 ORDER BY frame_index`,
		referenceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []reference.FrameRecord
	for rows.Next() {
		var f reference.FrameRecord
		var landmarks string
		if err := rows.Scan(&f.FrameIndex, &f.TimestampMs, &landmarks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(landmarks), &f.Landmarks); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// Delete removes a reference by its ID. Frames and sessions cascade.
func (r *ReferenceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM reference_sequences WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
