package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Session represents a practice run against a reference sequence.
type Session struct {
	ID          string
	ReferenceID string
	Preset      string
	Config      json.RawMessage
	StartedAt   time.Time
	EndedAt     *time.Time
	Frames      int
	AvgScore    float64
	MinScore    float64
	MaxScore    float64
}

// FeedbackItem is one coaching note generated for a finished session.
type FeedbackItem struct {
	ID        int64
	SessionID string
	Title     string
	Body      string
	Severity  string
	StartMs   int64
	EndMs     int64
	Accuracy  float64
	CreatedAt time.Time
}

// SessionRepository provides CRUD operations for sessions and their
// feedback.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(sess *Session) error {
	sess.StartedAt = time.Now()
	if len(sess.Config) == 0 {
		sess.Config = json.RawMessage("{}")
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, reference_id, preset, config, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.ReferenceID, sess.Preset, string(sess.Config), sess.StartedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	var config string
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, reference_id, preset, config, started_at, ended_at, frames, avg_score, min_score, max_score
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.ReferenceID, &sess.Preset, &config, &sess.StartedAt, &endedAt,
		&sess.Frames, &sess.AvgScore, &sess.MinScore, &sess.MaxScore)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sess.Config = json.RawMessage(config)
	if endedAt.Valid {
		sess.EndedAt = &endedAt.Time
	}
	return sess, nil
}

// List retrieves all sessions, newest first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, reference_id, preset, config, started_at, ended_at, frames, avg_score, min_score, max_score
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		var config string
		var endedAt sql.NullTime

		err := rows.Scan(&sess.ID, &sess.ReferenceID, &sess.Preset, &config, &sess.StartedAt, &endedAt,
			&sess.Frames, &sess.AvgScore, &sess.MinScore, &sess.MaxScore)
		if err != nil {
			return nil, err
		}

		sess.Config = json.RawMessage(config)
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Finish marks a session as ended and records its score summary.
func (r *SessionRepository) Finish(id string, frames int, avg, min, max float64) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, avg_score = ?, min_score = ?, max_score = ?
		 WHERE id = ?`,
		time.Now(), frames, avg, min, max, id,
	)
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

// Delete removes a session by its ID. Feedback items cascade.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
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

// SaveFeedback inserts feedback items for a session in a single
// transaction.
func (r *SessionRepository) SaveFeedback(sessionID string, items []FeedbackItem) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO feedback_items (session_id, title, body, severity, start_ms, end_ms, accuracy)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(sessionID, item.Title, item.Body, item.Severity,
			item.StartMs, item.EndMs, item.Accuracy); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FeedbackBySession retrieves the feedback items of a session in
// insertion order.
func (r *SessionRepository) FeedbackBySession(sessionID string) ([]FeedbackItem, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, title, body, severity, start_ms, end_ms, accuracy, created_at
		 FROM feedback_items
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []FeedbackItem
	for rows.Next() {
		var item FeedbackItem
		if err := rows.Scan(&item.ID, &item.SessionID, &item.Title, &item.Body, &item.Severity,
			&item.StartMs, &item.EndMs, &item.Accuracy, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
