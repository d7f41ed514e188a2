package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Reference sequences table - stores reference dance metadata.
		// "references" itself is a reserved word in SQLite.
		`CREATE TABLE IF NOT EXISTS reference_sequences (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL DEFAULT '',
			frame_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			fps REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Reference frames table - one row per sampled frame, landmarks
		// serialized as JSON
		`CREATE TABLE IF NOT EXISTS reference_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			reference_id TEXT NOT NULL REFERENCES reference_sequences(id) ON DELETE CASCADE,
			frame_index INTEGER NOT NULL,
			timestamp_ms INTEGER NOT NULL,
			landmarks TEXT NOT NULL
		)`,

		// Sessions table - one row per practice run against a reference
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			reference_id TEXT NOT NULL REFERENCES reference_sequences(id) ON DELETE CASCADE,
			preset TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL DEFAULT '{}',
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			avg_score REAL NOT NULL DEFAULT 0,
			min_score REAL NOT NULL DEFAULT 0,
			max_score REAL NOT NULL DEFAULT 0
		)`,

		// Feedback items table - coaching notes generated when a session ends
		`CREATE TABLE IF NOT EXISTS feedback_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			severity TEXT NOT NULL,
			start_ms INTEGER NOT NULL,
			end_ms INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_reference_frames_reference_id ON reference_frames(reference_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_reference_id ON sessions(reference_id)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_items_session_id ON feedback_items(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
