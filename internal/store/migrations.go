package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Runs (one row per completed activity)
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			date TEXT NOT NULL,
			distance REAL NOT NULL,
			duration INTEGER NOT NULL,
			pace TEXT NOT NULL,
			calories INTEGER NOT NULL,
			type TEXT NOT NULL,
			coordinates TEXT NOT NULL DEFAULT '[]',
			start_location TEXT,
			end_location TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_owner_instant ON runs(owner_id, julianday(date))`,

		// Achievement catalog with unlock state, ordered by position
		`CREATE TABLE IF NOT EXISTS achievements (
			owner_id TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			icon TEXT NOT NULL,
			category TEXT NOT NULL,
			gender TEXT,
			distance TEXT NOT NULL,
			target_time TEXT,
			is_unlocked INTEGER NOT NULL DEFAULT 0,
			unlocked_at TEXT,
			progress INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (owner_id, id)
		)`,

		// Notification log, position 0 is the most recent
		`CREATE TABLE IF NOT EXISTS reward_notifications (
			owner_id TEXT NOT NULL,
			id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			icon TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			type TEXT NOT NULL,
			PRIMARY KEY (owner_id, id)
		)`,

		// Remote backend credentials (one row per owner)
		`CREATE TABLE IF NOT EXISTS credentials (
			owner_id TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
