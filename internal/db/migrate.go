package db

import (
	"database/sql"
	"fmt"
)

// Migrate applies the schema. Every statement is idempotent so it runs on
// each open.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chat_log (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		channel    TEXT,
		role       TEXT NOT NULL CHECK(role IN ('user','assistant')),
		message    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_log_session ON chat_log(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_log_created ON chat_log(created_at)`,
}
