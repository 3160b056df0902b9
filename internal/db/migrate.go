package db

import (
	"database/sql"
	"fmt"
	"strings"
)

func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'USER',
			create_time TEXT NOT NULL,
			update_time TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS personal_access_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token_prefix TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			last_used_at TEXT,
			expires_at TEXT,
			revoked_at TEXT,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			publisher TEXT NOT NULL DEFAULT '',
			examination TEXT NOT NULL,
			year TEXT NOT NULL DEFAULT '',
			paper TEXT NOT NULL DEFAULT '',
			question_type TEXT NOT NULL DEFAULT '',
			section TEXT NOT NULL DEFAULT '',
			question_number TEXT NOT NULL DEFAULT '',
			marks REAL,
			correct_percentage REAL,
			question_text_chi TEXT NOT NULL DEFAULT '',
			question_text_eng TEXT NOT NULL DEFAULT '',
			answer TEXT NOT NULL DEFAULT '',
			markers_report TEXT NOT NULL DEFAULT '',
			multiple_selection_type TEXT NOT NULL DEFAULT '-',
			graph_type TEXT NOT NULL DEFAULT '-',
			table_type TEXT NOT NULL DEFAULT '-',
			calculation_type TEXT NOT NULL DEFAULT '-',
			option_design TEXT NOT NULL DEFAULT '',
			remarks TEXT NOT NULL DEFAULT '',
			ai_explanation TEXT NOT NULL DEFAULT '',
			curriculum_json TEXT NOT NULL DEFAULT '[]',
			chapter_json TEXT NOT NULL DEFAULT '[]',
			concepts_json TEXT NOT NULL DEFAULT '[]',
			patterns_json TEXT NOT NULL DEFAULT '[]',
			date_added TEXT NOT NULL,
			date_modified TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_identity ON questions(examination, year, section, question_number);`,
		`CREATE TABLE IF NOT EXISTS question_metadata (
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			update_time TEXT NOT NULL,
			PRIMARY KEY(kind, name)
		);`,
		`CREATE TABLE IF NOT EXISTS system_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			update_time TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	hasAIExplanation, err := hasColumn(db, "questions", "ai_explanation")
	if err != nil {
		return err
	}
	if !hasAIExplanation {
		if _, err := db.Exec(`ALTER TABLE questions ADD COLUMN ai_explanation TEXT NOT NULL DEFAULT '';`); err != nil {
			return fmt.Errorf("add questions.ai_explanation: %w", err)
		}
	}

	hasPasswordHash, err := hasColumn(db, "users", "password_hash")
	if err != nil {
		return err
	}
	if !hasPasswordHash {
		if _, err := db.Exec(`ALTER TABLE users ADD COLUMN password_hash TEXT NOT NULL DEFAULT '';`); err != nil {
			return fmt.Errorf("add users.password_hash: %w", err)
		}
	}

	return nil
}

func hasColumn(db *sql.DB, tableName string, columnName string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, tableName))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var dataType string
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return false, fmt.Errorf("scan table_info(%s): %w", tableName, err)
		}
		if strings.EqualFold(name, columnName) {
			return true, nil
		}
	}
	return false, rows.Err()
}
