package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the sqlite database backing the four data collections
// (students, exams, exam_attempts, questions) plus panel users and
// auth sessions. The AI core only ever calls its read methods.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		nisn TEXT NOT NULL DEFAULT '',
		class TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		grade INTEGER NOT NULL DEFAULT 0,
		duration INTEGER NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		passing_score INTEGER NOT NULL DEFAULT 70,
		active INTEGER NOT NULL DEFAULT 1,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		question_number INTEGER NOT NULL DEFAULT 0,
		question_text TEXT NOT NULL,
		option_a TEXT NOT NULL DEFAULT '',
		option_b TEXT NOT NULL DEFAULT '',
		option_c TEXT NOT NULL DEFAULT '',
		option_d TEXT NOT NULL DEFAULT '',
		correct_answer INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT '',
		explanation TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE TABLE IF NOT EXISTS exam_attempts (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		exam_title TEXT NOT NULL DEFAULT '',
		student_id TEXT NOT NULL,
		student_name TEXT NOT NULL DEFAULT '',
		student_class TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		total_questions INTEGER NOT NULL DEFAULT 0,
		correct_answers INTEGER NOT NULL DEFAULT 0,
		incorrect_answers INTEGER NOT NULL DEFAULT 0,
		unanswered INTEGER NOT NULL DEFAULT 0,
		time_spent INTEGER NOT NULL DEFAULT 0,
		is_passed INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL DEFAULT '',
		submitted_at TEXT NOT NULL DEFAULT '',
		submitted_at_unix INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_attempts_class ON exam_attempts(student_class);
	CREATE INDEX IF NOT EXISTS idx_attempts_submitted ON exam_attempts(submitted_at_unix);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'admin',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// Databases created before the sortable epoch column existed get it
	// added here; the create-table statement above already carries it
	// for fresh databases, so the duplicate-column error is expected.
	if _, err := s.db.Exec(
		`ALTER TABLE exam_attempts ADD COLUMN submitted_at_unix INTEGER NOT NULL DEFAULT 0`,
	); err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return err
	}
	return s.backfillSubmittedUnix()
}

// backfillSubmittedUnix fills submitted_at_unix for legacy rows. The
// submission instant was written in three text shapes whose string
// ordering disagrees with time ordering, so every query that orders or
// limits by recency goes through this normalized column instead.
func (s *Store) backfillSubmittedUnix() error {
	rows, err := s.db.Query(
		`SELECT id, submitted_at FROM exam_attempts WHERE submitted_at_unix = 0 AND submitted_at != ''`)
	if err != nil {
		return err
	}
	type pending struct {
		id   string
		unix int64
	}
	var updates []pending
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return err
		}
		if t := parseDocTimeLenient(raw); !t.IsZero() {
			updates = append(updates, pending{id, t.Unix()})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, u := range updates {
		if _, err := s.db.Exec(
			`UPDATE exam_attempts SET submitted_at_unix = ? WHERE id = ?`, u.unix, u.id); err != nil {
			return fmt.Errorf("backfill attempt %s: %w", u.id, err)
		}
	}
	return nil
}
