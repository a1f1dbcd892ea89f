package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

const examCols = `id, title, description, subject, grade, duration, total_questions,
	passing_score, active, created_by, created_at, updated_at`

func scanExam(row interface{ Scan(...any) error }) (model.Exam, error) {
	var e model.Exam
	var created, updated string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Subject, &e.Grade, &e.Duration,
		&e.TotalQuestions, &e.PassingScore, &e.Active, &e.CreatedBy, &created, &updated)
	if err != nil {
		return e, err
	}
	e.CreatedAt = parseDocTimeLenient(created)
	e.UpdatedAt = parseDocTimeLenient(updated)
	return e, nil
}

// InsertExam stores an exam, generating an ID when absent.
func (s *Store) InsertExam(ctx context.Context, e model.Exam) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exams (`+examCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Subject, e.Grade, e.Duration, e.TotalQuestions,
		e.PassingScore, e.Active, e.CreatedBy, formatDocTime(e.CreatedAt), formatDocTime(e.UpdatedAt),
	)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// GetExam returns an exam by ID, or nil when missing.
func (s *Store) GetExam(ctx context.Context, id string) (*model.Exam, error) {
	e, err := scanExam(s.db.QueryRowContext(ctx,
		`SELECT `+examCols+` FROM exams WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) listExams(ctx context.Context, query string, args ...any) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListExams returns all exams, newest first.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams ORDER BY created_at DESC`)
}

// ListActiveExams returns exams flagged active.
func (s *Store) ListActiveExams(ctx context.Context) ([]model.Exam, error) {
	return s.listExams(ctx, `SELECT `+examCols+` FROM exams WHERE active = 1 ORDER BY created_at DESC`)
}

// UpdateExam overwrites an exam's mutable fields.
func (s *Store) UpdateExam(ctx context.Context, e model.Exam) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE exams SET title = ?, description = ?, subject = ?, grade = ?, duration = ?,
		 total_questions = ?, passing_score = ?, active = ?, updated_at = ? WHERE id = ?`,
		e.Title, e.Description, e.Subject, e.Grade, e.Duration,
		e.TotalQuestions, e.PassingScore, e.Active, formatDocTime(time.Now()), e.ID,
	)
	return err
}

// DeleteExam removes an exam and its questions.
func (s *Store) DeleteExam(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE exam_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id = ?`, id)
	return err
}

// CountExams returns the total number of exams.
func (s *Store) CountExams(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

// CountActiveExams returns the number of exams flagged active.
func (s *Store) CountActiveExams(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams WHERE active = 1`).Scan(&count)
	return count, err
}
