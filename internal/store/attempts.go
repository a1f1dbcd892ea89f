package store

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

const attemptCols = `id, exam_id, exam_title, student_id, student_name, student_class,
	score, total_questions, correct_answers, incorrect_answers, unanswered,
	time_spent, is_passed, started_at, submitted_at`

// InsertAttempt stores an exam attempt, generating an ID when absent.
func (s *Store) InsertAttempt(ctx context.Context, a model.ExamAttempt) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_attempts (`+attemptCols+`, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ExamID, a.ExamTitle, a.StudentID, a.StudentName, a.StudentClass,
		a.Score, a.TotalQuestions, a.CorrectAnswers, a.IncorrectAnswers, a.Unanswered,
		a.TimeSpent, a.IsPassed, formatDocTime(a.StartedAt), formatDocTime(a.SubmittedAt),
		a.SubmittedAt.Unix(),
	)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

func (s *Store) queryAttempts(ctx context.Context, query string, args ...any) ([]model.ExamAttempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		var started, submitted string
		if err := rows.Scan(&a.ID, &a.ExamID, &a.ExamTitle, &a.StudentID, &a.StudentName,
			&a.StudentClass, &a.Score, &a.TotalQuestions, &a.CorrectAnswers,
			&a.IncorrectAnswers, &a.Unanswered, &a.TimeSpent, &a.IsPassed,
			&started, &submitted); err != nil {
			return nil, err
		}
		a.StartedAt = parseDocTimeLenient(started)
		a.SubmittedAt = parseDocTimeLenient(submitted)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Window selection orders by the epoch column, which only carries
	// second precision; re-sort on the fully parsed values so rows
	// submitted within the same second come back in a stable order.
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].SubmittedAt.After(attempts[j].SubmittedAt)
	})
	return attempts, nil
}

// RecentAttempts returns the most recently submitted attempts, newest first.
func (s *Store) RecentAttempts(ctx context.Context, limit int) ([]model.ExamAttempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptCols+` FROM exam_attempts ORDER BY submitted_at_unix DESC LIMIT ?`, limit)
}

// AttemptsByClass returns attempts whose denormalized class label equals
// the given value. Callers fall back to substring filtering of the recent
// window when this indexed lookup comes up empty.
func (s *Store) AttemptsByClass(ctx context.Context, class string, limit int) ([]model.ExamAttempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptCols+` FROM exam_attempts WHERE student_class = ?
		 ORDER BY submitted_at_unix DESC LIMIT ?`, class, limit)
}

// AttemptsByExam returns attempts for one exam, newest first.
func (s *Store) AttemptsByExam(ctx context.Context, examID string, limit int) ([]model.ExamAttempt, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptCols+` FROM exam_attempts WHERE exam_id = ?
		 ORDER BY submitted_at_unix DESC LIMIT ?`, examID, limit)
}

// CountAttempts returns the total number of attempts.
func (s *Store) CountAttempts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exam_attempts`).Scan(&count)
	return count, err
}
