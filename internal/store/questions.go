package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

const questionCols = `id, exam_id, question_number, question_text,
	option_a, option_b, option_c, option_d, correct_answer, difficulty, explanation, created_at`

// InsertQuestion stores a question, generating an ID when absent.
func (s *Store) InsertQuestion(ctx context.Context, q model.Question) (string, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (`+questionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ExamID, q.QuestionNumber, q.Text,
		q.Options[0], q.Options[1], q.Options[2], q.Options[3],
		q.CorrectAnswer, q.Difficulty, q.Explanation, formatDocTime(q.CreatedAt),
	)
	if err != nil {
		return "", err
	}
	return q.ID, nil
}

// ListQuestionsByExam returns an exam's questions in question order.
func (s *Store) ListQuestionsByExam(ctx context.Context, examID string) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions WHERE exam_id = ? ORDER BY question_number`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var created string
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionNumber, &q.Text,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&q.CorrectAnswer, &q.Difficulty, &q.Explanation, &created); err != nil {
			return nil, err
		}
		q.CreatedAt = parseDocTimeLenient(created)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeleteQuestion removes a question.
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	return err
}

// CountQuestionsByExam returns how many questions an exam has.
func (s *Store) CountQuestionsByExam(ctx context.Context, examID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE exam_id = ?`, examID).Scan(&count)
	return count, err
}
