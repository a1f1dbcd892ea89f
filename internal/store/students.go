package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

const studentCols = `id, name, nisn, class, email, active, created_at, updated_at`

func scanStudent(row interface{ Scan(...any) error }) (model.Student, error) {
	var st model.Student
	var created, updated string
	err := row.Scan(&st.ID, &st.Name, &st.NISN, &st.Class, &st.Email, &st.Active, &created, &updated)
	if err != nil {
		return st, err
	}
	st.CreatedAt = parseDocTimeLenient(created)
	st.UpdatedAt = parseDocTimeLenient(updated)
	return st, nil
}

// InsertStudent stores a student, generating an ID when absent.
func (s *Store) InsertStudent(ctx context.Context, st model.Student) (string, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO students (`+studentCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.NISN, st.Class, st.Email, st.Active,
		formatDocTime(st.CreatedAt), formatDocTime(st.UpdatedAt),
	)
	if err != nil {
		return "", err
	}
	return st.ID, nil
}

// GetStudent returns a student by ID, or nil when missing.
func (s *Store) GetStudent(ctx context.Context, id string) (*model.Student, error) {
	st, err := scanStudent(s.db.QueryRowContext(ctx,
		`SELECT `+studentCols+` FROM students WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// ListStudents returns all students ordered by name.
func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+studentCols+` FROM students ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []model.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// UpdateStudent overwrites a student's mutable fields.
func (s *Store) UpdateStudent(ctx context.Context, st model.Student) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE students SET name = ?, nisn = ?, class = ?, email = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		st.Name, st.NISN, st.Class, st.Email, st.Active, formatDocTime(time.Now()), st.ID,
	)
	return err
}

// DeleteStudent removes a student.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	return err
}

// CountStudents returns the total number of students.
func (s *Store) CountStudents(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count)
	return count, err
}
