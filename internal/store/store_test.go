package store

import (
	"context"
	"testing"
	"time"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestStudent(t *testing.T, s *Store, name, class string) string {
	t.Helper()
	id, err := s.InsertStudent(context.Background(), model.Student{
		Name:   name,
		NISN:   "nisn-" + name,
		Class:  class,
		Active: true,
	})
	if err != nil {
		t.Fatalf("insertTestStudent: %v", err)
	}
	return id
}

func insertTestAttempt(t *testing.T, s *Store, name, class, exam string, score float64, passed bool, submitted time.Time) string {
	t.Helper()
	id, err := s.InsertAttempt(context.Background(), model.ExamAttempt{
		ExamID:       "exam-1",
		ExamTitle:    exam,
		StudentID:    "student-1",
		StudentName:  name,
		StudentClass: class,
		Score:        score,
		IsPassed:     passed,
		SubmittedAt:  submitted,
	})
	if err != nil {
		t.Fatalf("insertTestAttempt: %v", err)
	}
	return id
}

func TestStudentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.CountStudents(ctx)
	if err != nil {
		t.Fatalf("CountStudents: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 students, got %d", count)
	}

	id := insertTestStudent(t, s, "Budi Santoso", "6A")
	st, err := s.GetStudent(ctx, id)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if st == nil {
		t.Fatal("expected a student, got nil")
	}
	if st.Name != "Budi Santoso" || st.Class != "6A" {
		t.Errorf("got %q/%q, want Budi Santoso/6A", st.Name, st.Class)
	}
	if st.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set on insert")
	}

	// Missing students come back nil without an error.
	missing, err := s.GetStudent(ctx, "no-such-id")
	if err != nil {
		t.Fatalf("GetStudent(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}

	// Update and re-read.
	st.Class = "6B"
	if err := s.UpdateStudent(ctx, *st); err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	st, err = s.GetStudent(ctx, id)
	if err != nil {
		t.Fatalf("GetStudent after update: %v", err)
	}
	if st.Class != "6B" {
		t.Errorf("class = %q, want 6B", st.Class)
	}

	// List is ordered by name.
	insertTestStudent(t, s, "Ani Lestari", "6A")
	list, err := s.ListStudents(ctx)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 students, got %d", len(list))
	}
	if list[0].Name != "Ani Lestari" {
		t.Errorf("list[0] = %q, want Ani Lestari", list[0].Name)
	}

	if err := s.DeleteStudent(ctx, id); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	count, _ = s.CountStudents(ctx)
	if count != 1 {
		t.Errorf("expected 1 student after delete, got %d", count)
	}
}

func TestExamCRUDAndQuestions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	examID, err := s.InsertExam(ctx, model.Exam{
		Title:          "Matematika Dasar",
		Subject:        "Matematika",
		Grade:          6,
		TotalQuestions: 2,
		PassingScore:   70,
		Active:         true,
	})
	if err != nil {
		t.Fatalf("InsertExam: %v", err)
	}

	e, err := s.GetExam(ctx, examID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if e == nil || e.Title != "Matematika Dasar" {
		t.Fatalf("got %+v, want Matematika Dasar", e)
	}

	// Inactive exams stay out of the active list.
	if _, err := s.InsertExam(ctx, model.Exam{Title: "Ujian Lama", Active: false}); err != nil {
		t.Fatalf("InsertExam inactive: %v", err)
	}
	active, err := s.ListActiveExams(ctx)
	if err != nil {
		t.Fatalf("ListActiveExams: %v", err)
	}
	if len(active) != 1 || active[0].ID != examID {
		t.Errorf("active exams = %+v, want only %s", active, examID)
	}
	total, _ := s.CountExams(ctx)
	if total != 2 {
		t.Errorf("CountExams = %d, want 2", total)
	}
	activeCount, _ := s.CountActiveExams(ctx)
	if activeCount != 1 {
		t.Errorf("CountActiveExams = %d, want 1", activeCount)
	}

	// Questions keep their exam order.
	for i, text := range []string{"2 + 2 = ?", "3 x 3 = ?"} {
		_, err := s.InsertQuestion(ctx, model.Question{
			ExamID:         examID,
			QuestionNumber: i + 1,
			Text:           text,
			Options:        [4]string{"1", "4", "9", "12"},
			CorrectAnswer:  1,
		})
		if err != nil {
			t.Fatalf("InsertQuestion: %v", err)
		}
	}
	questions, err := s.ListQuestionsByExam(ctx, examID)
	if err != nil {
		t.Fatalf("ListQuestionsByExam: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Text != "2 + 2 = ?" || questions[0].QuestionNumber != 1 {
		t.Errorf("questions out of order: %+v", questions[0])
	}
	if questions[0].Options[1] != "4" {
		t.Errorf("options = %v", questions[0].Options)
	}

	// Deleting the exam removes its questions too.
	if err := s.DeleteExam(ctx, examID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	n, err := s.CountQuestionsByExam(ctx, examID)
	if err != nil {
		t.Fatalf("CountQuestionsByExam: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 questions after exam delete, got %d", n)
	}
}

func TestRecentAttemptsOrderAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	insertTestAttempt(t, s, "Budi", "6A", "Matematika Dasar", 80, true, base)
	insertTestAttempt(t, s, "Siti", "6A", "Matematika Dasar", 90, true, base.Add(2*time.Hour))
	insertTestAttempt(t, s, "Rina", "6B", "IPA Semester 1", 50, false, base.Add(time.Hour))

	recent, err := s.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAttempts: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(recent))
	}
	if recent[0].StudentName != "Siti" || recent[2].StudentName != "Budi" {
		t.Errorf("wrong order: %s, %s, %s", recent[0].StudentName, recent[1].StudentName, recent[2].StudentName)
	}

	byClass, err := s.AttemptsByClass(ctx, "6A", 10)
	if err != nil {
		t.Fatalf("AttemptsByClass: %v", err)
	}
	if len(byClass) != 2 {
		t.Fatalf("expected 2 attempts for 6A, got %d", len(byClass))
	}

	byExam, err := s.AttemptsByExam(ctx, "exam-1", 1)
	if err != nil {
		t.Fatalf("AttemptsByExam: %v", err)
	}
	if len(byExam) != 1 {
		t.Fatalf("expected 1 attempt with limit 1, got %d", len(byExam))
	}

	count, _ := s.CountAttempts(ctx)
	if count != 3 {
		t.Errorf("CountAttempts = %d, want 3", count)
	}
}

func TestUserAndAuthSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: "x",
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id || u.Role != model.UserRoleAdmin {
		t.Fatalf("got %+v", u)
	}

	missing, err := s.GetUserByUsername(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetUserByUsername(missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil, got %+v", missing)
	}

	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(ctx, token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("got %+v", sess)
	}

	if err := s.DeleteAuthSession(ctx, token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(ctx, token)
	if err != nil {
		t.Fatalf("GetAuthSession after delete: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil after delete, got %+v", sess)
	}
}

func TestExpiredAuthSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, model.User{Username: "admin", PasswordHash: "x", Role: model.UserRoleAdmin, Active: true})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	// Force an already-expired session.
	past := time.Now().Add(-time.Hour)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		"stale-token", id, past.Add(-authSessionTTL), past); err != nil {
		t.Fatalf("insert stale session: %v", err)
	}

	sess, err := s.GetAuthSession(ctx, "stale-token")
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil for an expired session, got %+v", sess)
	}

	// The expired row is gone afterwards.
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_sessions WHERE id = 'stale-token'`).Scan(&n); err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if n != 0 {
		t.Errorf("expired session row still present")
	}
}
