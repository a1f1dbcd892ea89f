package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sekolahdigital/adminpanel/internal/model"
)

// fakeStore is an in-memory Querier for assembler tests.
type fakeStore struct {
	students []model.Student
	exams    []model.Exam
	attempts []model.ExamAttempt // newest first

	studentsErr error
}

func (f *fakeStore) CountStudents(context.Context) (int, error) { return len(f.students), nil }
func (f *fakeStore) CountExams(context.Context) (int, error)    { return len(f.exams), nil }
func (f *fakeStore) CountAttempts(context.Context) (int, error) { return len(f.attempts), nil }

func (f *fakeStore) CountActiveExams(context.Context) (int, error) {
	n := 0
	for _, e := range f.exams {
		if e.Active {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) ListStudents(context.Context) ([]model.Student, error) {
	if f.studentsErr != nil {
		return nil, f.studentsErr
	}
	return f.students, nil
}

func (f *fakeStore) ListExams(context.Context) ([]model.Exam, error) { return f.exams, nil }

func (f *fakeStore) RecentAttempts(_ context.Context, limit int) ([]model.ExamAttempt, error) {
	if limit > len(f.attempts) {
		limit = len(f.attempts)
	}
	return f.attempts[:limit], nil
}

func (f *fakeStore) AttemptsByClass(_ context.Context, class string, limit int) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, a := range f.attempts {
		if a.StudentClass == class && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

func attempt(name, class, exam string, score float64, submitted time.Time) model.ExamAttempt {
	return model.ExamAttempt{
		StudentName:  name,
		StudentClass: class,
		ExamTitle:    exam,
		Score:        score,
		IsPassed:     score >= 70,
		SubmittedAt:  submitted,
	}
}

func classStore() *fakeStore {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeStore{
		students: []model.Student{
			{Name: "Zahra", Class: "6A", NISN: "001"},
			{Name: "Budi", Class: "6A", NISN: "002"},
			{Name: "Citra", Class: "6A", NISN: "003"},
			{Name: "Dewi", Class: "6B", NISN: "004"},
			{Name: "Eko", Class: "6B", NISN: "005"},
		},
		exams: []model.Exam{
			{Title: "Matematika Dasar", Subject: "Matematika", Grade: 6, Active: true},
			{Title: "IPA Semester 1", Subject: "IPA", Grade: 6, Active: true},
		},
		attempts: []model.ExamAttempt{
			attempt("Zahra", "6A", "Matematika Dasar", 90, base.Add(4*time.Hour)),
			attempt("Budi", "6A", "Matematika Dasar", 60, base.Add(3*time.Hour)),
			attempt("Citra", "6A", "Matematika Dasar", 40, base.Add(2*time.Hour)),
			attempt("Dewi", "6B", "IPA Semester 1", 80, base.Add(time.Hour)),
			attempt("Eko", "6B", "IPA Semester 1", 75, base),
		},
	}
}

func TestSummaryBlockAlwaysIncluded(t *testing.T) {
	b := New(classStore(), 0)

	got, err := b.RelevantContext(context.Background(), "halo")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}
	if !strings.Contains(got.Text, "STATISTIK UMUM") {
		t.Error("summary block missing")
	}
	if len(got.Sources) == 0 || got.Sources[0] != "summary_stats" {
		t.Errorf("Sources = %v, want summary_stats first", got.Sources)
	}
	if got.DataSize != len(got.Text) {
		t.Errorf("DataSize = %d, want %d", got.DataSize, len(got.Text))
	}
}

func TestClassScopedResults(t *testing.T) {
	b := New(classStore(), 0)

	got, err := b.RelevantContext(context.Background(), "Bagaimana kondisi kelas 6A?")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}

	// Results block holds exactly the 6A attempts, no 6B leakage.
	for _, name := range []string{"Zahra", "Budi", "Citra"} {
		if !strings.Contains(got.Text, name) {
			t.Errorf("results block missing 6A student %s", name)
		}
	}
	if strings.Contains(got.Text, "IPA Semester 1") {
		t.Error("results block leaked 6B attempts")
	}

	// Summary aggregates stay store-wide, not class-filtered.
	if !strings.Contains(got.Text, "Total Siswa: 5") {
		t.Error("summary should count all five students")
	}
	if !strings.Contains(got.Text, "Total Percobaan: 5") {
		t.Error("summary should count all five attempts")
	}

	found := false
	for _, src := range got.Sources {
		if src == "examAttempts" {
			found = true
		}
	}
	if !found {
		t.Errorf("Sources = %v, want examAttempts present", got.Sources)
	}
}

func TestIdempotence(t *testing.T) {
	b := New(classStore(), 0)
	ctx := context.Background()

	first, err := b.RelevantContext(ctx, "statistik nilai kelas 6A terbaru")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := b.RelevantContext(ctx, "statistik nilai kelas 6A terbaru")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.Text != second.Text {
		t.Error("context text differs between identical calls")
	}
	if fmt.Sprint(first.Sources) != fmt.Sprint(second.Sources) {
		t.Errorf("sources differ: %v vs %v", first.Sources, second.Sources)
	}
}

func TestUnknownNameGetsExplicitSentence(t *testing.T) {
	b := New(classStore(), 0)

	got, err := b.RelevantContext(context.Background(), "data siswa bernama nobita")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}
	if !strings.Contains(got.Text, "Tidak ditemukan siswa") {
		t.Error("expected explicit no-match sentence for unknown name")
	}
	found := false
	for _, src := range got.Sources {
		if src == "students_empty" {
			found = true
		}
	}
	if !found {
		t.Errorf("Sources = %v, want students_empty present", got.Sources)
	}
}

func TestCeilingTriggersSummaryFallback(t *testing.T) {
	store := classStore()
	// Enough rows that the itemized blocks overflow a small ceiling.
	base := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		store.attempts = append(store.attempts,
			attempt(fmt.Sprintf("Siswa%02d", i), "6A", "Matematika Dasar", float64(30+i), base.Add(time.Duration(i)*time.Minute)))
	}

	b := New(store, 400)
	got, err := b.RelevantContext(context.Background(), "berapa nilai rata-rata hasil ujian?")
	if err != nil {
		t.Fatalf("RelevantContext: %v", err)
	}
	if !strings.Contains(got.Text, "RINGKASAN DATA") {
		t.Error("expected aggregate summary fallback")
	}
	if !strings.Contains(got.Text, "PERFORMA TERTINGGI") || !strings.Contains(got.Text, "PERFORMA TERENDAH") {
		t.Error("fallback should list best and worst performers")
	}
	if !strings.Contains(got.Text, "DISTRIBUSI KELAS") {
		t.Error("fallback should include class size distribution")
	}
	last := got.Sources[len(got.Sources)-1]
	if last != "summary" {
		t.Errorf("last source = %q, want summary", last)
	}
}

func TestStudentBlockDegradesOnStoreError(t *testing.T) {
	store := classStore()
	store.studentsErr = errors.New("store offline")

	b := New(store, 0)
	got, err := b.RelevantContext(context.Background(), "sebutkan daftar semua murid")
	if err != nil {
		t.Fatalf("RelevantContext should degrade, got error: %v", err)
	}
	if !strings.Contains(got.Text, "STATISTIK UMUM") {
		t.Error("summary block should survive a student query failure")
	}
	found := false
	for _, src := range got.Sources {
		if src == "students_unavailable" {
			found = true
		}
	}
	if !found {
		t.Errorf("Sources = %v, want students_unavailable annotation", got.Sources)
	}
}

func TestStatsSampleSize(t *testing.T) {
	b := New(classStore(), 0)
	stats, err := b.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.SampleSize != 5 {
		t.Errorf("SampleSize = %d, want 5", stats.SampleSize)
	}
	want := (90.0 + 60 + 40 + 80 + 75) / 5
	if stats.AverageScore != want {
		t.Errorf("AverageScore = %v, want %v", stats.AverageScore, want)
	}
	if stats.PassRate != 60 {
		t.Errorf("PassRate = %v, want 60 (three of five passed)", stats.PassRate)
	}
}
