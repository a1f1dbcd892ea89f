// Package aitools implements the fixed set of read-only query tools the
// assistant exposes to the model. Every executor returns a JSON-shaped
// map; failures become {"error": reason} values instead of propagating,
// so a bad tool call can never abort the conversation turn.
package aitools

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sekolahdigital/adminpanel/internal/i18n"
	"github.com/sekolahdigital/adminpanel/internal/model"
)

// Bounds mirroring the context assembler: tools read a bounded recent
// window rather than scanning the attempt table.
const (
	recentWindow      = 100
	maxStudentResults = 20
	defaultResultRows = 10
	reportHistoryRows = 5
)

// Querier is the read-only slice of the store the tools consume.
type Querier interface {
	CountStudents(ctx context.Context) (int, error)
	CountExams(ctx context.Context) (int, error)
	CountAttempts(ctx context.Context) (int, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	ListActiveExams(ctx context.Context) ([]model.Exam, error)
	RecentAttempts(ctx context.Context, limit int) ([]model.ExamAttempt, error)
}

// Registry dispatches named tool calls against the store.
type Registry struct {
	store Querier
}

func New(store Querier) *Registry {
	return &Registry{store: store}
}

// Dispatch runs one named tool. Unknown names and executor errors come
// back as {"error": ...} results for the model to explain to the user.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) map[string]any {
	slog.Debug("tool call", "tool", name, "args", args)

	var result map[string]any
	var err error
	switch name {
	case "get_school_stats":
		result, err = r.SchoolStats(ctx)
	case "search_students":
		result, err = r.SearchStudents(ctx, stringArg(args, "name"), stringArg(args, "className"))
	case "get_exam_results":
		result, err = r.ExamResults(ctx, ResultsFilter{
			StudentName: stringArg(args, "studentName"),
			ClassName:   stringArg(args, "className"),
			ExamSubject: stringArg(args, "examSubject"),
			Limit:       intArg(args, "limitCount"),
		})
	case "get_exam_list":
		result, err = r.ExamList(ctx)
	case "get_student_report":
		result, err = r.StudentReport(ctx, stringArg(args, "studentName"), stringArg(args, "className"))
	default:
		return map[string]any{"error": fmt.Sprintf("unknown tool: %s", name)}
	}

	if err != nil {
		slog.Error("tool execution failed", "tool", name, "error", err)
		return map[string]any{"error": fmt.Sprintf("tool %s failed", name)}
	}
	return result
}

// SchoolStats returns aggregate counts plus mean score and pass rate
// over the recent-attempt sample. sample_size is always present so the
// model can qualify the sampled statistics instead of presenting them
// as exact.
func (r *Registry) SchoolStats(ctx context.Context) (map[string]any, error) {
	students, err := r.store.CountStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("count students: %w", err)
	}
	exams, err := r.store.CountExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("count exams: %w", err)
	}
	attempts, err := r.store.CountAttempts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	recent, err := r.store.RecentAttempts(ctx, recentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}

	var avgScore, passRate float64
	if len(recent) > 0 {
		var sum float64
		passed := 0
		for _, a := range recent {
			sum += a.Score
			if a.IsPassed {
				passed++
			}
		}
		avgScore = sum / float64(len(recent))
		passRate = float64(passed) / float64(len(recent)) * 100
	}

	return map[string]any{
		"totalStudents": students,
		"totalExams":    exams,
		"totalAttempts": attempts,
		"averageScore":  round1(avgScore),
		"passRate":      round1(passRate),
		"sampleSize":    len(recent),
	}, nil
}

// SearchStudents returns up to 20 students matching the optional name
// and class substrings, case-insensitively.
func (r *Registry) SearchStudents(ctx context.Context, name, className string) (map[string]any, error) {
	students, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var matched []map[string]any
	for _, s := range students {
		if className != "" && !strings.Contains(strings.ToLower(s.Class), strings.ToLower(className)) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(name)) {
			continue
		}
		matched = append(matched, map[string]any{
			"name":  s.Name,
			"class": s.Class,
			"nisn":  s.NISN,
			"email": s.Email,
		})
		if len(matched) == maxStudentResults {
			break
		}
	}
	return map[string]any{
		"students": matched,
		"count":    len(matched),
		"message":  i18n.Tp(ctx, "StudentsFound", len(matched)),
	}, nil
}

// ResultsFilter holds the optional filters for ExamResults.
type ResultsFilter struct {
	StudentName string
	ClassName   string
	ExamSubject string
	Limit       int
}

// ExamResults filters the bounded recent-attempt window by the optional
// substring filters and returns up to Limit rows (default 10).
func (r *Registry) ExamResults(ctx context.Context, f ResultsFilter) (map[string]any, error) {
	attempts, err := r.store.RecentAttempts(ctx, recentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}

	if f.ClassName != "" {
		attempts = filterAttempts(attempts, func(a model.ExamAttempt) bool {
			return strings.Contains(strings.ToLower(a.StudentClass), strings.ToLower(f.ClassName))
		})
	}
	if f.StudentName != "" {
		attempts = filterAttempts(attempts, func(a model.ExamAttempt) bool {
			return strings.Contains(strings.ToLower(a.StudentName), strings.ToLower(f.StudentName))
		})
	}
	if f.ExamSubject != "" {
		attempts = filterAttempts(attempts, func(a model.ExamAttempt) bool {
			return strings.Contains(strings.ToLower(a.ExamTitle), strings.ToLower(f.ExamSubject))
		})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultResultRows
	}
	if limit > len(attempts) {
		limit = len(attempts)
	}

	results := make([]map[string]any, 0, limit)
	for _, a := range attempts[:limit] {
		results = append(results, map[string]any{
			"student": a.StudentName,
			"class":   a.StudentClass,
			"exam":    a.ExamTitle,
			"score":   a.Score,
			"status":  passLabel(ctx, a.IsPassed),
			"date":    formatDate(a.SubmittedAt),
		})
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

// ExamList returns the active exams reduced to title/subject/grade/size.
func (r *Registry) ExamList(ctx context.Context) (map[string]any, error) {
	exams, err := r.store.ListActiveExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active exams: %w", err)
	}
	list := make([]map[string]any, 0, len(exams))
	for _, e := range exams {
		list = append(list, map[string]any{
			"title":          e.Title,
			"subject":        e.Subject,
			"grade":          e.Grade,
			"totalQuestions": e.TotalQuestions,
		})
	}
	return map[string]any{"exams": list, "count": len(list)}, nil
}

// StudentReport resolves the best-matching student and summarizes their
// attempt history. A missing student or an empty history comes back as a
// message result, never an error.
func (r *Registry) StudentReport(ctx context.Context, studentName, className string) (map[string]any, error) {
	if strings.TrimSpace(studentName) == "" {
		return map[string]any{"error": "studentName is required"}, nil
	}

	students, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	var matched []model.Student
	for _, s := range students {
		if className != "" && !strings.EqualFold(s.Class, className) {
			continue
		}
		if strings.Contains(strings.ToLower(s.Name), strings.ToLower(studentName)) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return map[string]any{"message": "Siswa tidak ditemukan."}, nil
	}
	student := matched[0]

	recent, err := r.store.RecentAttempts(ctx, recentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	var history []model.ExamAttempt
	for _, a := range recent {
		if strings.EqualFold(a.StudentName, student.Name) {
			history = append(history, a)
		}
	}

	if len(history) == 0 {
		return map[string]any{
			"student": student.Name,
			"class":   student.Class,
			"message": "Belum ada data ujian untuk siswa ini.",
		}, nil
	}

	var sum float64
	passed := 0
	best := history[0]
	for _, a := range history {
		sum += a.Score
		if a.IsPassed {
			passed++
		}
		if a.Score > best.Score {
			best = a
		}
	}

	sorted := make([]model.ExamAttempt, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})
	shown := min(len(sorted), reportHistoryRows)
	recentHistory := make([]map[string]any, 0, shown)
	for _, a := range sorted[:shown] {
		recentHistory = append(recentHistory, map[string]any{
			"exam":   a.ExamTitle,
			"score":  a.Score,
			"date":   formatDate(a.SubmittedAt),
			"status": passLabel(ctx, a.IsPassed),
		})
	}

	return map[string]any{
		"student":       student.Name,
		"class":         student.Class,
		"totalExams":    len(history),
		"averageScore":  round1(sum / float64(len(history))),
		"passRate":      fmt.Sprintf("%.0f%%", float64(passed)/float64(len(history))*100),
		"highestScore":  map[string]any{"exam": best.ExamTitle, "score": best.Score},
		"recentHistory": recentHistory,
	}, nil
}

func filterAttempts(attempts []model.ExamAttempt, keep func(model.ExamAttempt) bool) []model.ExamAttempt {
	var out []model.ExamAttempt
	for _, a := range attempts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func passLabel(ctx context.Context, passed bool) string {
	if passed {
		return i18n.T(ctx, "PassLabel")
	}
	return i18n.T(ctx, "FailLabel")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
