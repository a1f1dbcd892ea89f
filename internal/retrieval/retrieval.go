// Package retrieval assembles a bounded, prompt-sized text block of
// school data driven by the intent classifier. It is the non-tool
// fallback path of the assistant: the model gets one context blob
// instead of issuing tool calls.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sekolahdigital/adminpanel/internal/intent"
	"github.com/sekolahdigital/adminpanel/internal/model"
)

// Block limits. Each conditional block is independently bounded so one
// noisy collection cannot crowd out the others.
const (
	recentSampleSize = 100
	maxStudentRows   = 50
	maxExamRows      = 20
	maxResultRows    = 30
)

// DefaultMaxContextSize is the character ceiling above which the
// assembler falls back to the compact aggregate summary.
const DefaultMaxContextSize = 8000

// Querier is the read-only slice of the store the assembler consumes.
type Querier interface {
	CountStudents(ctx context.Context) (int, error)
	CountExams(ctx context.Context) (int, error)
	CountAttempts(ctx context.Context) (int, error)
	CountActiveExams(ctx context.Context) (int, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	ListExams(ctx context.Context) ([]model.Exam, error)
	RecentAttempts(ctx context.Context, limit int) ([]model.ExamAttempt, error)
	AttemptsByClass(ctx context.Context, class string, limit int) ([]model.ExamAttempt, error)
}

// Context is one assembled context block ready for the model prompt.
type Context struct {
	Text     string
	Sources  []string
	DataSize int
}

// Builder assembles relevant context for a query.
type Builder struct {
	store          Querier
	maxContextSize int
}

// WithCeiling returns a Builder with a different context ceiling.
// n <= 0 keeps the receiver's ceiling.
func (b *Builder) WithCeiling(n int) *Builder {
	if n <= 0 {
		return b
	}
	return &Builder{store: b.store, maxContextSize: n}
}

// New creates a Builder. maxContextSize <= 0 selects the default ceiling.
func New(store Querier, maxContextSize int) *Builder {
	if maxContextSize <= 0 {
		maxContextSize = DefaultMaxContextSize
	}
	return &Builder{store: store, maxContextSize: maxContextSize}
}

// baseStats carries the summary numbers plus the recent-attempt sample,
// which later blocks reuse instead of re-reading the store.
type baseStats struct {
	model.DashboardStats
	recentAttempts []model.ExamAttempt
}

// Stats computes the dashboard aggregates. Mean score and pass rate come
// from a bounded recent sample (a deliberate read-cost tradeoff, see
// SampleSize), not a full scan. The count queries touch disjoint tables,
// so they run concurrently.
func (b *Builder) Stats(ctx context.Context) (model.DashboardStats, error) {
	st, err := b.stats(ctx)
	return st.DashboardStats, err
}

func (b *Builder) stats(ctx context.Context) (baseStats, error) {
	var st baseStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalStudents, err = b.store.CountStudents(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalExams, err = b.store.CountExams(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalAttempts, err = b.store.CountAttempts(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.ActiveExams, err = b.store.CountActiveExams(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.recentAttempts, err = b.store.RecentAttempts(gctx, recentSampleSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return st, err
	}

	st.SampleSize = len(st.recentAttempts)
	if st.SampleSize > 0 {
		var sum float64
		passed := 0
		for _, a := range st.recentAttempts {
			sum += a.Score
			if a.IsPassed {
				passed++
			}
		}
		st.AverageScore = sum / float64(st.SampleSize)
		st.PassRate = float64(passed) / float64(st.SampleSize) * 100
	}
	return st, nil
}

// RelevantContext classifies the query and assembles the matching
// context blocks. The summary block is unconditional so the model always
// has baseline numbers. On partial data-access failure the assembler
// degrades: already-built blocks are kept and the missing source is
// annotated instead of failing the whole request.
func (b *Builder) RelevantContext(ctx context.Context, query string) (Context, error) {
	in := intent.Analyze(query)

	stats, err := b.stats(ctx)
	if err != nil {
		return Context{}, fmt.Errorf("base stats: %w", err)
	}

	var parts []string
	var sources []string

	parts = append(parts, fmt.Sprintf(`STATISTIK UMUM (berdasarkan %d percobaan terbaru):
- Total Siswa: %d
- Total Ujian: %d
- Total Percobaan: %d
- Nilai Rata-rata: %.1f%%
- Tingkat Kelulusan: %.1f%%
- Ujian Aktif: %d`,
		stats.SampleSize, stats.TotalStudents, stats.TotalExams, stats.TotalAttempts,
		stats.AverageScore, stats.PassRate, stats.ActiveExams))
	sources = append(sources, "summary_stats")

	if in.NeedsStudentData {
		block, src, err := b.studentBlock(ctx, in.Filters)
		if err != nil {
			slog.Warn("student context unavailable", "error", err)
			parts = append(parts, "DATA SISWA TIDAK TERSEDIA SAAT INI.")
			sources = append(sources, "students_unavailable")
		} else if block != "" {
			parts = append(parts, block)
			sources = append(sources, src)
		}
	}

	if in.NeedsExamData {
		block, err := b.examBlock(ctx, in.Filters)
		if err != nil {
			slog.Warn("exam context unavailable", "error", err)
			parts = append(parts, "DATA UJIAN TIDAK TERSEDIA SAAT INI.")
			sources = append(sources, "exams_unavailable")
		} else {
			parts = append(parts, block)
			sources = append(sources, "exams")
		}
	}

	if in.NeedsResultsData {
		block, src := b.resultsBlock(ctx, in.Filters, stats.recentAttempts)
		parts = append(parts, block)
		if src != "" {
			sources = append(sources, src)
		}
	}

	text := strings.Join(parts, "\n\n")

	// Over the ceiling: swap in the compact aggregate summary rather than
	// truncating mid-block, which could cut a record in half.
	if len(text) > b.maxContextSize {
		students, err := b.store.ListStudents(ctx)
		if err != nil {
			slog.Warn("class distribution unavailable for summary", "error", err)
			students = nil
		}
		text = summarize(stats.recentAttempts, students)
		sources = append(sources, "summary")
	}

	return Context{Text: text, Sources: sources, DataSize: len(text)}, nil
}

func (b *Builder) studentBlock(ctx context.Context, f intent.Filters) (string, string, error) {
	students, err := b.store.ListStudents(ctx)
	if err != nil {
		return "", "", err
	}

	if f.StudentClass != "" {
		students = filterStudents(students, func(s model.Student) bool {
			return strings.Contains(strings.ToLower(s.Class), strings.ToLower(f.StudentClass))
		})
	}
	if f.StudentName != "" {
		name := strings.ToLower(f.StudentName)
		students = filterStudents(students, func(s model.Student) bool {
			return strings.Contains(strings.ToLower(s.Name), name)
		})
	}

	if len(students) == 0 {
		if f.StudentName != "" {
			return fmt.Sprintf("PENCARIAN SISWA: Tidak ditemukan siswa dengan nama yang mengandung %q.", f.StudentName),
				"students_empty", nil
		}
		return "", "", nil
	}

	shown := min(len(students), maxStudentRows)
	var sb strings.Builder
	fmt.Fprintf(&sb, "DAFTAR SISWA RELEVAN (%d dari %d):\n", shown, len(students))
	for i, s := range students[:shown] {
		class := s.Class
		if class == "" {
			class = "-"
		}
		nisn := s.NISN
		if nisn == "" {
			nisn = "-"
		}
		fmt.Fprintf(&sb, "%d. %s (%s) - NISN: %s\n", i+1, s.Name, class, nisn)
	}
	return strings.TrimRight(sb.String(), "\n"), "students", nil
}

func (b *Builder) examBlock(ctx context.Context, f intent.Filters) (string, error) {
	exams, err := b.store.ListExams(ctx)
	if err != nil {
		return "", err
	}
	if f.ExamSubject != "" {
		subject := strings.ToLower(f.ExamSubject)
		var filtered []model.Exam
		for _, e := range exams {
			if strings.Contains(strings.ToLower(e.Subject), subject) {
				filtered = append(filtered, e)
			}
		}
		exams = filtered
	}

	shown := min(len(exams), maxExamRows)
	var sb strings.Builder
	fmt.Fprintf(&sb, "DAFTAR UJIAN (%d dari %d):\n", shown, len(exams))
	for i, e := range exams[:shown] {
		fmt.Fprintf(&sb, "%d. %s (%s) - Kelas %d\n", i+1, e.Title, e.Subject, e.Grade)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// resultsBlock prefers the indexed class query, falls back to filtering
// the already-fetched recent sample (which also absorbs case or format
// mismatches between the filter token and the stored label), and never
// errors: a store failure degrades to the sample.
func (b *Builder) resultsBlock(ctx context.Context, f intent.Filters, recent []model.ExamAttempt) (string, string) {
	var attempts []model.ExamAttempt

	switch {
	case f.StudentClass != "":
		direct, err := b.store.AttemptsByClass(ctx, strings.ToUpper(f.StudentClass), maxResultRows)
		if err != nil {
			slog.Warn("class attempts query failed, using recent sample", "class", f.StudentClass, "error", err)
		}
		if len(direct) > 0 {
			attempts = direct
		} else {
			class := strings.ToLower(f.StudentClass)
			for _, a := range recent {
				if strings.Contains(strings.ToLower(a.StudentClass), class) {
					attempts = append(attempts, a)
				}
			}
		}
	case f.StudentName != "":
		name := strings.ToLower(f.StudentName)
		for _, a := range recent {
			if strings.Contains(strings.ToLower(a.StudentName), name) {
				attempts = append(attempts, a)
			}
		}
	default:
		attempts = recent
	}

	if len(attempts) == 0 {
		return "BELUM ADA DATA HASIL UJIAN YANG COCOK DENGAN KRITERIA.", ""
	}

	sorted := make([]model.ExamAttempt, len(attempts))
	copy(sorted, attempts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})
	shown := min(len(sorted), maxResultRows)

	var sb strings.Builder
	fmt.Fprintf(&sb, "SAMPEL HASIL UJIAN (%d data relevan):\n", shown)
	for i, a := range sorted[:shown] {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s: %.0f%%\n", i+1, a.StudentName, a.StudentClass, a.ExamTitle, a.Score)
	}
	return strings.TrimRight(sb.String(), "\n"), "examAttempts"
}

// summarize renders the compact aggregate fallback: top and bottom
// performers, per-subject means, and class size distribution.
func summarize(attempts []model.ExamAttempt, students []model.Student) string {
	if len(attempts) == 0 {
		return "Belum ada data ujian untuk diringkas."
	}

	byScore := make([]model.ExamAttempt, len(attempts))
	copy(byScore, attempts)
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].Score > byScore[j].Score })

	topN := min(5, len(byScore))
	var sb strings.Builder
	sb.WriteString("RINGKASAN DATA:\n\nPERFORMA TERTINGGI:\n")
	for i, a := range byScore[:topN] {
		fmt.Fprintf(&sb, "%d. %s: %.0f%%\n", i+1, a.StudentName, a.Score)
	}
	sb.WriteString("\nPERFORMA TERENDAH:\n")
	bottom := byScore[len(byScore)-topN:]
	for i := range bottom {
		a := bottom[len(bottom)-1-i]
		fmt.Fprintf(&sb, "%d. %s: %.0f%%\n", i+1, a.StudentName, a.Score)
	}

	type agg struct {
		sum   float64
		count int
	}
	subjects := map[string]*agg{}
	var subjectOrder []string
	for _, a := range attempts {
		subject := strings.SplitN(a.ExamTitle, " ", 2)[0]
		if subject == "" {
			subject = "Lainnya"
		}
		if subjects[subject] == nil {
			subjects[subject] = &agg{}
			subjectOrder = append(subjectOrder, subject)
		}
		subjects[subject].sum += a.Score
		subjects[subject].count++
	}
	sb.WriteString("\nPERFORMA PER MATA PELAJARAN:\n")
	sort.Strings(subjectOrder)
	for _, subject := range subjectOrder {
		s := subjects[subject]
		fmt.Fprintf(&sb, "%s: %.1f%% (%d percobaan)\n", subject, s.sum/float64(s.count), s.count)
	}

	if len(students) > 0 {
		classes := map[string]int{}
		var classOrder []string
		for _, s := range students {
			if _, ok := classes[s.Class]; !ok {
				classOrder = append(classOrder, s.Class)
			}
			classes[s.Class]++
		}
		sort.Strings(classOrder)
		sb.WriteString("\nDISTRIBUSI KELAS:\n")
		for _, class := range classOrder {
			label := class
			if label == "" {
				label = "-"
			}
			fmt.Fprintf(&sb, "%s: %d siswa\n", label, classes[class])
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func filterStudents(students []model.Student, keep func(model.Student) bool) []model.Student {
	var out []model.Student
	for _, s := range students {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
