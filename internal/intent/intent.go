// Package intent classifies a free-text admin question into the data
// slices it needs. It is a pure keyword/regex classifier over a small
// fixed schema; swapping in a smarter classifier only has to keep the
// Analyze signature.
package intent

import (
	"regexp"
	"strings"
)

// Intent is the structured classification of one query.
type Intent struct {
	NeedsStudentData  bool
	NeedsExamData     bool
	NeedsResultsData  bool
	NeedsQuestionData bool

	// IsGeneralStats is true when the query asks for statistics without
	// naming a class or a student, so callers can serve a pre-aggregated
	// summary instead of a filtered slice.
	IsGeneralStats bool

	Filters Filters
}

// TimeRange narrows results by recency.
type TimeRange string

const (
	TimeRangeRecent TimeRange = "recent" // within the last week or so
	TimeRangeAll    TimeRange = "all"
)

// Filters holds the slots extracted from the query. Empty string means
// the slot was not mentioned.
type Filters struct {
	StudentClass string
	StudentName  string
	ExamSubject  string
	TimeRange    TimeRange
}

// Keyword sets are Indonesian and deliberately not exhaustive: a query
// matching none of them degrades to the always-included summary block.
var (
	studentKeywords  = []string{"siswa", "murid", "anak", "kelas", "nama"}
	examKeywords     = []string{"ujian", "tes", "soal", "mata pelajaran", "matematika", "bahasa", "ipa"}
	resultsKeywords  = []string{"nilai", "skor", "hasil", "lulus", "gagal", "prestasi", "sudah ujian", "telah ujian", "mengikuti ujian", "performa"}
	questionKeywords = []string{"pertanyaan", "soal", "jawaban", "pilihan"}
	statsKeywords    = []string{"rata-rata", "statistik", "ringkasan", "total", "jumlah", "persentase", "analisis", "kondisi kelas"}
)

var (
	classRe   = regexp.MustCompile(`kelas\s*(\d+[a-z]?)`)
	subjectRe = regexp.MustCompile(`(matematika|bahasa|ipa|pkn|ips)`)
	timeRe    = regexp.MustCompile(`(terbaru|baru-baru|minggu|bulan|hari)`)
	// Handles "siswa bernama zahra" as well as a bare "bernama zahra".
	nameRe = regexp.MustCompile(`(?:siswa|murid|anak|bernama)(?:\s+bernama)?\s+([a-zA-Z\s]{3,20})`)
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Analyze classifies a query. It is pure and never fails; unknown
// queries produce a zero-need Intent with TimeRangeAll.
func Analyze(query string) Intent {
	q := strings.ToLower(query)

	classMatch := classRe.FindStringSubmatch(q)
	subjectMatch := subjectRe.FindStringSubmatch(q)
	nameMatch := nameRe.FindStringSubmatch(q)

	needsResults := containsAny(q, resultsKeywords)
	// Statistics questions imply results, as does asking "how is" a class.
	needsStats := containsAny(q, statsKeywords) ||
		(strings.Contains(q, "bagaimana") && strings.Contains(q, "kelas"))

	filters := Filters{TimeRange: TimeRangeAll}
	if classMatch != nil {
		filters.StudentClass = classMatch[1]
	}
	if subjectMatch != nil {
		filters.ExamSubject = subjectMatch[1]
	}
	if nameMatch != nil {
		filters.StudentName = strings.TrimSpace(nameMatch[1])
	}
	if timeRe.MatchString(q) {
		filters.TimeRange = TimeRangeRecent
	}

	return Intent{
		NeedsStudentData:  containsAny(q, studentKeywords),
		NeedsExamData:     containsAny(q, examKeywords),
		NeedsResultsData:  needsResults || needsStats,
		NeedsQuestionData: containsAny(q, questionKeywords),
		IsGeneralStats:    needsStats && classMatch == nil && nameMatch == nil,
		Filters:           filters,
	}
}
