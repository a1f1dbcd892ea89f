package model

import (
	"context"
	"time"
)

// UserRole represents an admin-panel user's access level.
type UserRole string

const (
	// UserRoleAdmin is a school administrator.
	UserRoleAdmin UserRole = "admin"
	// UserRoleSuperadmin can manage other admin accounts.
	UserRoleSuperadmin UserRole = "superadmin"
)

// User represents a panel user (administrators log in; students do not).
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Student is a pupil enrolled at the school. Class labels are free text
// ("6A", "6 B", "kelas 5c") so lookups match case-insensitively by
// substring, never by equality.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NISN      string    `json:"nisn"`
	Class     string    `json:"class"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exam is a digital exam definition.
type Exam struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Subject        string    `json:"subject"`
	Grade          int       `json:"grade"`
	Duration       int       `json:"duration"` // minutes
	TotalQuestions int       `json:"total_questions"`
	PassingScore   int       `json:"passing_score"`
	Active         bool      `json:"active"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Question belongs to one exam, ordered by QuestionNumber.
type Question struct {
	ID             string    `json:"id"`
	ExamID         string    `json:"exam_id"`
	QuestionNumber int       `json:"question_number"`
	Text           string    `json:"text"`
	Options        [4]string `json:"options"`
	CorrectAnswer  int       `json:"correct_answer"` // index into Options
	Difficulty     string    `json:"difficulty"`
	Explanation    string    `json:"explanation"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExamAttempt is one completed exam submission. Student name/class and
// exam title are denormalized at write time by the exam runner; readers
// use those copies instead of re-joining.
type ExamAttempt struct {
	ID               string    `json:"id"`
	ExamID           string    `json:"exam_id"`
	ExamTitle        string    `json:"exam_title"`
	StudentID        string    `json:"student_id"`
	StudentName      string    `json:"student_name"`
	StudentClass     string    `json:"student_class"`
	Score            float64   `json:"score"` // 0-100
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	IncorrectAnswers int       `json:"incorrect_answers"`
	Unanswered       int       `json:"unanswered"`
	TimeSpent        int       `json:"time_spent"` // seconds
	IsPassed         bool      `json:"is_passed"`
	StartedAt        time.Time `json:"started_at"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// DashboardStats holds the aggregate numbers shown on the dashboard and
// handed to the assistant. AverageScore and PassRate are computed over a
// bounded sample of recent attempts, not the full table; SampleSize says
// how many attempts backed them.
type DashboardStats struct {
	TotalStudents int     `json:"total_students"`
	TotalExams    int     `json:"total_exams"`
	TotalAttempts int     `json:"total_attempts"`
	ActiveExams   int     `json:"active_exams"`
	AverageScore  float64 `json:"average_score"`
	PassRate      float64 `json:"pass_rate"`
	SampleSize    int     `json:"sample_size"`
}

// AssistantConfig holds runtime assistant parameters set via CLI flags.
type AssistantConfig struct {
	Model          string // Gemini model name
	MaxRounds      int    // tool-calling round budget
	MaxContextSize int    // character ceiling for assembled context
	CallTimeout    time.Duration
}
