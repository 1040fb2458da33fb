package domain

import "time"

// QuestionType tags how a question is answered and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
	QuestionEssay          QuestionType = "essay"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer, QuestionEssay:
		return true
	}
	return false
}

// SubmissionStatus is the lifecycle state of an attempt.
type SubmissionStatus string

const (
	StatusInProgress SubmissionStatus = "in_progress"
	StatusSubmitted  SubmissionStatus = "submitted"
)

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the verified caller identity attached by the auth middleware.
type Principal struct {
	UserID  int64
	IsAdmin bool
}

// CanActFor reports whether the principal may act on resources owned by userID.
func (p Principal) CanActFor(userID int64) bool {
	return p.IsAdmin || p.UserID == userID
}

type Quiz struct {
	ID               int64      `json:"quiz_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	CreatedBy        int64      `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
	TimeLimitMinutes *int       `json:"time_limit_minutes"`
	IsPublished      bool       `json:"is_published"`
	PublishedAt      *time.Time `json:"published_at"`
}

type Question struct {
	ID           int64        `json:"question_id"`
	QuizID       int64        `json:"quiz_id"`
	Text         string       `json:"question_text"`
	Type         QuestionType `json:"question_type"`
	Points       int          `json:"points"`
	DisplayOrder int          `json:"display_order"`
}

type Option struct {
	ID         int64  `json:"option_id"`
	QuestionID int64  `json:"question_id"`
	Text       string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// Submission is one attempt of a user at a quiz.
type Submission struct {
	ID          int64            `json:"submission_id"`
	QuizID      int64            `json:"quiz_id"`
	UserID      int64            `json:"user_id"`
	Status      SubmissionStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	Score       *float64         `json:"score"`
	TotalPoints *int             `json:"total_points"`
}

// Answer is a single recorded response. Several rows may exist per question.
type Answer struct {
	ID               int64     `json:"answer_id"`
	SubmissionID     int64     `json:"submission_id"`
	QuestionID       int64     `json:"question_id"`
	AnswerText       *string   `json:"answer_text"`
	SelectedOptionID *int64    `json:"selected_option_id"`
	PointsEarned     *float64  `json:"points_earned"`
	CreatedAt        time.Time `json:"created_at"`
}

// GradableAnswer is an answer row joined with what scoring needs.
type GradableAnswer struct {
	AnswerID     int64
	QuestionID   int64
	QuestionType QuestionType
	Points       int
	AnswerText   *string
	// OptionCorrect is nil when no option was selected or it no longer exists.
	OptionCorrect *bool
}

// QuestionWeight is a question's contribution to the maximum score.
type QuestionWeight struct {
	QuestionID int64
	Points     int
}

// AnswerCredit is the computed credit for one answer row.
type AnswerCredit struct {
	AnswerID     int64
	PointsEarned float64
}

// Grade is the outcome of scoring a submission.
type Grade struct {
	Score       float64        `json:"score"`
	TotalPoints int            `json:"total_points"`
	Credits     []AnswerCredit `json:"-"`
}

// SubmissionDetail is a submission with its answers for display.
type SubmissionDetail struct {
	Submission SubmissionView `json:"submission"`
	Answers    []AnswerView   `json:"answers"`
}

type SubmissionView struct {
	Submission
	QuizTitle string `json:"quiz_title"`
}

type AnswerView struct {
	Answer
	QuestionText       *string       `json:"question_text"`
	QuestionType       *QuestionType `json:"question_type"`
	QuestionPoints     *int          `json:"question_points"`
	SelectedOptionText *string       `json:"selected_option_text"`
	CorrectOptionText  *string       `json:"correct_option_text"`
}

// SubmissionFilter narrows submission listings. Zero values mean "any".
type SubmissionFilter struct {
	QuizID int64
	UserID int64
	Status SubmissionStatus
}

// AdminSubmissionRow is a submission joined with quiz and user details.
type AdminSubmissionRow struct {
	Submission
	QuizTitle string `json:"quiz_title"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// ScoredSubmission is the minimal projection reporting aggregates over.
type ScoredSubmission struct {
	SubmissionID int64
	QuizID       int64
	QuizTitle    string
	Score        float64
	TotalPoints  int
}

type QuizStatistics struct {
	QuizID    int64   `json:"quiz_id"`
	Title     string  `json:"title"`
	Attempts  int     `json:"attempts"`
	AvgScore  float64 `json:"avgScore"`
	HighScore float64 `json:"highScore"`
	LowScore  float64 `json:"lowScore"`
}

type Statistics struct {
	TotalQuizzes     int              `json:"totalQuizzes"`
	TotalSubmissions int              `json:"totalSubmissions"`
	AverageScore     *float64         `json:"averageScore"`
	PassRate         *float64         `json:"passRate"`
	Quizzes          []QuizStatistics `json:"quizzes"`
}

// Paper is a quiz as presented to a taker: ordered questions, options without answers.
type Paper struct {
	Quiz      Quiz            `json:"quiz"`
	Questions []PaperQuestion `json:"questions"`
}

type PaperQuestion struct {
	Question
	Options []PaperOption `json:"options"`
}

type PaperOption struct {
	ID   int64  `json:"option_id"`
	Text string `json:"option_text"`
}

// SubmissionEvent is pushed to live result subscribers when an attempt is scored.
type SubmissionEvent struct {
	SubmissionID int64     `json:"submission_id"`
	QuizID       int64     `json:"quiz_id"`
	UserID       int64     `json:"user_id"`
	Score        float64   `json:"score"`
	TotalPoints  int       `json:"total_points"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
