package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-platform-service/internal/domain"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"user_id,pk,autoincrement"`
	Username     string    `bun:"username,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	FirstName    string    `bun:"first_name,notnull"`
	LastName     string    `bun:"last_name,notnull"`
	IsAdmin      bool      `bun:"is_admin,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
	}
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID               int64      `bun:"quiz_id,pk,autoincrement"`
	Title            string     `bun:"title,notnull"`
	Description      string     `bun:"description,notnull"`
	CreatedBy        int64      `bun:"created_by,nullzero"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	TimeLimitMinutes *int       `bun:"time_limit_minutes"`
	IsPublished      bool       `bun:"is_published,notnull"`
	PublishedAt      *time.Time `bun:"published_at"`
}

func newQuizModel(q domain.Quiz) quizModel {
	return quizModel{
		ID:               q.ID,
		Title:            q.Title,
		Description:      q.Description,
		CreatedBy:        q.CreatedBy,
		CreatedAt:        q.CreatedAt,
		TimeLimitMinutes: q.TimeLimitMinutes,
		IsPublished:      q.IsPublished,
		PublishedAt:      q.PublishedAt,
	}
}

func (m quizModel) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
		TimeLimitMinutes: m.TimeLimitMinutes,
		IsPublished:      m.IsPublished,
		PublishedAt:      m.PublishedAt,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID           int64  `bun:"question_id,pk,autoincrement"`
	QuizID       int64  `bun:"quiz_id,notnull"`
	Text         string `bun:"question_text,notnull"`
	Type         string `bun:"question_type,notnull"`
	Points       int    `bun:"points,notnull"`
	DisplayOrder int    `bun:"display_order,notnull"`
}

func newQuestionModel(q domain.Question) questionModel {
	return questionModel{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Text:         q.Text,
		Type:         string(q.Type),
		Points:       q.Points,
		DisplayOrder: q.DisplayOrder,
	}
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:           m.ID,
		QuizID:       m.QuizID,
		Text:         m.Text,
		Type:         domain.QuestionType(m.Type),
		Points:       m.Points,
		DisplayOrder: m.DisplayOrder,
	}
}

type optionModel struct {
	bun.BaseModel `bun:"table:question_options,alias:o"`

	ID         int64  `bun:"option_id,pk,autoincrement"`
	QuestionID int64  `bun:"question_id,notnull"`
	Text       string `bun:"option_text,notnull"`
	IsCorrect  bool   `bun:"is_correct,notnull"`
}

func (m optionModel) toDomain() domain.Option {
	return domain.Option{ID: m.ID, QuestionID: m.QuestionID, Text: m.Text, IsCorrect: m.IsCorrect}
}

type submissionModel struct {
	bun.BaseModel `bun:"table:quiz_submissions,alias:s"`

	ID          int64      `bun:"submission_id,pk,autoincrement"`
	QuizID      int64      `bun:"quiz_id,notnull"`
	UserID      int64      `bun:"user_id,notnull"`
	Status      string     `bun:"status,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	SubmittedAt *time.Time `bun:"submitted_at"`
	Score       *float64   `bun:"score"`
	TotalPoints *int       `bun:"total_points"`
}

func (m submissionModel) toDomain() domain.Submission {
	return domain.Submission{
		ID:          m.ID,
		QuizID:      m.QuizID,
		UserID:      m.UserID,
		Status:      domain.SubmissionStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		SubmittedAt: m.SubmittedAt,
		Score:       m.Score,
		TotalPoints: m.TotalPoints,
	}
}

type answerModel struct {
	bun.BaseModel `bun:"table:submission_answers,alias:a"`

	ID               int64     `bun:"answer_id,pk,autoincrement"`
	SubmissionID     int64     `bun:"submission_id,notnull"`
	QuestionID       int64     `bun:"question_id,notnull"`
	AnswerText       *string   `bun:"answer_text"`
	SelectedOptionID *int64    `bun:"selected_option_id"`
	PointsEarned     *float64  `bun:"points_earned"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (m answerModel) toDomain() domain.Answer {
	return domain.Answer{
		ID:               m.ID,
		SubmissionID:     m.SubmissionID,
		QuestionID:       m.QuestionID,
		AnswerText:       m.AnswerText,
		SelectedOptionID: m.SelectedOptionID,
		PointsEarned:     m.PointsEarned,
		CreatedAt:        m.CreatedAt,
	}
}

type queueModel struct {
	bun.BaseModel `bun:"table:submission_queue,alias:sq"`

	ID           int64     `bun:"queue_id,pk,autoincrement"`
	SubmissionID int64     `bun:"submission_id,notnull"`
	EnqueuedAt   time.Time `bun:"enqueued_at,nullzero,notnull,default:current_timestamp"`
}
