package app

import (
	"context"

	"quiz-platform-service/internal/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
	DeleteUser(ctx context.Context, id int64) error
}

// QuizRepository persists the quiz > question > option tree.
// Deleting a quiz or question removes its children.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, id int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, published *bool) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id int64) error

	CreateQuestion(ctx context.Context, question *domain.Question) error
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	// ListQuestions orders by display_order, then question_id.
	ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, id int64) error

	CreateOption(ctx context.Context, option *domain.Option) error
	GetOption(ctx context.Context, id int64) (domain.Option, error)
	ListOptions(ctx context.Context, questionID int64) ([]domain.Option, error)
	UpdateOption(ctx context.Context, option domain.Option) error
	DeleteOption(ctx context.Context, id int64) error
}

// GradeFunc scores the answers of one submission. weights lists every question of the quiz.
type GradeFunc func(answers []domain.GradableAnswer, weights []domain.QuestionWeight) domain.Grade

// SubmissionRepository owns the attempt lifecycle at the storage level.
type SubmissionRepository interface {
	// StartSubmission creates an in-progress attempt and its queue record atomically.
	// It returns *domain.InProgressError if one is already open for (quizID, userID).
	StartSubmission(ctx context.Context, quizID, userID int64) (domain.Submission, error)
	GetSubmission(ctx context.Context, id int64) (domain.Submission, error)
	// AddAnswer appends an answer row; it fails with domain.ErrSubmissionClosed
	// once the submission is submitted.
	AddAnswer(ctx context.Context, answer *domain.Answer) error
	// FinalizeSubmission locks the submission, grades its answers with grade and
	// persists the result in a single transaction.
	FinalizeSubmission(ctx context.Context, id int64, grade GradeFunc) (domain.Submission, domain.Grade, error)
	GetSubmissionDetail(ctx context.Context, id int64) (domain.SubmissionDetail, error)
	ListSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error)
}

// ReportRepository serves the read models behind admin reporting.
type ReportRepository interface {
	ListScoredSubmissions(ctx context.Context) ([]domain.ScoredSubmission, error)
	ListAdminSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.AdminSubmissionRow, error)
}

// PaperRepository serves quiz papers, usually from a cache in front of the store.
type PaperRepository interface {
	GetPaper(ctx context.Context, quizID int64) (domain.Paper, error)
	Invalidate(ctx context.Context, quizID int64)
}

// FeedRegistry abstracts where live result feeds live (in-memory, Redis-marked, etc).
type FeedRegistry interface {
	GetOrCreate(quizID int64) *Feed
	Get(quizID int64) (*Feed, bool)
	DeleteIfEmpty(quizID int64)
}
