package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/logger"
)

// SubmissionService drives the attempt lifecycle: start, answer, complete.
type SubmissionService struct {
	submissions SubmissionRepository
	quizzes     QuizRepository
	scorer      *Scorer
	feeds       FeedRegistry
	log         *logger.Logger
}

func NewSubmissionService(submissions SubmissionRepository, quizzes QuizRepository, scorer *Scorer, feeds FeedRegistry, log *logger.Logger) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		quizzes:     quizzes,
		scorer:      scorer,
		feeds:       feeds,
		log:         log.With("service", "submissions"),
	}
}

// AnswerInput is one answer posted by a taker. At least one of the fields is expected.
type AnswerInput struct {
	QuestionID       int64
	AnswerText       *string
	SelectedOptionID *int64
}

// Start opens a new attempt. If the user already has one in progress for the
// quiz, a *domain.InProgressError carrying its ID is returned.
func (s *SubmissionService) Start(ctx context.Context, caller domain.Principal, quizID, userID int64) (domain.Submission, error) {
	if quizID <= 0 {
		return domain.Submission{}, domain.Invalid("quiz_id is required")
	}
	if userID == 0 {
		userID = caller.UserID
	}
	if !caller.CanActFor(userID) {
		return domain.Submission{}, domain.ErrForbidden
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.Submission{}, err
	}

	submission, err := s.submissions.StartSubmission(ctx, quizID, userID)
	if err != nil {
		return domain.Submission{}, err
	}
	s.log.Info("submission started", "submission_id", submission.ID, "quiz_id", quizID, "user_id", userID)
	return submission, nil
}

// RecordAnswer appends an answer to an in-progress attempt.
func (s *SubmissionService) RecordAnswer(ctx context.Context, caller domain.Principal, submissionID int64, in AnswerInput) (domain.Answer, error) {
	if in.QuestionID <= 0 {
		return domain.Answer{}, domain.Invalid("question_id is required")
	}
	submission, err := s.authorize(ctx, caller, submissionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if submission.Status == domain.StatusSubmitted {
		return domain.Answer{}, domain.ErrSubmissionClosed
	}

	question, err := s.quizzes.GetQuestion(ctx, in.QuestionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if question.QuizID != submission.QuizID {
		return domain.Answer{}, domain.ErrQuestionNotInQuiz
	}
	if in.SelectedOptionID != nil {
		option, err := s.quizzes.GetOption(ctx, *in.SelectedOptionID)
		if err != nil {
			if errors.Is(err, domain.ErrOptionNotFound) {
				return domain.Answer{}, domain.ErrOptionNotInQuestion
			}
			return domain.Answer{}, err
		}
		if option.QuestionID != question.ID {
			return domain.Answer{}, domain.ErrOptionNotInQuestion
		}
	}

	answer := domain.Answer{
		SubmissionID:     submissionID,
		QuestionID:       in.QuestionID,
		AnswerText:       in.AnswerText,
		SelectedOptionID: in.SelectedOptionID,
	}
	if err := s.submissions.AddAnswer(ctx, &answer); err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// Complete scores the attempt and marks it submitted. It can be re-run; each
// run re-derives the grade from the persisted answers.
func (s *SubmissionService) Complete(ctx context.Context, caller domain.Principal, submissionID int64) (domain.Grade, error) {
	if _, err := s.authorize(ctx, caller, submissionID); err != nil {
		return domain.Grade{}, err
	}

	submission, grade, err := s.submissions.FinalizeSubmission(ctx, submissionID, s.scorer.GradeFunc())
	if err != nil {
		return domain.Grade{}, fmt.Errorf("complete submission %d: %w", submissionID, err)
	}
	s.log.Info("submission completed",
		"submission_id", submission.ID,
		"quiz_id", submission.QuizID,
		"score", grade.Score,
		"total_points", grade.TotalPoints,
	)

	if feed, ok := s.feeds.Get(submission.QuizID); ok {
		submittedAt := time.Now()
		if submission.SubmittedAt != nil {
			submittedAt = *submission.SubmittedAt
		}
		feed.Publish(domain.SubmissionEvent{
			SubmissionID: submission.ID,
			QuizID:       submission.QuizID,
			UserID:       submission.UserID,
			Score:        grade.Score,
			TotalPoints:  grade.TotalPoints,
			SubmittedAt:  submittedAt,
		})
	}
	return grade, nil
}

// Get returns the submission with its answers for display.
func (s *SubmissionService) Get(ctx context.Context, caller domain.Principal, submissionID int64) (domain.SubmissionDetail, error) {
	if _, err := s.authorize(ctx, caller, submissionID); err != nil {
		return domain.SubmissionDetail{}, err
	}
	return s.submissions.GetSubmissionDetail(ctx, submissionID)
}

// List returns submissions matching filter. Non-admin callers only see their own.
func (s *SubmissionService) List(ctx context.Context, caller domain.Principal, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	if !caller.IsAdmin {
		if filter.UserID != 0 && filter.UserID != caller.UserID {
			return nil, domain.ErrForbidden
		}
		filter.UserID = caller.UserID
	}
	return s.submissions.ListSubmissions(ctx, filter)
}

// SubscribeResults returns a channel of completion events for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SubmissionService) SubscribeResults(ctx context.Context, quizID int64) (<-chan domain.SubmissionEvent, func(), error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, err
	}
	feed := s.feeds.GetOrCreate(quizID)
	ch, unsubscribe := feed.Subscribe()
	cancel := func() {
		unsubscribe()
		s.feeds.DeleteIfEmpty(quizID)
	}
	return ch, cancel, nil
}

func (s *SubmissionService) authorize(ctx context.Context, caller domain.Principal, submissionID int64) (domain.Submission, error) {
	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !caller.CanActFor(submission.UserID) {
		return domain.Submission{}, domain.ErrForbidden
	}
	return submission, nil
}
