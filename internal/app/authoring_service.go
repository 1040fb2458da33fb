package app

import (
	"context"
	"strings"
	"time"

	"quiz-platform-service/internal/domain"
)

// AuthoringService manages quizzes, their questions and options.
// Mutations are restricted to the quiz creator or an admin.
type AuthoringService struct {
	quizzes QuizRepository
	papers  PaperRepository
	now     func() time.Time
}

func NewAuthoringService(quizzes QuizRepository, papers PaperRepository) *AuthoringService {
	return &AuthoringService{quizzes: quizzes, papers: papers, now: time.Now}
}

type QuizInput struct {
	Title            string
	Description      string
	CreatedBy        int64
	TimeLimitMinutes *int
}

// QuizPatch carries optional updates; nil fields are left unchanged.
// A TimeLimitMinutes of 0 clears the limit.
type QuizPatch struct {
	Title            *string
	Description      *string
	TimeLimitMinutes *int
	IsPublished      *bool
}

type QuestionInput struct {
	QuizID       int64
	Text         string
	Type         domain.QuestionType
	Points       *int
	DisplayOrder int
}

type QuestionPatch struct {
	Text         *string
	Type         *domain.QuestionType
	Points       *int
	DisplayOrder *int
}

type OptionInput struct {
	Text      string
	IsCorrect bool
}

type OptionPatch struct {
	Text      *string
	IsCorrect *bool
}

func (s *AuthoringService) CreateQuiz(ctx context.Context, caller domain.Principal, in QuizInput) (domain.Quiz, error) {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Quiz{}, domain.Invalid("Title and created_by are required")
	}
	if in.CreatedBy == 0 {
		in.CreatedBy = caller.UserID
	}
	if !caller.CanActFor(in.CreatedBy) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	if err := validTimeLimit(in.TimeLimitMinutes); err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{
		Title:            in.Title,
		Description:      in.Description,
		CreatedBy:        in.CreatedBy,
		TimeLimitMinutes: in.TimeLimitMinutes,
	}
	if err := s.quizzes.CreateQuiz(ctx, &quiz); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *AuthoringService) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, id)
}

func (s *AuthoringService) ListQuizzes(ctx context.Context, published *bool) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx, published)
}

// GetPaper returns the quiz as shown to a taker.
func (s *AuthoringService) GetPaper(ctx context.Context, quizID int64) (domain.Paper, error) {
	return s.papers.GetPaper(ctx, quizID)
}

func (s *AuthoringService) UpdateQuiz(ctx context.Context, caller domain.Principal, id int64, patch QuizPatch) (domain.Quiz, error) {
	quiz, err := s.ownedQuiz(ctx, caller, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return domain.Quiz{}, domain.Invalid("title cannot be empty")
		}
		quiz.Title = *patch.Title
	}
	if patch.Description != nil {
		quiz.Description = *patch.Description
	}
	switch {
	case patch.TimeLimitMinutes == nil:
	case *patch.TimeLimitMinutes == 0:
		quiz.TimeLimitMinutes = nil
	default:
		if err := validTimeLimit(patch.TimeLimitMinutes); err != nil {
			return domain.Quiz{}, err
		}
		quiz.TimeLimitMinutes = patch.TimeLimitMinutes
	}
	if patch.IsPublished != nil {
		quiz.IsPublished = *patch.IsPublished
		if quiz.IsPublished && quiz.PublishedAt == nil {
			now := s.now()
			quiz.PublishedAt = &now
		}
	}
	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.papers.Invalidate(ctx, id)
	return quiz, nil
}

func (s *AuthoringService) DeleteQuiz(ctx context.Context, caller domain.Principal, id int64) error {
	if _, err := s.ownedQuiz(ctx, caller, id); err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.papers.Invalidate(ctx, id)
	return nil
}

func (s *AuthoringService) CreateQuestion(ctx context.Context, caller domain.Principal, in QuestionInput) (domain.Question, error) {
	if in.QuizID <= 0 {
		return domain.Question{}, domain.Invalid("quiz_id is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return domain.Question{}, domain.Invalid("question_text is required")
	}
	if !in.Type.Valid() {
		return domain.Question{}, domain.Invalid("question_type must be one of multiple_choice, true_false, short_answer, essay")
	}
	points := 1
	if in.Points != nil {
		points = *in.Points
	}
	if points <= 0 {
		return domain.Question{}, domain.Invalid("points must be a positive integer")
	}
	if _, err := s.ownedQuiz(ctx, caller, in.QuizID); err != nil {
		return domain.Question{}, err
	}

	question := domain.Question{
		QuizID:       in.QuizID,
		Text:         in.Text,
		Type:         in.Type,
		Points:       points,
		DisplayOrder: in.DisplayOrder,
	}
	if err := s.quizzes.CreateQuestion(ctx, &question); err != nil {
		return domain.Question{}, err
	}
	s.papers.Invalidate(ctx, in.QuizID)
	return question, nil
}

func (s *AuthoringService) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	return s.quizzes.GetQuestion(ctx, id)
}

func (s *AuthoringService) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return s.quizzes.ListQuestions(ctx, quizID)
}

func (s *AuthoringService) UpdateQuestion(ctx context.Context, caller domain.Principal, id int64, patch QuestionPatch) (domain.Question, error) {
	question, err := s.quizzes.GetQuestion(ctx, id)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := s.ownedQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.Question{}, err
	}
	if patch.Text != nil {
		if strings.TrimSpace(*patch.Text) == "" {
			return domain.Question{}, domain.Invalid("question_text cannot be empty")
		}
		question.Text = *patch.Text
	}
	if patch.Type != nil {
		if !patch.Type.Valid() {
			return domain.Question{}, domain.Invalid("question_type must be one of multiple_choice, true_false, short_answer, essay")
		}
		question.Type = *patch.Type
	}
	if patch.Points != nil {
		if *patch.Points <= 0 {
			return domain.Question{}, domain.Invalid("points must be a positive integer")
		}
		question.Points = *patch.Points
	}
	if patch.DisplayOrder != nil {
		question.DisplayOrder = *patch.DisplayOrder
	}
	if err := s.quizzes.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	s.papers.Invalidate(ctx, question.QuizID)
	return question, nil
}

func (s *AuthoringService) DeleteQuestion(ctx context.Context, caller domain.Principal, id int64) error {
	question, err := s.quizzes.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.ownedQuiz(ctx, caller, question.QuizID); err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.papers.Invalidate(ctx, question.QuizID)
	return nil
}

func (s *AuthoringService) CreateOption(ctx context.Context, caller domain.Principal, questionID int64, in OptionInput) (domain.Option, error) {
	if strings.TrimSpace(in.Text) == "" {
		return domain.Option{}, domain.Invalid("option_text is required")
	}
	question, err := s.ownedQuestion(ctx, caller, questionID)
	if err != nil {
		return domain.Option{}, err
	}
	if in.IsCorrect {
		if err := s.ensureSingleCorrect(ctx, question, 0); err != nil {
			return domain.Option{}, err
		}
	}
	option := domain.Option{QuestionID: questionID, Text: in.Text, IsCorrect: in.IsCorrect}
	if err := s.quizzes.CreateOption(ctx, &option); err != nil {
		return domain.Option{}, err
	}
	s.papers.Invalidate(ctx, question.QuizID)
	return option, nil
}

func (s *AuthoringService) ListOptions(ctx context.Context, questionID int64) ([]domain.Option, error) {
	if _, err := s.quizzes.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}
	return s.quizzes.ListOptions(ctx, questionID)
}

func (s *AuthoringService) GetOption(ctx context.Context, id int64) (domain.Option, error) {
	return s.quizzes.GetOption(ctx, id)
}

func (s *AuthoringService) UpdateOption(ctx context.Context, caller domain.Principal, id int64, patch OptionPatch) (domain.Option, error) {
	option, err := s.quizzes.GetOption(ctx, id)
	if err != nil {
		return domain.Option{}, err
	}
	question, err := s.ownedQuestion(ctx, caller, option.QuestionID)
	if err != nil {
		return domain.Option{}, err
	}
	if patch.Text != nil {
		if strings.TrimSpace(*patch.Text) == "" {
			return domain.Option{}, domain.Invalid("option_text cannot be empty")
		}
		option.Text = *patch.Text
	}
	if patch.IsCorrect != nil {
		if *patch.IsCorrect && !option.IsCorrect {
			if err := s.ensureSingleCorrect(ctx, question, option.ID); err != nil {
				return domain.Option{}, err
			}
		}
		option.IsCorrect = *patch.IsCorrect
	}
	if err := s.quizzes.UpdateOption(ctx, option); err != nil {
		return domain.Option{}, err
	}
	s.papers.Invalidate(ctx, question.QuizID)
	return option, nil
}

func (s *AuthoringService) DeleteOption(ctx context.Context, caller domain.Principal, id int64) error {
	option, err := s.quizzes.GetOption(ctx, id)
	if err != nil {
		return err
	}
	question, err := s.ownedQuestion(ctx, caller, option.QuestionID)
	if err != nil {
		return err
	}
	if err := s.quizzes.DeleteOption(ctx, id); err != nil {
		return err
	}
	s.papers.Invalidate(ctx, question.QuizID)
	return nil
}

func (s *AuthoringService) ownedQuiz(ctx context.Context, caller domain.Principal, quizID int64) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !caller.CanActFor(quiz.CreatedBy) {
		return domain.Quiz{}, domain.ErrForbidden
	}
	return quiz, nil
}

func (s *AuthoringService) ownedQuestion(ctx context.Context, caller domain.Principal, questionID int64) (domain.Question, error) {
	question, err := s.quizzes.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if _, err := s.ownedQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// ensureSingleCorrect rejects a second correct option on a multiple-choice
// question. except is the option being updated, if any.
func (s *AuthoringService) ensureSingleCorrect(ctx context.Context, question domain.Question, except int64) error {
	if question.Type != domain.QuestionMultipleChoice {
		return nil
	}
	options, err := s.quizzes.ListOptions(ctx, question.ID)
	if err != nil {
		return err
	}
	for _, option := range options {
		if option.IsCorrect && option.ID != except {
			return domain.ErrCorrectOptionExists
		}
	}
	return nil
}

func validTimeLimit(minutes *int) error {
	if minutes != nil && *minutes <= 0 {
		return domain.Invalid("time_limit_minutes must be positive")
	}
	return nil
}
