package memory

import (
	"context"
	"sort"

	"quiz-platform-service/internal/domain"
)

func (s *Store) CreateQuiz(_ context.Context, quiz *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.ID = s.nextLocked("quizzes")
	quiz.CreatedAt = s.clock()
	s.quizzes[quiz.ID] = *quiz
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context, published *bool) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if published != nil && quiz.IsPublished != *published {
			continue
		}
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	current.Title = quiz.Title
	current.Description = quiz.Description
	current.TimeLimitMinutes = quiz.TimeLimitMinutes
	current.IsPublished = quiz.IsPublished
	current.PublishedAt = quiz.PublishedAt
	s.quizzes[quiz.ID] = current
	return nil
}

// DeleteQuiz cascades to questions, options, submissions and answers.
func (s *Store) DeleteQuiz(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	for questionID, question := range s.questions {
		if question.QuizID == id {
			s.deleteQuestionLocked(questionID)
		}
	}
	for subID, sub := range s.submissions {
		if sub.QuizID == id {
			s.deleteSubmissionLocked(subID)
		}
	}
	return nil
}

func (s *Store) CreateQuestion(_ context.Context, question *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	question.ID = s.nextLocked("questions")
	s.questions[question.ID] = *question
	return nil
}

func (s *Store) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) ListQuestions(_ context.Context, quizID int64) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questionsOfLocked(quizID), nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.questions[question.ID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	current.Text = question.Text
	current.Type = question.Type
	current.Points = question.Points
	current.DisplayOrder = question.DisplayOrder
	s.questions[question.ID] = current
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteQuestionLocked(id)
	return nil
}

func (s *Store) CreateOption(_ context.Context, option *domain.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[option.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	option.ID = s.nextLocked("options")
	s.options[option.ID] = *option
	return nil
}

func (s *Store) GetOption(_ context.Context, id int64) (domain.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	option, ok := s.options[id]
	if !ok {
		return domain.Option{}, domain.ErrOptionNotFound
	}
	return option, nil
}

func (s *Store) ListOptions(_ context.Context, questionID int64) ([]domain.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.optionsOfLocked(questionID), nil
}

func (s *Store) UpdateOption(_ context.Context, option domain.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.options[option.ID]
	if !ok {
		return domain.ErrOptionNotFound
	}
	current.Text = option.Text
	current.IsCorrect = option.IsCorrect
	s.options[option.ID] = current
	return nil
}

// DeleteOption removes the option; answers that selected it keep their row with no selection.
func (s *Store) DeleteOption(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.options[id]; !ok {
		return domain.ErrOptionNotFound
	}
	s.deleteOptionLocked(id)
	return nil
}

// LoadPaper implements the paper loader used by the caches.
func (s *Store) LoadPaper(_ context.Context, quizID int64) (domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Paper{}, domain.ErrQuizNotFound
	}
	paper := domain.Paper{Quiz: quiz, Questions: []domain.PaperQuestion{}}
	for _, question := range s.questionsOfLocked(quizID) {
		pq := domain.PaperQuestion{Question: question, Options: []domain.PaperOption{}}
		for _, option := range s.optionsOfLocked(question.ID) {
			pq.Options = append(pq.Options, domain.PaperOption{ID: option.ID, Text: option.Text})
		}
		paper.Questions = append(paper.Questions, pq)
	}
	return paper, nil
}

func (s *Store) questionsOfLocked(quizID int64) []domain.Question {
	out := make([]domain.Question, 0)
	for _, question := range s.questions {
		if question.QuizID == quizID {
			out = append(out, question)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) optionsOfLocked(questionID int64) []domain.Option {
	out := make([]domain.Option, 0)
	for _, option := range s.options {
		if option.QuestionID == questionID {
			out = append(out, option)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) deleteQuestionLocked(id int64) {
	delete(s.questions, id)
	for optionID, option := range s.options {
		if option.QuestionID == id {
			s.deleteOptionLocked(optionID)
		}
	}
	for answerID, answer := range s.answers {
		if answer.QuestionID == id {
			delete(s.answers, answerID)
		}
	}
}

func (s *Store) deleteOptionLocked(id int64) {
	delete(s.options, id)
	for answerID, answer := range s.answers {
		if answer.SelectedOptionID != nil && *answer.SelectedOptionID == id {
			answer.SelectedOptionID = nil
			s.answers[answerID] = answer
		}
	}
}
