package memory

import (
	"context"
	"sort"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// StartSubmission checks for an open attempt and inserts under the same lock,
// so concurrent starts for one (quiz, user) produce a single row.
func (s *Store) StartSubmission(_ context.Context, quizID, userID int64) (domain.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.Submission{}, domain.ErrQuizNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return domain.Submission{}, domain.ErrUserNotFound
	}
	for _, sub := range s.submissions {
		if sub.QuizID == quizID && sub.UserID == userID && sub.Status == domain.StatusInProgress {
			return domain.Submission{}, &domain.InProgressError{SubmissionID: sub.ID}
		}
	}

	now := s.clock()
	sub := domain.Submission{
		ID:        s.nextLocked("submissions"),
		QuizID:    quizID,
		UserID:    userID,
		Status:    domain.StatusInProgress,
		CreatedAt: now,
	}
	s.submissions[sub.ID] = sub
	s.queue = append(s.queue, QueueRecord{
		ID:           s.nextLocked("submission_queue"),
		SubmissionID: sub.ID,
		EnqueuedAt:   now,
	})
	return sub, nil
}

func (s *Store) GetSubmission(_ context.Context, id int64) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *Store) AddAnswer(_ context.Context, answer *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[answer.SubmissionID]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.StatusInProgress {
		return domain.ErrSubmissionClosed
	}
	if _, ok := s.questions[answer.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	answer.ID = s.nextLocked("submission_answers")
	answer.CreatedAt = s.clock()
	answer.PointsEarned = nil
	s.answers[answer.ID] = *answer
	return nil
}

func (s *Store) FinalizeSubmission(_ context.Context, id int64, grade app.GradeFunc) (domain.Submission, domain.Grade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.Submission{}, domain.Grade{}, domain.ErrSubmissionNotFound
	}

	var gradable []domain.GradableAnswer
	for _, answer := range s.answersOfLocked(id) {
		question, ok := s.questions[answer.QuestionID]
		if !ok {
			continue
		}
		row := domain.GradableAnswer{
			AnswerID:     answer.ID,
			QuestionID:   question.ID,
			QuestionType: question.Type,
			Points:       question.Points,
			AnswerText:   answer.AnswerText,
		}
		if answer.SelectedOptionID != nil {
			if option, ok := s.options[*answer.SelectedOptionID]; ok {
				correct := option.IsCorrect
				row.OptionCorrect = &correct
			}
		}
		gradable = append(gradable, row)
	}

	var weights []domain.QuestionWeight
	for _, question := range s.questionsOfLocked(sub.QuizID) {
		weights = append(weights, domain.QuestionWeight{QuestionID: question.ID, Points: question.Points})
	}

	result := grade(gradable, weights)

	sub.Status = domain.StatusSubmitted
	if sub.SubmittedAt == nil {
		now := s.clock()
		sub.SubmittedAt = &now
	}
	score := result.Score
	total := result.TotalPoints
	sub.Score = &score
	sub.TotalPoints = &total
	s.submissions[id] = sub

	for _, credit := range result.Credits {
		answer := s.answers[credit.AnswerID]
		earned := credit.PointsEarned
		answer.PointsEarned = &earned
		s.answers[credit.AnswerID] = answer
	}
	return sub, result, nil
}

func (s *Store) GetSubmissionDetail(_ context.Context, id int64) (domain.SubmissionDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return domain.SubmissionDetail{}, domain.ErrSubmissionNotFound
	}

	detail := domain.SubmissionDetail{
		Submission: domain.SubmissionView{Submission: sub, QuizTitle: s.quizzes[sub.QuizID].Title},
		Answers:    []domain.AnswerView{},
	}
	answers := s.answersOfLocked(id)
	sort.SliceStable(answers, func(i, j int) bool {
		return s.questions[answers[i].QuestionID].DisplayOrder < s.questions[answers[j].QuestionID].DisplayOrder
	})
	for _, answer := range answers {
		view := domain.AnswerView{Answer: answer}
		if question, ok := s.questions[answer.QuestionID]; ok {
			text, qtype, points := question.Text, question.Type, question.Points
			view.QuestionText = &text
			view.QuestionType = &qtype
			view.QuestionPoints = &points
			for _, option := range s.optionsOfLocked(question.ID) {
				if option.IsCorrect {
					correct := option.Text
					view.CorrectOptionText = &correct
					break
				}
			}
		}
		if answer.SelectedOptionID != nil {
			if option, ok := s.options[*answer.SelectedOptionID]; ok {
				selected := option.Text
				view.SelectedOptionText = &selected
			}
		}
		detail.Answers = append(detail.Answers, view)
	}
	return detail, nil
}

func (s *Store) ListSubmissions(_ context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, sub := range s.submissions {
		if matches(sub, filter) {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(sub domain.Submission, filter domain.SubmissionFilter) bool {
	if filter.QuizID != 0 && sub.QuizID != filter.QuizID {
		return false
	}
	if filter.UserID != 0 && sub.UserID != filter.UserID {
		return false
	}
	if filter.Status != "" && sub.Status != filter.Status {
		return false
	}
	return true
}

// answersOfLocked returns the submission's answers in insertion order.
func (s *Store) answersOfLocked(submissionID int64) []domain.Answer {
	out := make([]domain.Answer, 0)
	for _, answer := range s.answers {
		if answer.SubmissionID == submissionID {
			out = append(out, answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) deleteSubmissionLocked(id int64) {
	delete(s.submissions, id)
	for answerID, answer := range s.answers {
		if answer.SubmissionID == id {
			delete(s.answers, answerID)
		}
	}
}
