package memory

import (
	"context"
	"sort"

	"quiz-platform-service/internal/domain"
)

func (s *Store) ListScoredSubmissions(_ context.Context) ([]domain.ScoredSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoredSubmission, 0)
	for _, sub := range s.submissions {
		if sub.Status != domain.StatusSubmitted {
			continue
		}
		quiz, ok := s.quizzes[sub.QuizID]
		if !ok {
			continue
		}
		row := domain.ScoredSubmission{SubmissionID: sub.ID, QuizID: sub.QuizID, QuizTitle: quiz.Title}
		if sub.Score != nil {
			row.Score = *sub.Score
		}
		if sub.TotalPoints != nil {
			row.TotalPoints = *sub.TotalPoints
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionID < out[j].SubmissionID })
	return out, nil
}

// ListAdminSubmissions orders by submitted_at descending; open attempts come last.
func (s *Store) ListAdminSubmissions(_ context.Context, filter domain.SubmissionFilter) ([]domain.AdminSubmissionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AdminSubmissionRow, 0)
	for _, sub := range s.submissions {
		if !matches(sub, filter) {
			continue
		}
		quiz, ok := s.quizzes[sub.QuizID]
		if !ok {
			continue
		}
		user, ok := s.users[sub.UserID]
		if !ok {
			continue
		}
		out = append(out, domain.AdminSubmissionRow{
			Submission: sub,
			QuizTitle:  quiz.Title,
			Username:   user.Username,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Email:      user.Email,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].SubmittedAt, out[j].SubmittedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
