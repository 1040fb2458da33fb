package app

import "quiz-platform-service/internal/domain"

// PartialCreditPolicy awards credit for a question that cannot be graded
// automatically, given its point value and the submitted text.
type PartialCreditPolicy func(points int, answerText string) float64

// HalfCreditIfAttempted awards 50% of the points for any non-empty answer,
// pending manual grading. Whitespace counts as an attempt; correctness is not checked.
func HalfCreditIfAttempted(points int, answerText string) float64 {
	if answerText == "" {
		return 0
	}
	return float64(points) * 0.5
}

// Scorer grades submissions. The zero value is not usable; use NewScorer.
type Scorer struct {
	partial         PartialCreditPolicy
	countUnanswered bool
}

type ScorerOption func(*Scorer)

// WithPartialCredit replaces the policy for true_false, short_answer and essay questions.
func WithPartialCredit(policy PartialCreditPolicy) ScorerOption {
	return func(s *Scorer) {
		if policy != nil {
			s.partial = policy
		}
	}
}

// WithUnansweredInTotal makes skipped questions count towards total_points.
// By default only answered questions contribute to the denominator.
func WithUnansweredInTotal(enabled bool) ScorerOption {
	return func(s *Scorer) { s.countUnanswered = enabled }
}

func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{partial: HalfCreditIfAttempted}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PointsFor computes the credit earned by a single answer.
func (s *Scorer) PointsFor(answer domain.GradableAnswer) float64 {
	if answer.QuestionType == domain.QuestionMultipleChoice {
		if answer.OptionCorrect != nil && *answer.OptionCorrect {
			return float64(answer.Points)
		}
		return 0
	}
	text := ""
	if answer.AnswerText != nil {
		text = *answer.AnswerText
	}
	return s.partial(answer.Points, text)
}

// Grade scores a submission. Only the latest row per question (highest
// answer ID) earns credit; superseded rows are credited 0.
func (s *Scorer) Grade(answers []domain.GradableAnswer, weights []domain.QuestionWeight) domain.Grade {
	latest := make(map[int64]domain.GradableAnswer, len(answers))
	for _, answer := range answers {
		if current, ok := latest[answer.QuestionID]; !ok || answer.AnswerID > current.AnswerID {
			latest[answer.QuestionID] = answer
		}
	}

	grade := domain.Grade{Credits: make([]domain.AnswerCredit, 0, len(answers))}
	for _, answer := range answers {
		earned := 0.0
		if latest[answer.QuestionID].AnswerID == answer.AnswerID {
			earned = s.PointsFor(answer)
			grade.Score += earned
			if !s.countUnanswered {
				grade.TotalPoints += answer.Points
			}
		}
		grade.Credits = append(grade.Credits, domain.AnswerCredit{AnswerID: answer.AnswerID, PointsEarned: earned})
	}

	if s.countUnanswered {
		for _, w := range weights {
			grade.TotalPoints += w.Points
		}
	}
	return grade
}

// GradeFunc adapts the scorer to the repository callback.
func (s *Scorer) GradeFunc() GradeFunc {
	return s.Grade
}
