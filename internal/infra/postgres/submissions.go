package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
)

// StartSubmission inserts the attempt and its queue record in one transaction.
// The partial unique index on open attempts turns a concurrent duplicate into
// a no-op insert, which is reported as *domain.InProgressError.
func (s *Store) StartSubmission(ctx context.Context, quizID, userID int64) (domain.Submission, error) {
	var sub domain.Submission
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*quizModel)(nil)).Where("quiz_id = ?", quizID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check quiz: %w", err)
		}
		if !exists {
			return domain.ErrQuizNotFound
		}

		var (
			id        int64
			createdAt time.Time
		)
		err = tx.QueryRowContext(ctx, `
			INSERT INTO quiz_submissions (quiz_id, user_id, status)
			VALUES (?, ?, 'in_progress')
			ON CONFLICT (quiz_id, user_id) WHERE status = 'in_progress' DO NOTHING
			RETURNING submission_id, created_at`, quizID, userID).Scan(&id, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			var open submissionModel
			if err := tx.NewSelect().Model(&open).
				Column("submission_id").
				Where("quiz_id = ? AND user_id = ? AND status = ?", quizID, userID, domain.StatusInProgress).
				Scan(ctx); err != nil {
				return fmt.Errorf("select open submission: %w", err)
			}
			return &domain.InProgressError{SubmissionID: open.ID}
		}
		if err != nil {
			if sqlState(err) == codeForeignKeyViolation {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("insert submission: %w", err)
		}

		queued := queueModel{SubmissionID: id}
		if _, err := tx.NewInsert().Model(&queued).Exec(ctx); err != nil {
			return fmt.Errorf("enqueue submission: %w", err)
		}
		sub = domain.Submission{
			ID:        id,
			QuizID:    quizID,
			UserID:    userID,
			Status:    domain.StatusInProgress,
			CreatedAt: createdAt,
		}
		return nil
	})
	if err != nil {
		return domain.Submission{}, err
	}
	return sub, nil
}

func (s *Store) GetSubmission(ctx context.Context, id int64) (domain.Submission, error) {
	var m submissionModel
	if err := s.db.NewSelect().Model(&m).Where("submission_id = ?", id).Scan(ctx); err != nil {
		return domain.Submission{}, notFound(err, domain.ErrSubmissionNotFound, "select submission")
	}
	return m.toDomain(), nil
}

// AddAnswer holds a share lock on the submission so a concurrent completion
// cannot slip in between the status check and the insert.
func (s *Store) AddAnswer(ctx context.Context, answer *domain.Answer) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var sub submissionModel
		err := tx.NewSelect().Model(&sub).
			Where("submission_id = ?", answer.SubmissionID).
			For("SHARE").
			Scan(ctx)
		if err != nil {
			return notFound(err, domain.ErrSubmissionNotFound, "lock submission")
		}
		if sub.Status != string(domain.StatusInProgress) {
			return domain.ErrSubmissionClosed
		}

		m := answerModel{
			SubmissionID:     answer.SubmissionID,
			QuestionID:       answer.QuestionID,
			AnswerText:       answer.AnswerText,
			SelectedOptionID: answer.SelectedOptionID,
		}
		if _, err := tx.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
			if sqlState(err) == codeForeignKeyViolation {
				return domain.ErrQuestionNotFound
			}
			return fmt.Errorf("insert answer: %w", err)
		}
		*answer = m.toDomain()
		return nil
	})
}

type gradableRow struct {
	AnswerID      int64   `bun:"answer_id"`
	QuestionID    int64   `bun:"question_id"`
	QuestionType  string  `bun:"question_type"`
	Points        int     `bun:"points"`
	AnswerText    *string `bun:"answer_text"`
	OptionCorrect *bool   `bun:"is_correct"`
}

// FinalizeSubmission locks the submission row for the whole grading pass.
func (s *Store) FinalizeSubmission(ctx context.Context, id int64, grade app.GradeFunc) (domain.Submission, domain.Grade, error) {
	var (
		sub    submissionModel
		result domain.Grade
	)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&sub).
			Where("submission_id = ?", id).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return notFound(err, domain.ErrSubmissionNotFound, "lock submission")
		}

		var rows []gradableRow
		err = tx.NewRaw(`
			SELECT a.answer_id, a.question_id, q.question_type, q.points, a.answer_text, o.is_correct
			FROM submission_answers a
			JOIN questions q ON q.question_id = a.question_id
			LEFT JOIN question_options o ON o.option_id = a.selected_option_id
			WHERE a.submission_id = ?
			ORDER BY a.answer_id`, id).Scan(ctx, &rows)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}
		gradable := make([]domain.GradableAnswer, 0, len(rows))
		for _, r := range rows {
			gradable = append(gradable, domain.GradableAnswer{
				AnswerID:      r.AnswerID,
				QuestionID:    r.QuestionID,
				QuestionType:  domain.QuestionType(r.QuestionType),
				Points:        r.Points,
				AnswerText:    r.AnswerText,
				OptionCorrect: r.OptionCorrect,
			})
		}

		var questions []questionModel
		if err := tx.NewSelect().Model(&questions).
			Column("question_id", "points").
			Where("quiz_id = ?", sub.QuizID).
			Scan(ctx); err != nil {
			return fmt.Errorf("load question weights: %w", err)
		}
		weights := make([]domain.QuestionWeight, 0, len(questions))
		for _, q := range questions {
			weights = append(weights, domain.QuestionWeight{QuestionID: q.ID, Points: q.Points})
		}

		result = grade(gradable, weights)

		sub.Status = string(domain.StatusSubmitted)
		if sub.SubmittedAt == nil {
			now := time.Now().UTC()
			sub.SubmittedAt = &now
		}
		score, total := result.Score, result.TotalPoints
		sub.Score = &score
		sub.TotalPoints = &total
		_, err = tx.NewUpdate().Model(&sub).
			Column("status", "submitted_at", "score", "total_points").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update submission: %w", err)
		}

		for _, credit := range result.Credits {
			if _, err := tx.NewUpdate().Model((*answerModel)(nil)).
				Set("points_earned = ?", credit.PointsEarned).
				Where("answer_id = ?", credit.AnswerID).
				Exec(ctx); err != nil {
				return fmt.Errorf("update answer credit: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Submission{}, domain.Grade{}, err
	}
	return sub.toDomain(), result, nil
}

type submissionHeadRow struct {
	ID          int64      `bun:"submission_id"`
	QuizID      int64      `bun:"quiz_id"`
	UserID      int64      `bun:"user_id"`
	Status      string     `bun:"status"`
	CreatedAt   time.Time  `bun:"created_at"`
	SubmittedAt *time.Time `bun:"submitted_at"`
	Score       *float64   `bun:"score"`
	TotalPoints *int       `bun:"total_points"`
	QuizTitle   *string    `bun:"quiz_title"`
}

type answerViewRow struct {
	ID                 int64     `bun:"answer_id"`
	SubmissionID       int64     `bun:"submission_id"`
	QuestionID         int64     `bun:"question_id"`
	AnswerText         *string   `bun:"answer_text"`
	SelectedOptionID   *int64    `bun:"selected_option_id"`
	PointsEarned       *float64  `bun:"points_earned"`
	CreatedAt          time.Time `bun:"created_at"`
	QuestionText       *string   `bun:"question_text"`
	QuestionType       *string   `bun:"question_type"`
	QuestionPoints     *int      `bun:"question_points"`
	SelectedOptionText *string   `bun:"selected_option_text"`
	CorrectOptionText  *string   `bun:"correct_option_text"`
}

// GetSubmissionDetail uses LEFT JOINs throughout so rows whose question or
// option has gone still render.
func (s *Store) GetSubmissionDetail(ctx context.Context, id int64) (domain.SubmissionDetail, error) {
	var head submissionHeadRow
	err := s.db.NewRaw(`
		SELECT s.submission_id, s.quiz_id, s.user_id, s.status, s.created_at,
			s.submitted_at, s.score, s.total_points, qz.title AS quiz_title
		FROM quiz_submissions s
		LEFT JOIN quizzes qz ON qz.quiz_id = s.quiz_id
		WHERE s.submission_id = ?`, id).Scan(ctx, &head)
	if err != nil {
		return domain.SubmissionDetail{}, notFound(err, domain.ErrSubmissionNotFound, "select submission")
	}

	var rows []answerViewRow
	err = s.db.NewRaw(`
		SELECT a.answer_id, a.submission_id, a.question_id, a.answer_text,
			a.selected_option_id, a.points_earned, a.created_at,
			q.question_text, q.question_type, q.points AS question_points,
			sel.option_text AS selected_option_text,
			(SELECT c.option_text FROM question_options c
			 WHERE c.question_id = a.question_id AND c.is_correct
			 ORDER BY c.option_id LIMIT 1) AS correct_option_text
		FROM submission_answers a
		LEFT JOIN questions q ON q.question_id = a.question_id
		LEFT JOIN question_options sel ON sel.option_id = a.selected_option_id
		WHERE a.submission_id = ?
		ORDER BY q.display_order, a.answer_id`, id).Scan(ctx, &rows)
	if err != nil {
		return domain.SubmissionDetail{}, fmt.Errorf("select answers: %w", err)
	}

	sub := submissionModel{
		ID:          head.ID,
		QuizID:      head.QuizID,
		UserID:      head.UserID,
		Status:      head.Status,
		CreatedAt:   head.CreatedAt,
		SubmittedAt: head.SubmittedAt,
		Score:       head.Score,
		TotalPoints: head.TotalPoints,
	}
	detail := domain.SubmissionDetail{
		Submission: domain.SubmissionView{Submission: sub.toDomain()},
		Answers:    make([]domain.AnswerView, 0, len(rows)),
	}
	if head.QuizTitle != nil {
		detail.Submission.QuizTitle = *head.QuizTitle
	}
	for _, r := range rows {
		view := domain.AnswerView{
			Answer: domain.Answer{
				ID:               r.ID,
				SubmissionID:     r.SubmissionID,
				QuestionID:       r.QuestionID,
				AnswerText:       r.AnswerText,
				SelectedOptionID: r.SelectedOptionID,
				PointsEarned:     r.PointsEarned,
				CreatedAt:        r.CreatedAt,
			},
			QuestionText:       r.QuestionText,
			QuestionPoints:     r.QuestionPoints,
			SelectedOptionText: r.SelectedOptionText,
			CorrectOptionText:  r.CorrectOptionText,
		}
		if r.QuestionType != nil {
			qtype := domain.QuestionType(*r.QuestionType)
			view.QuestionType = &qtype
		}
		detail.Answers = append(detail.Answers, view)
	}
	return detail, nil
}

func (s *Store) ListSubmissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	var rows []submissionModel
	q := s.db.NewSelect().Model(&rows).Order("submission_id")
	if filter.QuizID != 0 {
		q = q.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}
