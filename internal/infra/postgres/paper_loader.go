package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-platform-service/internal/domain"
)

// PaperLoader reads quiz papers straight from Postgres with pgx.
type PaperLoader struct {
	pool *pgxpool.Pool
}

func NewPaperLoader(pool *pgxpool.Pool) *PaperLoader {
	return &PaperLoader{pool: pool}
}

func (l *PaperLoader) LoadPaper(ctx context.Context, quizID int64) (domain.Paper, error) {
	var (
		quiz      domain.Quiz
		createdBy *int64
	)
	err := l.pool.QueryRow(ctx, `
		SELECT quiz_id, title, description, created_by, created_at,
			time_limit_minutes, is_published, published_at
		FROM quizzes WHERE quiz_id = $1`, quizID).Scan(
		&quiz.ID, &quiz.Title, &quiz.Description, &createdBy, &quiz.CreatedAt,
		&quiz.TimeLimitMinutes, &quiz.IsPublished, &quiz.PublishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Paper{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Paper{}, fmt.Errorf("load quiz: %w", err)
	}
	if createdBy != nil {
		quiz.CreatedBy = *createdBy
	}

	rows, err := l.pool.Query(ctx, `
		SELECT q.question_id, q.question_text, q.question_type, q.points, q.display_order,
			o.option_id, o.option_text
		FROM questions q
		LEFT JOIN question_options o ON o.question_id = q.question_id
		WHERE q.quiz_id = $1
		ORDER BY q.display_order, q.question_id, o.option_id`, quizID)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	paper := domain.Paper{Quiz: quiz, Questions: []domain.PaperQuestion{}}
	for rows.Next() {
		var (
			question   domain.Question
			qtype      string
			optionID   *int64
			optionText *string
		)
		if err := rows.Scan(&question.ID, &question.Text, &qtype, &question.Points, &question.DisplayOrder, &optionID, &optionText); err != nil {
			return domain.Paper{}, fmt.Errorf("scan question: %w", err)
		}
		question.QuizID = quizID
		question.Type = domain.QuestionType(qtype)

		last := len(paper.Questions) - 1
		if last < 0 || paper.Questions[last].ID != question.ID {
			paper.Questions = append(paper.Questions, domain.PaperQuestion{Question: question, Options: []domain.PaperOption{}})
			last++
		}
		if optionID != nil && optionText != nil {
			paper.Questions[last].Options = append(paper.Questions[last].Options, domain.PaperOption{ID: *optionID, Text: *optionText})
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Paper{}, fmt.Errorf("iterate questions: %w", err)
	}
	return paper, nil
}
