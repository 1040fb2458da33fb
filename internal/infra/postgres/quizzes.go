package postgres

import (
	"context"
	"fmt"

	"quiz-platform-service/internal/domain"
)

func (s *Store) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	m := newQuizModel(*quiz)
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	*quiz = m.toDomain()
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	var m quizModel
	if err := s.db.NewSelect().Model(&m).Where("quiz_id = ?", id).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	return m.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, published *bool) ([]domain.Quiz, error) {
	var rows []quizModel
	q := s.db.NewSelect().Model(&rows).Order("quiz_id")
	if published != nil {
		q = q.Where("is_published = ?", *published)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	m := newQuizModel(quiz)
	res, err := s.db.NewUpdate().Model(&m).
		Column("title", "description", "time_limit_minutes", "is_published", "published_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return affected(res, domain.ErrQuizNotFound)
}

// DeleteQuiz relies on ON DELETE CASCADE for questions, options, submissions and answers.
func (s *Store) DeleteQuiz(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*quizModel)(nil)).Where("quiz_id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return affected(res, domain.ErrQuizNotFound)
}

func (s *Store) CreateQuestion(ctx context.Context, question *domain.Question) error {
	m := newQuestionModel(*question)
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("insert question: %w", err)
	}
	*question = m.toDomain()
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	var m questionModel
	if err := s.db.NewSelect().Model(&m).Where("question_id = ?", id).Scan(ctx); err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "select question")
	}
	return m.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var rows []questionModel
	err := s.db.NewSelect().Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("display_order", "question_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	m := newQuestionModel(question)
	res, err := s.db.NewUpdate().Model(&m).
		Column("question_text", "question_type", "points", "display_order").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return affected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*questionModel)(nil)).Where("question_id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return affected(res, domain.ErrQuestionNotFound)
}

func (s *Store) CreateOption(ctx context.Context, option *domain.Option) error {
	m := optionModel{QuestionID: option.QuestionID, Text: option.Text, IsCorrect: option.IsCorrect}
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return domain.ErrQuestionNotFound
		}
		return fmt.Errorf("insert option: %w", err)
	}
	*option = m.toDomain()
	return nil
}

func (s *Store) GetOption(ctx context.Context, id int64) (domain.Option, error) {
	var m optionModel
	if err := s.db.NewSelect().Model(&m).Where("option_id = ?", id).Scan(ctx); err != nil {
		return domain.Option{}, notFound(err, domain.ErrOptionNotFound, "select option")
	}
	return m.toDomain(), nil
}

func (s *Store) ListOptions(ctx context.Context, questionID int64) ([]domain.Option, error) {
	var rows []optionModel
	err := s.db.NewSelect().Model(&rows).
		Where("question_id = ?", questionID).
		Order("option_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	out := make([]domain.Option, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateOption(ctx context.Context, option domain.Option) error {
	m := optionModel{ID: option.ID, Text: option.Text, IsCorrect: option.IsCorrect}
	res, err := s.db.NewUpdate().Model(&m).
		Column("option_text", "is_correct").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update option: %w", err)
	}
	return affected(res, domain.ErrOptionNotFound)
}

// DeleteOption leaves answers in place; the schema nulls their selected_option_id.
func (s *Store) DeleteOption(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*optionModel)(nil)).Where("option_id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	return affected(res, domain.ErrOptionNotFound)
}
