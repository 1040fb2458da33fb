package postgres

import (
	"context"
	"fmt"

	"quiz-platform-service/internal/domain"
)

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	m := userModel{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsAdmin:      user.IsAdmin,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		if sqlState(err) == codeUniqueViolation {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*user = m.toDomain()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("user_id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user")
	}
	return m.toDomain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("username = ?", username).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound, "select user")
	}
	return m.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userModel
	if err := s.db.NewSelect().Model(&rows).Order("user_id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]domain.User, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) error {
	m := userModel{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	res, err := s.db.NewUpdate().Model(&m).
		Column("username", "email", "first_name", "last_name").
		WherePK().
		Exec(ctx)
	if err != nil {
		if sqlState(err) == codeUniqueViolation {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}

func (s *Store) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("is_admin = ?", isAdmin).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}

// DeleteUser relies on the schema: submissions cascade, authored quizzes keep a NULL creator.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().Model((*userModel)(nil)).Where("user_id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}
