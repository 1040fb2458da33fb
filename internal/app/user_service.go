package app

import (
	"context"
	"strings"

	"quiz-platform-service/internal/domain"
)

type UserService struct {
	users UserRepository
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users}
}

type ProfilePatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, caller domain.Principal, id int64) (domain.User, error) {
	if !caller.CanActFor(id) {
		return domain.User{}, domain.ErrForbidden
	}
	return s.users.GetUser(ctx, id)
}

func (s *UserService) Update(ctx context.Context, caller domain.Principal, id int64, patch ProfilePatch) (domain.User, error) {
	if !caller.CanActFor(id) {
		return domain.User{}, domain.ErrForbidden
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if patch.Username != nil {
		if strings.TrimSpace(*patch.Username) == "" {
			return domain.User{}, domain.Invalid("username cannot be empty")
		}
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		if strings.TrimSpace(*patch.Email) == "" {
			return domain.User{}, domain.Invalid("email cannot be empty")
		}
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.DeleteUser(ctx, id)
}
