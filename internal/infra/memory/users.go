package memory

import (
	"context"
	"sort"

	"quiz-platform-service/internal/domain"
)

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTakenLocked(user.Username, 0) {
		return domain.ErrUsernameTaken
	}
	user.ID = s.nextLocked("users")
	user.CreatedAt = s.clock()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if s.usernameTakenLocked(user.Username, user.ID) {
		return domain.ErrUsernameTaken
	}
	current.Username = user.Username
	current.Email = user.Email
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	s.users[user.ID] = current
	return nil
}

func (s *Store) SetAdmin(_ context.Context, username string, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.users {
		if user.Username == username {
			user.IsAdmin = isAdmin
			s.users[id] = user
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// DeleteUser removes the user and their submissions; authored quizzes lose their creator.
func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	for subID, sub := range s.submissions {
		if sub.UserID == id {
			s.deleteSubmissionLocked(subID)
		}
	}
	for quizID, quiz := range s.quizzes {
		if quiz.CreatedBy == id {
			quiz.CreatedBy = 0
			s.quizzes[quizID] = quiz
		}
	}
	return nil
}

func (s *Store) usernameTakenLocked(username string, except int64) bool {
	for id, user := range s.users {
		if id != except && user.Username == username {
			return true
		}
	}
	return false
}
