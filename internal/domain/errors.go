package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates an option ID is unknown.
	ErrOptionNotFound = errors.New("option not found")
	ErrUserNotFound   = errors.New("user not found")
	// ErrSubmissionNotFound indicates the attempt does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionClosed is returned when answering an attempt that was already submitted.
	ErrSubmissionClosed = errors.New("submission already submitted")
	// ErrQuestionNotInQuiz is returned when an answer targets a question of another quiz.
	ErrQuestionNotInQuiz = errors.New("question does not belong to the submission's quiz")
	// ErrOptionNotInQuestion is returned when a selected option belongs to another question.
	ErrOptionNotInQuestion = errors.New("option does not belong to the question")
	// ErrCorrectOptionExists guards multiple-choice questions against a second correct option.
	ErrCorrectOptionExists = errors.New("question already has a correct option")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("access denied")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InProgressError is returned by Start when the user already has an open
// attempt at the quiz. SubmissionID lets the client resume it.
type InProgressError struct {
	SubmissionID int64
}

func (e *InProgressError) Error() string {
	return "You already have an in-progress submission for this quiz"
}
