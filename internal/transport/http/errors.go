package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type inProgressResponse struct {
	Error        string `json:"error"`
	SubmissionID int64  `json:"submission_id"`
}

// statusFor maps a domain error to its HTTP status and client message.
// ok is false for errors that should surface as a generic 500.
func statusFor(err error) (status int, message string, ok bool) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message, true
	case errors.Is(err, domain.ErrQuestionNotInQuiz),
		errors.Is(err, domain.ErrOptionNotInQuestion):
		return http.StatusBadRequest, err.Error(), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", true
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error(), true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error(), true
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, "Quiz not found", true
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "Question not found", true
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusNotFound, "Option not found", true
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.Is(err, domain.ErrSubmissionNotFound):
		return http.StatusNotFound, "Submission not found", true
	case errors.Is(err, domain.ErrSubmissionClosed),
		errors.Is(err, domain.ErrCorrectOptionExists),
		errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, err.Error(), true
	}
	return http.StatusInternalServerError, "", false
}

// respondError writes err as JSON. Unmapped errors are logged and replaced by fallback.
func respondError(c *gin.Context, log *logger.Logger, err error, fallback string) {
	var inProgress *domain.InProgressError
	if errors.As(err, &inProgress) {
		c.JSON(http.StatusBadRequest, inProgressResponse{Error: inProgress.Error(), SubmissionID: inProgress.SubmissionID})
		return
	}
	if status, message, ok := statusFor(err); ok {
		c.JSON(status, errorResponse{Error: message})
		return
	}
	log.Error(fallback, "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(requestIDKey))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: fallback})
}

// respondBindError turns a ShouldBind failure into a 400 with a readable message.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: bindMessage(err)})
}

func bindMessage(err error) string {
	var (
		fieldErrs validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)
	switch {
	case errors.As(err, &fieldErrs):
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fieldMessage(fe))
		}
		return strings.Join(parts, "; ")
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind())
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "invalid request body"
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	case "min", "gte":
		return name + " must be at least " + fe.Param()
	case "max", "lte":
		return name + " must be at most " + fe.Param()
	case "gt":
		return name + " must be greater than " + fe.Param()
	}
	return name + " is invalid"
}

var tagNamesOnce sync.Once

// useJSONFieldNames makes validator report fields by their json names.
func useJSONFieldNames() {
	tagNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
