package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/domain"
)

// paramID parses a positive path id, writing a 400 when it is malformed.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id query parameter; absent means 0.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// submissionFilter reads quiz_id, user_id and status from the query string.
func submissionFilter(c *gin.Context) (domain.SubmissionFilter, bool) {
	quizID, ok := queryID(c, "quiz_id")
	if !ok {
		return domain.SubmissionFilter{}, false
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return domain.SubmissionFilter{}, false
	}
	status := domain.SubmissionStatus(c.Query("status"))
	switch status {
	case "", domain.StatusInProgress, domain.StatusSubmitted:
	default:
		c.JSON(http.StatusBadRequest, errorResponse{Error: "status must be in_progress or submitted"})
		return domain.SubmissionFilter{}, false
	}
	return domain.SubmissionFilter{QuizID: quizID, UserID: userID, Status: status}, true
}

func caller(c *gin.Context) domain.Principal {
	p, _ := principalFrom(c)
	return p
}
