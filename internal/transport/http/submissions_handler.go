package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/logger"
)

type SubmissionHandler struct {
	submissions *app.SubmissionService
	log         *logger.Logger
}

func NewSubmissionHandler(submissions *app.SubmissionService, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions, log: log}
}

type startSubmissionRequest struct {
	QuizID int64 `json:"quiz_id" binding:"required,gt=0"`
	UserID int64 `json:"user_id" binding:"omitempty,gt=0"`
}

type answerRequest struct {
	QuestionID       int64   `json:"question_id" binding:"required,gt=0"`
	AnswerText       *string `json:"answer_text"`
	SelectedOptionID *int64  `json:"selected_option_id" binding:"omitempty,gt=0"`
}

type completeResponse struct {
	Message     string  `json:"message"`
	Score       float64 `json:"score"`
	TotalPoints int     `json:"total_points"`
}

func (h *SubmissionHandler) Start(c *gin.Context) {
	var req startSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	submission, err := h.submissions.Start(c.Request.Context(), caller(c), req.QuizID, req.UserID)
	if err != nil {
		respondError(c, h.log, err, "Failed to start submission")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Quiz submission started", "submission_id": submission.ID})
}

func (h *SubmissionHandler) List(c *gin.Context) {
	filter, ok := submissionFilter(c)
	if !ok {
		return
	}
	submissions, err := h.submissions.List(c.Request.Context(), caller(c), filter)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch submissions")
		return
	}
	c.JSON(http.StatusOK, submissions)
}

func (h *SubmissionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	detail, err := h.submissions.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch submission")
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *SubmissionHandler) RecordAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	answer, err := h.submissions.RecordAnswer(c.Request.Context(), caller(c), id, app.AnswerInput{
		QuestionID:       req.QuestionID,
		AnswerText:       req.AnswerText,
		SelectedOptionID: req.SelectedOptionID,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to submit answer")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Answer submitted successfully", "answer_id": answer.ID})
}

func (h *SubmissionHandler) Complete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	grade, err := h.submissions.Complete(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to complete submission")
		return
	}
	c.JSON(http.StatusOK, completeResponse{
		Message:     "Quiz submitted successfully",
		Score:       grade.Score,
		TotalPoints: grade.TotalPoints,
	})
}
