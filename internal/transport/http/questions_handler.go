package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/logger"
)

type QuestionHandler struct {
	authoring *app.AuthoringService
	log       *logger.Logger
}

func NewQuestionHandler(authoring *app.AuthoringService, log *logger.Logger) *QuestionHandler {
	return &QuestionHandler{authoring: authoring, log: log}
}

type createQuestionRequest struct {
	QuizID       int64  `json:"quiz_id" binding:"required,gt=0"`
	Text         string `json:"question_text" binding:"required"`
	Type         string `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer essay"`
	Points       *int   `json:"points" binding:"omitempty,gt=0"`
	DisplayOrder int    `json:"display_order"`
}

type updateQuestionRequest struct {
	Text         *string `json:"question_text"`
	Type         *string `json:"question_type" binding:"omitempty,oneof=multiple_choice true_false short_answer essay"`
	Points       *int    `json:"points" binding:"omitempty,gt=0"`
	DisplayOrder *int    `json:"display_order"`
}

type createOptionRequest struct {
	Text      string `json:"option_text" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type updateOptionRequest struct {
	Text      *string `json:"option_text"`
	IsCorrect *bool   `json:"is_correct"`
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req createQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	question, err := h.authoring.CreateQuestion(c.Request.Context(), caller(c), app.QuestionInput{
		QuizID:       req.QuizID,
		Text:         req.Text,
		Type:         domain.QuestionType(req.Type),
		Points:       req.Points,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to add question")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Question added successfully", "question_id": question.ID})
}

func (h *QuestionHandler) ListByQuiz(c *gin.Context) {
	quizID, ok := paramID(c, "quiz_id")
	if !ok {
		return
	}
	questions, err := h.authoring.ListQuestions(c.Request.Context(), quizID)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch questions")
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	question, err := h.authoring.GetQuestion(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch question")
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	patch := app.QuestionPatch{Text: req.Text, Points: req.Points, DisplayOrder: req.DisplayOrder}
	if req.Type != nil {
		qtype := domain.QuestionType(*req.Type)
		patch.Type = &qtype
	}
	if _, err := h.authoring.UpdateQuestion(c.Request.Context(), caller(c), id, patch); err != nil {
		respondError(c, h.log, err, "Update failed")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Question updated successfully"})
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.authoring.DeleteQuestion(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, h.log, err, "Deletion failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QuestionHandler) CreateOption(c *gin.Context) {
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req createOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	option, err := h.authoring.CreateOption(c.Request.Context(), caller(c), questionID, app.OptionInput{
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to add option")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Option added successfully", "option_id": option.ID})
}

func (h *QuestionHandler) ListOptions(c *gin.Context) {
	questionID, ok := paramID(c, "id")
	if !ok {
		return
	}
	options, err := h.authoring.ListOptions(c.Request.Context(), questionID)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch options")
		return
	}
	c.JSON(http.StatusOK, options)
}

func (h *QuestionHandler) GetOption(c *gin.Context) {
	id, ok := paramID(c, "option_id")
	if !ok {
		return
	}
	option, err := h.authoring.GetOption(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch option")
		return
	}
	c.JSON(http.StatusOK, option)
}

func (h *QuestionHandler) UpdateOption(c *gin.Context) {
	id, ok := paramID(c, "option_id")
	if !ok {
		return
	}
	var req updateOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	_, err := h.authoring.UpdateOption(c.Request.Context(), caller(c), id, app.OptionPatch{
		Text:      req.Text,
		IsCorrect: req.IsCorrect,
	})
	if err != nil {
		respondError(c, h.log, err, "Update failed")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Option updated successfully"})
}

func (h *QuestionHandler) DeleteOption(c *gin.Context) {
	id, ok := paramID(c, "option_id")
	if !ok {
		return
	}
	if err := h.authoring.DeleteOption(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, h.log, err, "Deletion failed")
		return
	}
	c.Status(http.StatusNoContent)
}
