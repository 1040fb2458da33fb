package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/logger"
)

type QuizHandler struct {
	authoring *app.AuthoringService
	log       *logger.Logger
}

func NewQuizHandler(authoring *app.AuthoringService, log *logger.Logger) *QuizHandler {
	return &QuizHandler{authoring: authoring, log: log}
}

type createQuizRequest struct {
	Title            string `json:"title" binding:"max=255"`
	Description      string `json:"description"`
	CreatedBy        int64  `json:"created_by" binding:"omitempty,gt=0"`
	TimeLimitMinutes *int   `json:"time_limit_minutes"`
}

type updateQuizRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	// 0 removes the time limit.
	TimeLimitMinutes *int  `json:"time_limit_minutes"`
	IsPublished      *bool `json:"is_published"`
}

func (h *QuizHandler) Create(c *gin.Context) {
	var req createQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	quiz, err := h.authoring.CreateQuiz(c.Request.Context(), caller(c), app.QuizInput{
		Title:            req.Title,
		Description:      req.Description,
		CreatedBy:        req.CreatedBy,
		TimeLimitMinutes: req.TimeLimitMinutes,
	})
	if err != nil {
		respondError(c, h.log, err, "Quiz creation failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Quiz created successfully", "quiz_id": quiz.ID})
}

// List accepts ?is_published=true|false; without it every quiz is returned.
func (h *QuizHandler) List(c *gin.Context) {
	var published *bool
	if raw := c.Query("is_published"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "is_published must be true or false"})
			return
		}
		published = &v
	}
	quizzes, err := h.authoring.ListQuizzes(c.Request.Context(), published)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch quizzes")
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// Unpublished lists draft quizzes; same as ?is_published=false.
func (h *QuizHandler) Unpublished(c *gin.Context) {
	published := false
	quizzes, err := h.authoring.ListQuizzes(c.Request.Context(), &published)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch quizzes")
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

func (h *QuizHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.authoring.GetQuiz(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch quiz")
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// Paper serves the quiz with ordered questions and options, answers stripped.
func (h *QuizHandler) Paper(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	paper, err := h.authoring.GetPaper(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch quiz")
		return
	}
	c.JSON(http.StatusOK, paper)
}

func (h *QuizHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	_, err := h.authoring.UpdateQuiz(c.Request.Context(), caller(c), id, app.QuizPatch{
		Title:            req.Title,
		Description:      req.Description,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsPublished:      req.IsPublished,
	})
	if err != nil {
		respondError(c, h.log, err, "Update failed")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Quiz updated successfully"})
}

func (h *QuizHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.authoring.DeleteQuiz(c.Request.Context(), caller(c), id); err != nil {
		respondError(c, h.log, err, "Deletion failed")
		return
	}
	c.Status(http.StatusNoContent)
}
