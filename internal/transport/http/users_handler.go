package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quiz-platform-service/internal/app"
	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/logger"
)

type UserHandler struct {
	auth  *app.AuthService
	users *app.UserService
	log   *logger.Logger
}

func NewUserHandler(auth *app.AuthService, users *app.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{auth: auth, users: users, log: log}
}

type registerRequest struct {
	Username  string `json:"username" binding:"required,max=50"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	Token   string      `json:"token"`
}

type updateUserRequest struct {
	Username  *string `json:"username" binding:"omitempty,max=50"`
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name" binding:"omitempty,max=50"`
	LastName  *string `json:"last_name" binding:"omitempty,max=50"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, err := h.auth.Register(c.Request.Context(), app.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.log, err, "Registration failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user_id": user.ID})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, loginResponse{Message: "Login successful", User: user, Token: token})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), caller(c), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	_, err := h.users.Update(c.Request.Context(), caller(c), id, app.ProfilePatch{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.log, err, "Update failed")
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "User updated successfully"})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err, "Deletion failed")
		return
	}
	c.Status(http.StatusNoContent)
}
