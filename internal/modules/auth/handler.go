package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todovault/internal/middleware"
	"todovault/internal/pkg/response"
	"todovault/internal/ratelimit"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes wires the credential endpoints, each behind its own
// rate-limit budget.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, loginLimit, registerLimit gin.HandlerFunc) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", registerLimit, h.Register)
		authGroup.POST("/login", loginLimit, h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/refresh", h.Refresh)
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/users/me", h.GetMe)
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, token, err := h.service.Register(c.Request.Context(), req, ratelimit.ClientIdentity(c.Request))
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
			return
		}
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":  UserPublic{ID: user.ID, Email: user.Email, Name: user.Name},
		"token": token,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req, ratelimit.ClientIdentity(c.Request))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":  UserPublic{ID: user.ID, Email: user.Email, Name: user.Name},
		"token": token,
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	subjectID := c.GetString(middleware.CtxSubjectID)
	email := c.GetString(middleware.CtxEmail)

	token, err := h.service.Refresh(c.Request.Context(), subjectID, email)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	subjectID := c.GetString(middleware.CtxSubjectID)

	if err := h.service.Logout(c.Request.Context(), subjectID); err != nil {
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) GetMe(c *gin.Context) {
	subjectID := c.GetString(middleware.CtxSubjectID)

	user, err := h.service.CurrentUser(c.Request.Context(), subjectID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user": UserPublic{ID: user.ID, Email: user.Email, Name: user.Name},
	})
}
