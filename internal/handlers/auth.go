package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/astromitra/astromitra/internal/auth"
	"github.com/astromitra/astromitra/internal/models"
	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/response"
)

// AuthHandler manages authentication flows (register/login/refresh/logout/me).
type AuthHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
}

func NewAuthHandler(users *services.UserService, sessions *iauth.SessionService) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions}
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	FirstName string `json:"first_name" validate:"omitempty,max=64"`
	LastName  string `json:"last_name" validate:"omitempty,max=64"`
	Gender    string `json:"gender" validate:"omitempty,oneof=male female other"`

	BirthDate      string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthTime      string  `json:"birth_time" validate:"omitempty,datetime=15:04"`
	BirthPlace     string  `json:"birth_place" validate:"omitempty,max=128"`
	BirthLatitude  float64 `json:"birth_latitude" validate:"omitempty,min=-90,max=90"`
	BirthLongitude float64 `json:"birth_longitude" validate:"omitempty,min=-180,max=180"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.RegisterInput{
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Gender:         req.Gender,
		BirthTime:      req.BirthTime,
		BirthPlace:     req.BirthPlace,
		BirthLatitude:  req.BirthLatitude,
		BirthLongitude: req.BirthLongitude,
	}
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.Error(c, errors.NewBadRequest("birth_date must be YYYY-MM-DD"))
			return
		}
		input.BirthDate = &parsed
	}

	user, err := h.users.Register(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, _, err := h.sessions.CreateSession(requestContext(c), user, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"tokens": pair,
		"user":   userPayload(user),
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}

	pair, _, err := h.sessions.CreateSession(requestContext(c), user, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": pair,
		"user":   userPayload(user),
	})
}

// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pair, _, err := h.sessions.RefreshSession(requestContext(c), req.RefreshToken)
	if err != nil {
		// Normalise all refresh failures to 401
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": pair})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if sessionID := currentSessionID(c); sessionID != "" {
		if err := h.sessions.RevokeSession(requestContext(c), sessionID); err != nil {
			response.Error(c, errors.ErrInternalServer)
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload(user))
}

func userPayload(user *models.User) gin.H {
	payload := gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"phone":       user.Phone,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"gender":      user.Gender,
		"avatar":      user.Avatar,
		"birth_time":  user.BirthTime,
		"birth_place": user.BirthPlace,
		"is_admin":    user.IsAdmin,
		"is_active":   user.IsActive,
	}
	if user.BirthDate != nil {
		payload["birth_date"] = user.BirthDate.Format("2006-01-02")
	}
	return payload
}
