package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	iauth "github.com/astromitra/astromitra/internal/auth"
	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/response"
)

// ProfileHandler exposes the signed-in user's profile and password management.
type ProfileHandler struct {
	users    *services.UserService
	sessions *iauth.SessionService
}

func NewProfileHandler(users *services.UserService, sessions *iauth.SessionService) *ProfileHandler {
	return &ProfileHandler{users: users, sessions: sessions}
}

type updateProfileRequest struct {
	FirstName *string  `json:"first_name" validate:"omitempty,max=64"`
	LastName  *string  `json:"last_name" validate:"omitempty,max=64"`
	Phone     *string  `json:"phone" validate:"omitempty,max=20"`
	Gender    *string  `json:"gender" validate:"omitempty,oneof=male female other"`
	Avatar    *string  `json:"avatar" validate:"omitempty,max=512"`

	BirthDate      *string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthTime      *string  `json:"birth_time" validate:"omitempty,datetime=15:04"`
	BirthPlace     *string  `json:"birth_place" validate:"omitempty,max=128"`
	BirthLatitude  *float64 `json:"birth_latitude" validate:"omitempty,min=-90,max=90"`
	BirthLongitude *float64 `json:"birth_longitude" validate:"omitempty,min=-180,max=180"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload(user))
}

// PUT /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateProfileInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Gender:         req.Gender,
		Avatar:         req.Avatar,
		BirthTime:      req.BirthTime,
		BirthPlace:     req.BirthPlace,
		BirthLatitude:  req.BirthLatitude,
		BirthLongitude: req.BirthLongitude,
	}
	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			response.Error(c, errors.NewBadRequest("birth_date must be YYYY-MM-DD"))
			return
		}
		input.BirthDate = &parsed
	}

	user, err := h.users.UpdateProfile(requestContext(c), currentUserID(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, userPayload(user))
}

// PUT /api/profile/password
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	userID := currentUserID(c)
	if err := h.users.ChangePassword(requestContext(c), userID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	// Force re-authentication everywhere else.
	if err := h.sessions.RevokeUserSessions(requestContext(c), userID); err != nil {
		response.Error(c, errors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}
