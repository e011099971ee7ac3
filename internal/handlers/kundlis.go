package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/response"
)

// KundliHandler exposes birth chart generation and retrieval.
type KundliHandler struct {
	kundlis *services.KundliService
}

func NewKundliHandler(kundlis *services.KundliService) *KundliHandler {
	return &KundliHandler{kundlis: kundlis}
}

type generateKundliRequest struct {
	Name      string  `json:"name" validate:"omitempty,max=128"`
	Gender    string  `json:"gender" validate:"omitempty,oneof=male female other"`
	BirthDate string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthTime string  `json:"birth_time" validate:"omitempty,datetime=15:04"`
	Place     string  `json:"place" validate:"omitempty,max=128"`
	Latitude  float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Timezone  float64 `json:"timezone" validate:"omitempty,min=-12,max=14"`
}

// POST /api/kundlis
func (h *KundliHandler) Generate(c *gin.Context) {
	var req generateKundliRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.GenerateKundliInput{
		Name:      req.Name,
		Gender:    req.Gender,
		BirthTime: req.BirthTime,
		Place:     req.Place,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Timezone:  req.Timezone,
	}
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			response.Error(c, errors.NewBadRequest("birth_date must be YYYY-MM-DD"))
			return
		}
		input.BirthDate = &parsed
	}

	kundli, err := h.kundlis.Generate(requestContext(c), currentUserID(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, kundli)
}

// GET /api/kundlis
func (h *KundliHandler) List(c *gin.Context) {
	kundlis, err := h.kundlis.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, kundlis, &response.Meta{Total: len(kundlis)})
}

// GET /api/kundlis/:id
func (h *KundliHandler) Get(c *gin.Context) {
	kundli, err := h.kundlis.Get(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, kundli)
}

// DELETE /api/kundlis/:id
func (h *KundliHandler) Delete(c *gin.Context) {
	if err := h.kundlis.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
