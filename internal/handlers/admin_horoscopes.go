package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/services"
	apperrors "github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/response"
)

// AdminHoroscopeHandler exposes the operational horoscope API: forced
// refreshes, invalidation, sweeps, stats and broadcasts. All routes
// require the admin flag.
type AdminHoroscopeHandler struct {
	admin *services.HoroscopeAdminService
}

func NewAdminHoroscopeHandler(admin *services.HoroscopeAdminService) *AdminHoroscopeHandler {
	return &AdminHoroscopeHandler{admin: admin}
}

// Period empty means all four periods; a sign-scoped refresh still
// needs an explicit period.
type regenerateRequest struct {
	Period string `json:"period" validate:"omitempty"`
	Sign   string `json:"sign" validate:"omitempty"`
}

type invalidateRequest struct {
	Period string `json:"period" validate:"required"`
	Sign   string `json:"sign" validate:"required"`
}

type broadcastRequest struct {
	Title string            `json:"title" validate:"omitempty,max=128"`
	Body  string            `json:"body" validate:"omitempty,max=512"`
	Data  map[string]string `json:"data" validate:"omitempty"`
}

// POST /api/admin/horoscopes/regenerate
func (h *AdminHoroscopeHandler) Regenerate(c *gin.Context) {
	var req regenerateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if req.Sign != "" {
		if req.Period == "" {
			response.Error(c, apperrors.ErrInvalidPeriod)
			return
		}
		result, err := h.admin.RegenerateSign(requestContext(c), req.Sign, req.Period)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, result)
		return
	}

	if req.Period == "" {
		reports, err := h.admin.RegenerateAll(requestContext(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, reports)
		return
	}

	report, err := h.admin.RegeneratePeriod(requestContext(c), req.Period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}

// POST /api/admin/horoscopes/invalidate
func (h *AdminHoroscopeHandler) Invalidate(c *gin.Context) {
	var req invalidateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	affected, err := h.admin.Invalidate(requestContext(c), req.Sign, req.Period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"invalidated": affected})
}

// POST /api/admin/horoscopes/sweep
func (h *AdminHoroscopeHandler) Sweep(c *gin.Context) {
	removed, err := h.admin.Sweep(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": removed})
}

// GET /api/admin/horoscopes/stats
func (h *AdminHoroscopeHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"periods":           stats,
		"scheduler_running": h.admin.SchedulerRunning(),
		"jobs":              h.admin.Jobs(),
	})
}

// POST /api/admin/horoscopes/broadcast
func (h *AdminHoroscopeHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bindAndValidate(c, &req) {
		return
	}

	report, err := h.admin.Broadcast(requestContext(c), services.BroadcastInput{
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, report)
}
