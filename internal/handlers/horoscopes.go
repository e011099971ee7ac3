package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/horoscope"
	"github.com/astromitra/astromitra/pkg/errors"
	"github.com/astromitra/astromitra/pkg/response"
)

// HoroscopeHandler serves cached horoscope content. Misses regenerate
// inline, so a successful response always carries unexpired content.
type HoroscopeHandler struct {
	engine *horoscope.Engine
}

func NewHoroscopeHandler(engine *horoscope.Engine) *HoroscopeHandler {
	return &HoroscopeHandler{engine: engine}
}

// GET /api/horoscopes/:sign/:period?date=YYYY-MM-DD
func (h *HoroscopeHandler) Get(c *gin.Context) {
	ref := h.engine.Now()
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.engine.Location())
		if err != nil {
			response.Error(c, errors.NewBadRequest("date must be YYYY-MM-DD"))
			return
		}
		ref = parsed
	}

	result, err := h.engine.Get(requestContext(c), c.Param("sign"), c.Param("period"), ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/horoscopes/signs
func (h *HoroscopeHandler) Signs(c *gin.Context) {
	signs := horoscope.Signs()
	payload := make([]gin.H, 0, len(signs))
	for _, sign := range signs {
		payload = append(payload, gin.H{
			"sign":    sign,
			"display": sign.Display(),
		})
	}
	response.Success(c, http.StatusOK, gin.H{
		"signs":   payload,
		"periods": horoscope.Periods(),
	})
}
