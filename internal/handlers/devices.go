package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/response"
)

// DeviceHandler registers and removes push notification tokens.
type DeviceHandler struct {
	devices *services.DeviceTokenService
}

func NewDeviceHandler(devices *services.DeviceTokenService) *DeviceHandler {
	return &DeviceHandler{devices: devices}
}

type registerDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=512"`
	Platform string `json:"platform" validate:"required,oneof=android ios web"`
}

type unregisterDeviceRequest struct {
	Token string `json:"token" validate:"required,max=512"`
}

// POST /api/devices
func (h *DeviceHandler) Register(c *gin.Context) {
	var req registerDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.devices.Register(requestContext(c), currentUserID(c), req.Token, req.Platform)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, record)
}

// DELETE /api/devices
func (h *DeviceHandler) Unregister(c *gin.Context) {
	var req unregisterDeviceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.devices.Unregister(requestContext(c), currentUserID(c), req.Token); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unregistered": true})
}
