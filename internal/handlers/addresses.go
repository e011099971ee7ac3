package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/astromitra/astromitra/internal/services"
	"github.com/astromitra/astromitra/pkg/response"
)

// AddressHandler exposes the user's address book.
type AddressHandler struct {
	addresses *services.AddressService
}

func NewAddressHandler(addresses *services.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

type addressRequest struct {
	Label      string `json:"label" validate:"omitempty,oneof=home work other"`
	Name       string `json:"name" validate:"required,max=128"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Line1      string `json:"line1" validate:"required,max=256"`
	Line2      string `json:"line2" validate:"omitempty,max=256"`
	City       string `json:"city" validate:"required,max=64"`
	State      string `json:"state" validate:"required,max=64"`
	PostalCode string `json:"postal_code" validate:"required,max=12"`
	Country    string `json:"country" validate:"omitempty,max=64"`
	IsDefault  bool   `json:"is_default"`
}

func (r addressRequest) toInput() services.AddressInput {
	return services.AddressInput{
		Label:      r.Label,
		Name:       r.Name,
		Phone:      r.Phone,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		IsDefault:  r.IsDefault,
	}
}

// GET /api/addresses
func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.addresses.List(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, addresses)
}

// POST /api/addresses
func (h *AddressHandler) Create(c *gin.Context) {
	var req addressRequest
	if !bindAndValidate(c, &req) {
		return
	}

	address, err := h.addresses.Create(requestContext(c), currentUserID(c), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, address)
}

// PUT /api/addresses/:id
func (h *AddressHandler) Update(c *gin.Context) {
	var req addressRequest
	if !bindAndValidate(c, &req) {
		return
	}

	address, err := h.addresses.Update(requestContext(c), currentUserID(c), c.Param("id"), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, address)
}

// PUT /api/addresses/:id/default
func (h *AddressHandler) SetDefault(c *gin.Context) {
	if err := h.addresses.SetDefault(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"default": true})
}

// DELETE /api/addresses/:id
func (h *AddressHandler) Delete(c *gin.Context) {
	if err := h.addresses.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
