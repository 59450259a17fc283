package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
)

type ProviderHandler struct {
	service gateway.Service
}

func NewProviderHandler(service gateway.Service) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// List returns the registered providers in registration order.
//
// GET /v1/providers?enabled=true
func (h *ProviderHandler) List(c *gin.Context) {
	onlyEnabled := false
	if raw := c.Query("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			_ = c.Error(api.BadRequestError("enabled must be a boolean"))
			return
		}
		onlyEnabled = v
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   h.service.Providers(c.Request.Context(), onlyEnabled),
	})
}

// Get returns one provider with its overlay applied.
//
// GET /v1/providers/:name
func (h *ProviderHandler) Get(c *gin.Context) {
	view, err := h.service.Provider(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to load provider"))
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSettings applies a partial settings update.
//
// PATCH /v1/providers/:name/settings
func (h *ProviderHandler) UpdateSettings(c *gin.Context) {
	var patch api.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	view, err := h.service.UpdateSettings(c.Request.Context(), c.Param("name"), patch)
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to update provider settings"))
		return
	}
	c.JSON(http.StatusOK, view)
}
