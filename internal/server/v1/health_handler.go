package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/server/middleware"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
)

type HealthHandler struct {
	service   gateway.Service
	startTime time.Time
}

func NewHealthHandler(service gateway.Service) *HealthHandler {
	return &HealthHandler{
		service:   service,
		startTime: time.Now(),
	}
}

// Health returns the health status and uptime of the API itself.
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Check probes a provider now. The probe outcome is in the body; the status
// code only reflects whether the provider exists.
//
// GET /v1/providers/:name/health
func (h *HealthHandler) Check(c *gin.Context) {
	status, err := h.service.CheckHealth(c.Request.Context(), c.Param("name"), middleware.APIKeys(c))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to check provider health"))
		return
	}
	c.JSON(http.StatusOK, status)
}

type historyQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// History returns the stored monitor readings of a provider, newest first.
//
// GET /v1/providers/:name/health/history?limit=20
func (h *HealthHandler) History(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	readings, err := h.service.HealthHistory(c.Request.Context(), c.Param("name"), q.Limit)
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to load health history"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   readings,
	})
}

// Latest returns the last reading taken by the health monitor.
//
// GET /v1/providers/:name/health/latest
func (h *HealthHandler) Latest(c *gin.Context) {
	status, err := h.service.LatestHealth(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to load health reading"))
		return
	}
	c.JSON(http.StatusOK, status)
}
