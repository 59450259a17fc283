package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/server/middleware"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
)

type ModelHandler struct {
	service gateway.Service
}

func NewModelHandler(service gateway.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

// List discovers the models of a provider. Discovery failures are reported
// in the body, never as an error status.
//
// GET /v1/providers/:name/models
func (h *ModelHandler) List(c *gin.Context) {
	res, err := h.service.Models(c.Request.Context(), c.Param("name"), middleware.APIKeys(c))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to list models"))
		return
	}

	out := api.ModelList{
		Object:  "list",
		Outcome: string(res.Outcome),
		Source:  string(res.Source),
		Data:    res.Models,
	}
	if res.Reason != nil {
		out.Reason = res.Reason.Error()
	}
	c.JSON(http.StatusOK, out)
}

type handleQuery struct {
	Model string `form:"model" binding:"required"`
}

// Handle resolves a runnable model reference and describes it.
//
// GET /v1/providers/:name/handle?model=...
func (h *ModelHandler) Handle(c *gin.Context) {
	var q handleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	handle, err := h.service.ModelHandle(c.Request.Context(), c.Param("name"), q.Model, middleware.APIKeys(c))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to build model handle"))
		return
	}
	c.JSON(http.StatusOK, llm.Describe(handle))
}

// Complete runs a conversation through the resolved model handle.
//
// POST /v1/providers/:name/chat
func (h *ModelHandler) Complete(c *gin.Context) {
	var req api.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	handle, err := h.service.ModelHandle(c.Request.Context(), c.Param("name"), req.Model, middleware.APIKeys(c))
	if err != nil {
		_ = c.Error(problemFor(err, "Failed to build model handle"))
		return
	}

	content, err := handle.Complete(c.Request.Context(), req.Messages)
	if err != nil {
		_ = c.Error(api.NewError(http.StatusBadGateway, "Upstream Error", "The provider did not complete the request.", api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, api.CompletionResponse{
		Provider: handle.Provider(),
		Model:    handle.Model(),
		Content:  content,
	})
}
