package v1

import (
	"errors"

	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/health"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
)

// problemFor maps service errors onto RFC 9457 problems.
func problemFor(err error, detail string) *api.Problem {
	var problem *api.Problem
	switch {
	case errors.As(err, &problem):
		return problem
	case errors.Is(err, gateway.ErrProviderNotFound):
		return api.NotFoundError(err.Error())
	case errors.Is(err, gateway.ErrDuplicateProvider):
		return api.ConflictError(err.Error())
	case errors.Is(err, health.ErrNoReading):
		return api.NotFoundError(err.Error())
	case errors.Is(err, llm.ErrModelRequired):
		return api.BadRequestError(err.Error())
	default:
		return api.InternalError(detail, err)
	}
}
