// Package http holds the thin fiber-facing adapter layer: error mapping,
// middleware, and the handful of handlers the core needs to be runnable
// (spec.md §1 excludes route/DTO scaffolding from the core itself, but a
// deployable binary still needs a transport).
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kartohq/iam/internal/domainerr"
)

// responseError is the JSON body shape for every error response.
type responseError struct {
	Code    string `json:"code,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func writeJSON(c *fiber.Ctx, status int, body responseError) error {
	return c.Status(status).JSON(body)
}

// WithError maps a domainerr taxonomy error onto an HTTP response, the
// Go realization of common/net/http/errors.go's WithError switch.
func WithError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case domainerr.InvariantViolation:
		return writeJSON(c, fiber.StatusUnprocessableEntity, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	case domainerr.DuplicateName:
		return writeJSON(c, fiber.StatusConflict, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	case domainerr.Unauthenticated:
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return writeJSON(c, fiber.StatusUnauthorized, responseError{Code: e.Code, Title: e.Title, Message: e.Message, Reason: e.Reason})
	case domainerr.Forbidden:
		return writeJSON(c, fiber.StatusForbidden, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	case domainerr.TenantContextMissing:
		return writeJSON(c, fiber.StatusBadRequest, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	case domainerr.NotFound:
		return writeJSON(c, fiber.StatusNotFound, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	case domainerr.RelationalTransient:
		return writeJSON(c, fiber.StatusServiceUnavailable, responseError{Code: e.Code, Title: e.Title, Message: "temporarily unavailable, please retry"})
	case domainerr.JWKSFetchFailed:
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return writeJSON(c, fiber.StatusUnauthorized, responseError{Code: e.Code, Title: e.Title, Message: "cannot verify token"})
	case domainerr.InternalServer:
		return writeJSON(c, fiber.StatusInternalServerError, responseError{Code: e.Code, Title: e.Title, Message: e.Message})
	default:
		ie := domainerr.ValidateInternalError(err, "")
		return writeJSON(c, fiber.StatusInternalServerError, responseError{Code: ie.Code, Title: ie.Title, Message: ie.Message})
	}
}
