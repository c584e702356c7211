package httperr

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Machine-readable error codes. Client SDKs branch on these to pick the right
// retry behavior, so they are part of the API contract.
const (
	CodeRateLimited            = "RATE_LIMIT_EXCEEDED"
	CodeRateLimiterUnavailable = "RATE_LIMITER_UNAVAILABLE"
	CodeKeyRequired            = "IDEMPOTENCY_KEY_REQUIRED"
	CodeIdempotencyConflict    = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyInProgress  = "IDEMPOTENCY_IN_PROGRESS"
	CodeIdempotencyUnavailable = "IDEMPOTENCY_UNAVAILABLE"
	CodeValidation             = "VALIDATION_FAILED"
	CodeInternal               = "INTERNAL_ERROR"
)

// LocalCorrelationID is the fiber.Ctx locals key the correlation middleware
// populates; every error envelope echoes it.
const LocalCorrelationID = "correlationID"

// Write renders the standard error envelope and sets the response status.
func Write(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":          fiber.Map{"code": code, "message": message},
		"correlation_id": correlationID(c),
	})
}

// WriteFields is Write with per-field validation details.
func WriteFields(c *fiber.Ctx, status int, code, message string, fields map[string]string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":          fiber.Map{"code": code, "message": message, "fields": fields},
		"correlation_id": correlationID(c),
	})
}

// FromError renders any handler error as the standard envelope. Used by the
// app-level error handler and by the gateway when it needs the rendered bytes
// for response caching.
func FromError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return Write(c, fe.Code, CodeForStatus(fe.Code), fe.Message)
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		return WriteFields(c, fiber.StatusUnprocessableEntity, CodeValidation, "validation failed", fields)
	}

	log.Printf("internal error [%s]: %v", correlationID(c), err)
	return Write(c, fiber.StatusInternalServerError, CodeInternal, "internal server error")
}

// CodeForStatus maps a bare HTTP status to a generic code, for errors that
// were raised without an explicit one.
func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusConflict:
		return "CONFLICT"
	case fiber.StatusUnprocessableEntity:
		return CodeValidation
	case fiber.StatusTooManyRequests:
		return CodeRateLimited
	default:
		if status >= 500 {
			return CodeInternal
		}
		return "REQUEST_FAILED"
	}
}

func correlationID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalCorrelationID).(string)
	return id
}
