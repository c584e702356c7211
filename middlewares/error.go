package middlewares

import (
	"touroperator-backend/httperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses. Every envelope carries a
// machine-readable code and the request's correlation id.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return httperr.FromError(c, err)
}
