package gateway

import (
	"strings"

	"touroperator-backend/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderCorrelationID carries the correlation id in both directions.
const HeaderCorrelationID = "X-Correlation-ID"

// Correlation assigns or propagates the correlation id on every request and
// echoes it on the response, so operators can trace any outcome through logs.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderCorrelationID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Locals(httperr.LocalCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		return c.Next()
	}
}

// CorrelationID returns the id assigned by Correlation, or "".
func CorrelationID(c *fiber.Ctx) string {
	id, _ := c.Locals(httperr.LocalCorrelationID).(string)
	return id
}
