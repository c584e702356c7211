package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// BindAndValidate parses the request body into dst and runs struct validation.
// Parse failures become a 400; validation failures surface as
// validator.ValidationErrors, which the error handler renders field by field.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct validates a single struct. Batch endpoints call this per
// element, since validator cannot dive into a top-level slice.
func ValidateStruct(v any) error {
	return validate.Struct(v)
}
