package middleware

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ecamli/bskydigest/internal/logger"
)

var validate = validator.New()

// ParseQuery parses and validates query parameters into s, answering the
// request itself on failure. Returns false when the request was handled.
func ParseQuery(c *fiber.Ctx, s interface{}) bool {
	if err := c.QueryParser(s); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid query parameters",
			"msg":   err.Error(),
		})
		return false
	}

	if err := validate.Struct(s); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		_ = c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Invalid query parameters",
			"fields": fields,
		})
		return false
	}

	return true
}

// ErrorHandler maps unhandled errors to a consistent JSON body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	logger.Get().Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(fiber.Map{
		"error": http.StatusText(code),
	})
}
