// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type requestContextKey string

// contextWithRequestValues creates a bounded context carrying request-scoped
// values for observability.
func contextWithRequestValues(c fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, requestContextKey("request_id"), c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, requestContextKey("user_agent"), c.Get("User-Agent"))
	ctx = context.WithValue(ctx, requestContextKey("ip_address"), c.IP())
	ctx = context.WithValue(ctx, requestContextKey("endpoint"), c.Path())
	return ctx, cancel
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "hexcolor":
		return err.Field() + " must be a hex color"
	case "url":
		return err.Field() + " must be a valid URL"
	case "uuid4":
		return err.Field() + " must be a valid UUID"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// userIDFromLocals reads the authenticated principal id set by the auth
// middleware. An empty result means the route was misconfigured without it.
func userIDFromLocals(c fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
