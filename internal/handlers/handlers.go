// Package handlers exposes the REST surface of the store: authentication,
// catalog, orders, reviews, wishlists, semantic search and the shopping
// assistant. Handlers parse and validate requests, call into the service
// layer and render JSON responses.
package handlers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationErrors runs struct validation and renders failures as a
// field→reason map, or nil when the struct is valid.
func validationErrors(validate *validator.Validate, req any) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}
	errorMessages := make(map[string]string)
	for _, e := range verrs {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return errorMessages
}

// notFound reports whether err is a repository not-found error.
func notFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// serviceUnavailable renders the response for endpoints whose backing
// service (LLM, vector index) is not configured.
func serviceUnavailable(c *fiber.Ctx, feature string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"message": fmt.Sprintf("%s is not available: missing API credentials", feature),
	})
}
