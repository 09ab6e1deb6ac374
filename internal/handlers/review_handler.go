package handlers

import (
	"log"
	"strings"

	"shopai/internal/middleware"
	"shopai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service  *services.ReviewService
	validate *validator.Validate
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterProtectedRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/reviews", h.HandleCreateReview)
}

// CreateReviewRequest represents the request body for a new review.
type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// HandleCreateReview records the authenticated user's review of a product.
func (h *ReviewHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing review request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if errs := validationErrors(h.validate, req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errs,
		})
	}

	review, err := h.service.CreateReview(middleware.UserID(c), req.ProductID, req.Rating, req.Comment)
	if err != nil {
		log.Printf("Error creating review: %v", err)
		switch {
		case notFound(err):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		case strings.Contains(err.Error(), "already reviewed"):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Review creation failed",
				"error":   err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not create review",
				"error":   err.Error(),
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
