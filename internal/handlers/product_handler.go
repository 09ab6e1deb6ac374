package handlers

import (
	"context"
	"log"

	"shopai/internal/models"
	"shopai/internal/search"
	"shopai/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Recommender finds products similar to a given one.
type Recommender interface {
	FindSimilar(ctx context.Context, productID string, topK int) ([]search.Result, error)
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	reviewService  *services.ReviewService
	recommender    Recommender // nil when semantic search is not configured
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, reviewService *services.ReviewService, recommender Recommender) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		reviewService:  reviewService,
		recommender:    recommender,
		validate:       validator.New(),
	}
}

// RegisterRoutes registers the public catalog routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Get("/:id/reviews", h.HandleGetProductReviews)
	productRoutes.Get("/:id/recommendations", h.HandleGetRecommendations)
}

// RegisterProtectedRoutes registers the catalog-management routes that
// require a valid token.
func (h *ProductHandler) RegisterProtectedRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts retrieves active products with pagination and an
// optional category filter.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)
	category := c.Query("category")

	products, err := h.productService.ListProducts(skip, limit, category)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		log.Printf("Error getting product by ID %s: %v", productID, err)
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleGetProductReviews retrieves a product's reviews with their authors.
func (h *ProductHandler) HandleGetProductReviews(c *fiber.Ctx) error {
	productID := c.Params("id")
	reviews, err := h.reviewService.GetProductReviews(productID)
	if err != nil {
		log.Printf("Error getting reviews for product %s: %v", productID, err)
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(reviews)
}

// HandleGetRecommendations returns products similar to the given one.
func (h *ProductHandler) HandleGetRecommendations(c *fiber.Ctx) error {
	if h.recommender == nil {
		return serviceUnavailable(c, "Product recommendations")
	}

	productID := c.Params("id")
	limit := c.QueryInt("limit", 5)
	if limit > 20 {
		limit = 20
	}

	results, err := h.recommender.FindSimilar(c.Context(), productID, limit)
	if err != nil {
		log.Printf("Error getting recommendations for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve recommendations",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"product_id":      productID,
		"recommendations": results,
		"total":           len(results),
	})
}

// HandleCreateProduct creates a new product and indexes it for semantic
// search.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.IsActive = true

	if errs := validationErrors(h.validate, product); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errs,
		})
	}

	if err := h.productService.CreateProduct(c.Context(), &product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product and refreshes its vector.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	existing, err := h.productService.GetProductByID(productID)
	if err != nil {
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	updated := *existing
	if err := c.BodyParser(&updated); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	updated.ID = productID

	if errs := validationErrors(h.validate, updated); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errs,
		})
	}

	if err := h.productService.UpdateProduct(c.Context(), &updated); err != nil {
		log.Printf("Error updating product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(updated)
}

// HandleDeleteProduct deletes a product and removes it from the vector
// index.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	if err := h.productService.DeleteProduct(c.Context(), productID); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Product " + productID + " deleted successfully",
	})
}
