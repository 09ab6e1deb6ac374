package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"shopai/internal/search"

	"github.com/gofiber/fiber/v2"
)

// SearchService is the semantic search surface exposed over HTTP.
type SearchService interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
	IndexAllProducts(ctx context.Context) (int, error)
}

// SearchHandler handles HTTP requests for semantic product search and index
// administration.
type SearchHandler struct {
	service SearchService // nil when semantic search is not configured
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// RegisterRoutes registers the public search route with the Fiber app.
func (h *SearchHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/search", h.HandleSearch)
}

// RegisterProtectedRoutes registers the admin indexing route.
func (h *SearchHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/admin/index-products", h.HandleIndexProducts)
}

// HandleSearch runs a semantic product search. Parameters arrive as query
// string values: query (required), category, min_price, max_price, limit.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	if h.service == nil {
		return serviceUnavailable(c, "Semantic search")
	}

	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'query' is required",
		})
	}

	limit := c.QueryInt("limit", 10)
	if limit > 50 {
		limit = 50
	}

	q := search.Query{
		Text:     query,
		TopK:     limit,
		Category: c.Query("category"),
		MinPrice: queryFloat(c, "min_price"),
		MaxPrice: queryFloat(c, "max_price"),
	}

	results, err := h.service.Search(c.Context(), q)
	if err != nil {
		log.Printf("Error searching products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Search failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"results": results,
		"total":   len(results),
	})
}

// HandleIndexProducts reindexes every active product into the vector index.
func (h *SearchHandler) HandleIndexProducts(c *fiber.Ctx) error {
	if h.service == nil {
		return serviceUnavailable(c, "Product indexing")
	}

	count, err := h.service.IndexAllProducts(c.Context())
	if err != nil {
		log.Printf("Error indexing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Indexing failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Successfully indexed %d products", count),
	})
}

func queryFloat(c *fiber.Ctx, key string) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
