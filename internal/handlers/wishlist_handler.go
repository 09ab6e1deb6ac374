package handlers

import (
	"log"

	"shopai/internal/middleware"
	"shopai/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WishlistHandler handles HTTP requests for user wishlists.
type WishlistHandler struct {
	service *services.WishlistService
}

// NewWishlistHandler creates a new WishlistHandler.
func NewWishlistHandler(service *services.WishlistService) *WishlistHandler {
	return &WishlistHandler{service: service}
}

// RegisterProtectedRoutes registers the wishlist routes with the Fiber app.
func (h *WishlistHandler) RegisterProtectedRoutes(router fiber.Router) {
	wishlistRoutes := router.Group("/wishlist")
	wishlistRoutes.Get("/", h.HandleGetWishlist)
	wishlistRoutes.Post("/:product_id", h.HandleAddToWishlist)
	wishlistRoutes.Delete("/:product_id", h.HandleRemoveFromWishlist)
}

// HandleGetWishlist retrieves the authenticated user's wishlist.
func (h *WishlistHandler) HandleGetWishlist(c *fiber.Ctx) error {
	products, err := h.service.GetWishlist(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting wishlist: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve wishlist",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleAddToWishlist puts a product on the authenticated user's wishlist.
func (h *WishlistHandler) HandleAddToWishlist(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	if err := h.service.AddToWishlist(middleware.UserID(c), productID); err != nil {
		log.Printf("Error adding product %s to wishlist: %v", productID, err)
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not add product to wishlist",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Product added to wishlist"})
}

// HandleRemoveFromWishlist takes a product off the authenticated user's
// wishlist.
func (h *WishlistHandler) HandleRemoveFromWishlist(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	if err := h.service.RemoveFromWishlist(middleware.UserID(c), productID); err != nil {
		log.Printf("Error removing product %s from wishlist: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not remove product from wishlist",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Product removed from wishlist"})
}
