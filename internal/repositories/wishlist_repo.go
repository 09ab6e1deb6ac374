package repositories

import (
	"shopai/internal/models"
)

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	List(userID string) ([]models.Product, error)
	Contains(userID, productID string) (bool, error)
	Add(userID, productID string) error
	Remove(userID, productID string) error
}
