package services

import (
	"fmt"

	"shopai/internal/models"
	"shopai/internal/repositories"
)

// WishlistService handles business logic for user wishlists.
type WishlistService struct {
	wishlistRepo repositories.WishlistRepository
	productRepo  repositories.ProductRepository
}

// NewWishlistService creates a new WishlistService.
func NewWishlistService(wishlistRepo repositories.WishlistRepository, productRepo repositories.ProductRepository) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

// GetWishlist retrieves the products on a user's wishlist.
func (s *WishlistService) GetWishlist(userID string) ([]models.Product, error) {
	return s.wishlistRepo.List(userID)
}

// AddToWishlist puts a product on a user's wishlist. Adding a product that is
// already there is a no-op.
func (s *WishlistService) AddToWishlist(userID, productID string) error {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return fmt.Errorf("product %s not found", productID)
	}

	exists, err := s.wishlistRepo.Contains(userID, productID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.wishlistRepo.Add(userID, productID)
}

// RemoveFromWishlist takes a product off a user's wishlist. Removing a
// product that is not there is a no-op.
func (s *WishlistService) RemoveFromWishlist(userID, productID string) error {
	exists, err := s.wishlistRepo.Contains(userID, productID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return s.wishlistRepo.Remove(userID, productID)
}
