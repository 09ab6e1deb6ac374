package repositories

import (
	"fmt"
	"shopai/internal/models"

	"gorm.io/gorm"
)

// GORMWishlistRepository is a GORM implementation of WishlistRepository built
// on the many-to-many association between users and products.
type GORMWishlistRepository struct {
	db *gorm.DB
}

// NewGORMWishlistRepository creates a new instance of GORMWishlistRepository.
func NewGORMWishlistRepository(db *gorm.DB) *GORMWishlistRepository {
	return &GORMWishlistRepository{
		db: db,
	}
}

// List retrieves the products on a user's wishlist.
func (r *GORMWishlistRepository) List(userID string) ([]models.Product, error) {
	var products []models.Product
	user := models.User{ID: userID}
	if err := r.db.Model(&user).Association("Wishlist").Find(&products); err != nil {
		return nil, fmt.Errorf("failed to list wishlist for user %s: %w", userID, err)
	}
	return products, nil
}

// Contains reports whether a product is on a user's wishlist.
func (r *GORMWishlistRepository) Contains(userID, productID string) (bool, error) {
	var count int64
	err := r.db.Table("wishlist").
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist for user %s: %w", userID, err)
	}
	return count > 0, nil
}

// Add puts a product on a user's wishlist.
func (r *GORMWishlistRepository) Add(userID, productID string) error {
	user := models.User{ID: userID}
	product := models.Product{ID: productID}
	if err := r.db.Model(&user).Association("Wishlist").Append(&product); err != nil {
		return fmt.Errorf("failed to add product %s to wishlist: %w", productID, err)
	}
	return nil
}

// Remove takes a product off a user's wishlist.
func (r *GORMWishlistRepository) Remove(userID, productID string) error {
	user := models.User{ID: userID}
	product := models.Product{ID: productID}
	if err := r.db.Model(&user).Association("Wishlist").Delete(&product); err != nil {
		return fmt.Errorf("failed to remove product %s from wishlist: %w", productID, err)
	}
	return nil
}
