package repositories

import (
	"shopai/internal/models"
)

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(review *models.Review) error
	GetByProduct(productID string) ([]models.Review, error)
	GetByUserAndProduct(userID, productID string) (*models.Review, error)
}
