package repositories

import (
	"shopai/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(skip, limit int, category string) ([]models.Product, error)
	ListActive() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetByIDs(ids []string) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
