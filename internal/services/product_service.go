package services

import (
	"context"
	"log"

	"shopai/internal/models"
	"shopai/internal/repositories"
)

// ProductIndexer keeps the vector index in sync with catalog changes.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo    repositories.ProductRepository
	indexer ProductIndexer // nil when semantic search is not configured
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, indexer ProductIndexer) *ProductService {
	return &ProductService{
		repo:    repo,
		indexer: indexer,
	}
}

// ListProducts retrieves active products with pagination and an optional
// category filter.
func (s *ProductService) ListProducts(skip, limit int, category string) ([]models.Product, error) {
	return s.repo.List(skip, limit, category)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product and indexes it for semantic search.
// Indexing is best-effort: a vector index failure never fails the request.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.reindex(ctx, product)
	return nil
}

// UpdateProduct updates an existing product and refreshes its vector.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		return err
	}
	s.reindex(ctx, product)
	return nil
}

// DeleteProduct deletes a product and removes it from the vector index.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteProduct(ctx, id); err != nil {
			log.Printf("Warning: failed to remove product %s from vector index: %v", id, err)
		}
	}
	return nil
}

func (s *ProductService) reindex(ctx context.Context, product *models.Product) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexProduct(ctx, product); err != nil {
		log.Printf("Warning: failed to index product %s: %v", product.ID, err)
	}
}
