package services

import (
	"fmt"

	"shopai/internal/models"
	"shopai/internal/repositories"
)

// ReviewService handles business logic related to product reviews.
type ReviewService struct {
	reviewRepo  repositories.ReviewRepository
	productRepo repositories.ProductRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviewRepo repositories.ReviewRepository, productRepo repositories.ProductRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

// CreateReview records a user's review of a product. A user may review a
// given product at most once.
func (s *ReviewService) CreateReview(userID, productID string, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}

	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, fmt.Errorf("product %s not found", productID)
	}

	existing, err := s.reviewRepo.GetByUserAndProduct(userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("you have already reviewed this product")
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// GetProductReviews retrieves a product's reviews with their authors.
func (s *ReviewService) GetProductReviews(productID string) ([]models.Review, error) {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return nil, fmt.Errorf("product %s not found", productID)
	}
	return s.reviewRepo.GetByProduct(productID)
}
