package services

import (
	"fmt"
	"log"

	"shopai/internal/models"
	"shopai/internal/repositories"
)

// OrderEventPublisher publishes order lifecycle events to the message bus.
type OrderEventPublisher interface {
	PublishOrderCreated(orderData map[string]interface{}) error
}

// OrderItemRequest is a single requested line of a new order.
type OrderItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	publisher   OrderEventPublisher // nil when the message bus is unavailable
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository,
	publisher OrderEventPublisher,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		publisher:   publisher,
	}
}

// GetUserOrders retrieves a user's orders with their items, most recent
// first.
func (s *OrderService) GetUserOrders(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CreateOrder validates the requested items, snapshots unit prices, computes
// the total server-side and persists the order with status pending. An
// order.created event is published afterwards; publish failures are logged
// and never fail the order.
func (s *OrderService) CreateOrder(userID string, items []OrderItemRequest, shippingAddress string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	var totalAmount float64
	processedItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		if !product.IsActive {
			return nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		if product.StockQuantity < item.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s (requested: %d, available: %d)",
				product.Name, item.Quantity, product.StockQuantity)
		}

		// Unit price is snapshotted at order time; later catalog changes do
		// not affect existing orders.
		processedItems = append(processedItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		totalAmount += product.Price * float64(item.Quantity)
	}

	order := &models.Order{
		UserID:          userID,
		Items:           processedItems,
		TotalAmount:     totalAmount,
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishOrderCreated(order)

	// Re-read so the response carries the items with their products.
	created, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return order, nil
	}
	return created, nil
}

// UpdateOrderStatus updates the status of an existing order.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{
		models.OrderStatusPending:   true,
		models.OrderStatusConfirmed: true,
		models.OrderStatusShipped:   true,
		models.OrderStatusDelivered: true,
		models.OrderStatusCancelled: true,
	}
	if !validStatuses[status] {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

func (s *OrderService) publishOrderCreated(order *models.Order) {
	if s.publisher == nil {
		log.Println("Message bus is not initialized. Skipping order.created event.")
		return
	}

	event := map[string]interface{}{
		"event":    "order.created",
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	}
	// The confirmation-email consumer needs the recipient address.
	if user, err := s.userRepo.GetByID(order.UserID); err == nil {
		event["email"] = user.Email
	}

	if err := s.publisher.PublishOrderCreated(event); err != nil {
		log.Printf("Warning: failed to publish order.created event for order %s: %v", order.ID, err)
		return
	}
	log.Printf("Published order.created event for order %s", order.ID)
}
