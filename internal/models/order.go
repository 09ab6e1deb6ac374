package models

import "time"

// Order statuses, in the order they normally progress.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderItem represents a single line of an order. Price is a snapshot of the
// product price at the time the order was placed.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string  `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID string  `json:"product_id" gorm:"type:varchar(36);not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	Price     float64 `json:"price" gorm:"not null"`
	Product   Product `json:"product" gorm:"foreignKey:ProductID"`
}

// Order represents a customer order.
type Order struct {
	ID              string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string      `json:"user_id" gorm:"type:varchar(36);index;not null"`
	TotalAmount     float64     `json:"total_amount" gorm:"not null"`
	Status          string      `json:"status" gorm:"default:'pending'"`
	ShippingAddress string      `json:"shipping_address" gorm:"type:text;not null"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `json:"order_items" gorm:"foreignKey:OrderID"`
}
