package models

import "time"

// Product represents a product in the catalog.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string    `json:"name" gorm:"not null;index" validate:"required,min=2,max=200"`
	Description   string    `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Price         float64   `json:"price" gorm:"not null" validate:"required,gt=0"`
	Category      string    `json:"category" gorm:"index" validate:"required"`
	Brand         string    `json:"brand" gorm:"index"`
	ImageURL      string    `json:"image_url"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	IsActive      bool      `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
