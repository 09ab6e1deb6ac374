package models

import "time"

// User represents a registered customer of the store.
type User struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email          string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" validate:"required,email"`
	HashedPassword string    `json:"-" gorm:"type:varchar(255);not null"`
	FullName       string    `json:"full_name" gorm:"not null" validate:"required"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`

	// Wishlist is a many-to-many association through the `wishlist` join table.
	Wishlist []Product `json:"-" gorm:"many2many:wishlist"`
}
