package models

import "time"

// Notification with a nil UserID is a broadcast visible to everyone.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    *string   `json:"user_id,omitempty" gorm:"index;size:36"`
	Title     string    `json:"title" gorm:"not null"`
	Message   string    `json:"message" gorm:"not null"`
	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"date"`
}
