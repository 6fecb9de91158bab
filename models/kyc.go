package models

import (
	"time"
)

// KYC holds the latest identity submission of a user. Document references
// and PAN are stored encrypted.
type KYC struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"uniqueIndex;size:36;not null"`
	DocumentRef     string     `json:"-" gorm:"not null"`
	PAN             string     `json:"-"`
	Status          string     `json:"status" gorm:"default:pending"` // pending, verified, rejected
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"submitted_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type KYCRequest struct {
	DocumentURL string `json:"document_url" validate:"required,url"`
	PAN         string `json:"pan" validate:"omitempty,len=10"`
}

type KYCVerificationRequest struct {
	Status          string `json:"status" validate:"required,oneof=verified rejected"`
	RejectionReason string `json:"rejection_reason" validate:"max=200"`
}
