package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	KYCNone     = "none"
	KYCPending  = "pending"
	KYCVerified = "verified"
	KYCRejected = "rejected"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"not null"`
	Email        *string   `json:"email,omitempty" gorm:"uniqueIndex"`
	Phone        *string   `json:"phone,omitempty" gorm:"uniqueIndex"`
	Role         string    `json:"role" gorm:"not null;default:user"`
	ReferralCode string    `json:"referral_code" gorm:"uniqueIndex;size:16;not null"`
	ReferredBy   *string   `json:"referred_by,omitempty" gorm:"index;size:16"`
	IsBlocked    bool      `json:"is_blocked" gorm:"default:false"`
	KYCStatus    string    `json:"kyc_status" gorm:"default:none"` // none, pending, verified, rejected
	CreatedAt    time.Time `json:"joined_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=80"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,min=10,max=15,numeric"`
	ReferralCode string `json:"referral_code" validate:"omitempty,alphanum,max=16"`
	AdminCode    string `json:"admin_code,omitempty"`
}

type LoginRequest struct {
	Contact string `json:"contact" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type BlockRequest struct {
	Blocked bool `json:"blocked"`
}
