package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet amounts are stored as text so sqlite keeps the exact decimal value.
type Wallet struct {
	UserID                string          `json:"user_id" gorm:"primaryKey;size:36"`
	Balance               decimal.Decimal `json:"balance_inr" gorm:"type:varchar(32);not null"`
	TotalProfit           decimal.Decimal `json:"total_profit" gorm:"type:varchar(32);not null"`
	TotalPartnershipBonus decimal.Decimal `json:"total_partnership_bonus" gorm:"type:varchar(32);not null"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

const (
	AdjustCredit = "credit"
	AdjustDebit  = "debit"
)

type AdjustWalletRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Direction string          `json:"direction" validate:"required,oneof=credit debit"`
	Reason    string          `json:"reason" validate:"required,min=3,max=200"`
}
