package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
)

const (
	TxPending  = "pending"
	TxApproved = "approved"
	TxRejected = "rejected"
)

const (
	MethodUPI          = "upi"
	MethodBankTransfer = "bank_transfer"
	MethodUSDT         = "usdt"
	MethodCBDC         = "cbdc"
)

type Transaction struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	UserID      string          `json:"user_id" gorm:"index;size:36;not null"`
	Type        string          `json:"type" gorm:"not null"` // deposit, withdrawal
	Amount      decimal.Decimal `json:"amount" gorm:"type:varchar(32);not null"`
	Method      string          `json:"method" gorm:"not null"`
	ProofURL    string          `json:"proof_url,omitempty"`
	Reference   string          `json:"reference,omitempty"` // UTR or chain tx hash
	Destination string          `json:"destination,omitempty"`
	Status      string          `json:"status" gorm:"index;default:pending"` // pending, approved, rejected
	DecidedBy   string          `json:"decided_by,omitempty"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	CreatedAt   time.Time       `json:"date"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

type DepositRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Method    string          `json:"method" validate:"required,oneof=upi bank_transfer usdt cbdc"`
	ProofURL  string          `json:"proof_url" validate:"omitempty,url"`
	Reference string          `json:"reference" validate:"omitempty,max=128"`
}

type WithdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Method      string          `json:"method" validate:"required,oneof=upi bank_transfer usdt cbdc"`
	Destination string          `json:"destination" validate:"required,max=128"`
}

type DecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}
