package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TriggerFirstDeposit = "first_deposit"
	TriggerPlanPurchase = "plan_purchase"
)

// Commission records one referral bonus payment. A source (deposit or
// contract) can pay at most one commission per trigger.
type Commission struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ReferrerID string          `json:"referrer_id" gorm:"index;size:36;not null"`
	RefereeID  string          `json:"referee_id" gorm:"size:36;not null"`
	Trigger    string          `json:"trigger" gorm:"uniqueIndex:idx_commission_source;not null"`
	SourceID   string          `json:"source_id" gorm:"uniqueIndex:idx_commission_source;size:36;not null"`
	Tier       string          `json:"tier,omitempty"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:varchar(32);not null"`
	CreatedAt  time.Time       `json:"date"`
}
