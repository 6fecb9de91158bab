package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ContractActive    = "active"
	ContractCompleted = "completed"
)

// Contract is one purchase of a plan. Plan economics are copied at purchase.
type Contract struct {
	ID               string          `json:"id" gorm:"primaryKey;size:36"`
	UserID           string          `json:"user_id" gorm:"index;size:36;not null"`
	PlanID           string          `json:"plan_id" gorm:"size:36;not null"`
	PlanName         string          `json:"plan_name" gorm:"not null"`
	PlanTicker       string          `json:"plan_ticker" gorm:"not null"`
	FeePercentage    decimal.Decimal `json:"fee_percentage" gorm:"type:varchar(32);not null"`
	DurationWeeks    int             `json:"duration_weeks" gorm:"not null"`
	InvestedAmount   decimal.Decimal `json:"invested_amount" gorm:"type:varchar(32);not null"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	CurrentProfit    decimal.Decimal `json:"current_profit" gorm:"type:varchar(32);not null"`
	Status           string          `json:"status" gorm:"index;default:active"` // active, completed
	LastGrowthUpdate *time.Time      `json:"last_growth_update,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// Matured reports whether the contract is past its end date at now.
func (c *Contract) Matured(now time.Time) bool {
	return !c.EndDate.After(now)
}

// Payout is what the wallet receives when the contract completes.
func (c *Contract) Payout() decimal.Decimal {
	return c.InvestedAmount.Add(c.CurrentProfit)
}

type GrowthLog struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	ContractID  string          `json:"trade_id" gorm:"index;size:36;not null"`
	UserID      string          `json:"user_id" gorm:"size:36;not null"`
	AdminID     string          `json:"admin_id" gorm:"size:36"`
	Percentage  decimal.Decimal `json:"percentage" gorm:"type:varchar(32);not null"`
	ProfitAdded decimal.Decimal `json:"profit_added" gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time       `json:"date"`
}

type BuyPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type YieldRequest struct {
	Percentage decimal.Decimal `json:"percentage" validate:"gte=-100,lte=1000"`
}
