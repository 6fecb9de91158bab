package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

const (
	RegionIndia  = "India"
	RegionGlobal = "Global"
)

// Plan is an investment product template. Contracts snapshot the fields they
// need, so editing a plan never rewrites history.
type Plan struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	Name          string          `json:"name" gorm:"not null"`
	Ticker        string          `json:"ticker" gorm:"not null"`
	Description   string          `json:"description"`
	MinAmount     decimal.Decimal `json:"amount" gorm:"type:varchar(32);not null"`
	DurationWeeks int             `json:"duration_weeks" gorm:"not null"`
	FeePercentage decimal.Decimal `json:"fee_percentage" gorm:"type:varchar(32);not null"`
	TargetGrowth  string          `json:"target_growth,omitempty"`
	Risk          string          `json:"risk" gorm:"not null"`
	Region        string          `json:"region" gorm:"not null"`
	IsActive      bool            `json:"is_active" gorm:"default:true"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PlanFee is the platform's cut of one purchase at the plan's minimum amount.
func (p *Plan) PlanFee() decimal.Decimal {
	return p.MinAmount.Mul(p.FeePercentage).Div(decimal.NewFromInt(100))
}

type PlanInput struct {
	Name          string          `json:"name" validate:"required,min=2,max=80"`
	Ticker        string          `json:"ticker" validate:"required,min=1,max=16"`
	Description   string          `json:"description" validate:"max=500"`
	MinAmount     decimal.Decimal `json:"amount" validate:"gt=0"`
	DurationWeeks int             `json:"duration_weeks" validate:"required,min=1,max=520"`
	FeePercentage decimal.Decimal `json:"fee_percentage" validate:"gte=0,lte=100"`
	TargetGrowth  string          `json:"target_growth" validate:"max=40"`
	Risk          string          `json:"risk" validate:"required,oneof=Low Medium High"`
	Region        string          `json:"region" validate:"required,oneof=India Global"`
}

// PlanUpdate carries only the fields an admin wants to change. Nil means keep.
type PlanUpdate struct {
	Name          *string          `json:"name" validate:"omitempty,min=2,max=80"`
	Ticker        *string          `json:"ticker" validate:"omitempty,min=1,max=16"`
	Description   *string          `json:"description" validate:"omitempty,max=500"`
	MinAmount     *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	DurationWeeks *int             `json:"duration_weeks" validate:"omitempty,min=1,max=520"`
	FeePercentage *decimal.Decimal `json:"fee_percentage" validate:"omitempty,gte=0,lte=100"`
	TargetGrowth  *string          `json:"target_growth" validate:"omitempty,max=40"`
	Risk          *string          `json:"risk" validate:"omitempty,oneof=Low Medium High"`
	Region        *string          `json:"region" validate:"omitempty,oneof=India Global"`
}

// Apply merges the non-nil fields of u into p.
func (u PlanUpdate) Apply(p *Plan) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Ticker != nil {
		p.Ticker = *u.Ticker
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.MinAmount != nil {
		p.MinAmount = *u.MinAmount
	}
	if u.DurationWeeks != nil {
		p.DurationWeeks = *u.DurationWeeks
	}
	if u.FeePercentage != nil {
		p.FeePercentage = *u.FeePercentage
	}
	if u.TargetGrowth != nil {
		p.TargetGrowth = *u.TargetGrowth
	}
	if u.Risk != nil {
		p.Risk = *u.Risk
	}
	if u.Region != nil {
		p.Region = *u.Region
	}
}
