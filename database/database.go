package database

import (
	"fmt"

	"growledger-go/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string, log logger.Interface) (*gorm.DB, error) {
	if log == nil {
		log = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(databaseURL), &gorm.Config{
		Logger: log,
	})
	if err != nil {
		return nil, err
	}

	// sqlite allows one writer; a single connection keeps gorm transactions
	// from failing with "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	// Auto-migrate models
	err = db.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.KYC{},
		&models.Plan{},
		&models.Contract{},
		&models.GrowthLog{},
		&models.Transaction{},
		&models.Commission{},
		&models.AdminLog{},
		&models.Notification{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// SeedPlans inserts the reference plans when the plan table is empty.
func SeedPlans(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Plan{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	plans := DefaultPlans()
	if err := db.Create(&plans).Error; err != nil {
		return 0, fmt.Errorf("seed plans: %w", err)
	}
	return len(plans), nil
}

func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			Name:          "Tata Power Renewable",
			Ticker:        "TATA.PWR",
			Description:   "Integrated power company expanding solar and wind capacity.",
			MinAmount:     decimal.NewFromInt(10000),
			DurationWeeks: 4,
			FeePercentage: decimal.NewFromInt(5),
			TargetGrowth:  "1.8% weekly",
			Risk:          models.RiskLow,
			Region:        models.RegionIndia,
			IsActive:      true,
		},
		{
			Name:          "Reliance Digital",
			Ticker:        "RELIANCE",
			Description:   "5G rollout and digital ecosystem in the Indian market.",
			MinAmount:     decimal.NewFromInt(50000),
			DurationWeeks: 8,
			FeePercentage: decimal.NewFromInt(8),
			TargetGrowth:  "3.5% weekly",
			Risk:          models.RiskMedium,
			Region:        models.RegionIndia,
			IsActive:      true,
		},
		{
			Name:          "Tesla AI & Robotics",
			Ticker:        "TSLA.US",
			Description:   "International exposure to autonomy and robotics infrastructure.",
			MinAmount:     decimal.NewFromInt(100000),
			DurationWeeks: 12,
			FeePercentage: decimal.NewFromInt(10),
			TargetGrowth:  "5.2% weekly",
			Risk:          models.RiskHigh,
			Region:        models.RegionGlobal,
			IsActive:      true,
		},
		{
			Name:          "Nifty 50 Index",
			Ticker:        "NIFTY50",
			Description:   "Top 50 blue-chip companies listed on the NSE.",
			MinAmount:     decimal.NewFromInt(5000),
			DurationWeeks: 4,
			FeePercentage: decimal.NewFromInt(3),
			TargetGrowth:  "1.2% weekly",
			Risk:          models.RiskLow,
			Region:        models.RegionIndia,
			IsActive:      true,
		},
	}
}
