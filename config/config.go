package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseURL   string
	JWTSecret     string
	EncryptionKey string
	AdminCode     string
	Port          string
	Environment   string
	LogLevel      string
	LogFormat     string
	SeedPlans     bool
	SweepSchedule string
	RateLimit     RateLimitConfig
	Ledger        LedgerConfig

	// Warnings collects values Load fell back on; Validate returns them.
	Warnings []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LedgerConfig holds the money rules the engines enforce.
type LedgerConfig struct {
	MinWithdrawal            decimal.Decimal
	FirstDepositBonusPercent decimal.Decimal
	ReferralRules            []string
}

const (
	RuleFirstDeposit = "first_deposit"
	RulePlanPurchase = "plan_purchase"
)

type loader struct {
	warnings []string
}

func (l *loader) warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func Load() *Config {
	l := &loader{}
	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", "growledger.db"),
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "GrowLedgerDevEncryptionKey"),
		AdminCode:     getEnv("ADMIN_CODE", "GROWLEDGER_ADMIN_2025"),
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		SeedPlans:     l.getBool("SEED_PLANS", false),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "@every 1m"),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: l.getFloat("RATE_LIMIT_RPS", 10),
			Burst:             l.getInt("RATE_LIMIT_BURST", 50),
		},
		Ledger: LedgerConfig{
			MinWithdrawal:            l.getDecimal("MIN_WITHDRAWAL", decimal.NewFromInt(500)),
			FirstDepositBonusPercent: l.getDecimal("FIRST_DEPOSIT_BONUS_PERCENT", decimal.NewFromInt(5)),
			ReferralRules:            getList("REFERRAL_RULES", []string{RuleFirstDeposit, RulePlanPurchase}),
		},
	}
	cfg.Warnings = l.warnings
	return cfg
}

// DefaultLedger returns the reference money rules.
func DefaultLedger() LedgerConfig {
	return LedgerConfig{
		MinWithdrawal:            decimal.NewFromInt(500),
		FirstDepositBonusPercent: decimal.NewFromInt(5),
		ReferralRules:            []string{RuleFirstDeposit, RulePlanPurchase},
	}
}

func (c LedgerConfig) RuleEnabled(rule string) bool {
	for _, r := range c.ReferralRules {
		if r == rule {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (l *loader) getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		l.warnf("invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func (l *loader) getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		l.warnf("invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func (l *loader) getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		l.warnf("invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func (l *loader) getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		l.warnf("invalid %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects unusable settings and returns the non-fatal warnings,
// including those recorded by Load.
func Validate(cfg *Config) ([]string, error) {
	if len(cfg.EncryptionKey) < 16 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be at least 16 characters, got %d", len(cfg.EncryptionKey))
	}
	if cfg.Ledger.MinWithdrawal.IsNegative() {
		return nil, fmt.Errorf("MIN_WITHDRAWAL must not be negative")
	}
	if p := cfg.Ledger.FirstDepositBonusPercent; p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("FIRST_DEPOSIT_BONUS_PERCENT must be between 0 and 100")
	}
	for _, r := range cfg.Ledger.ReferralRules {
		if r != RuleFirstDeposit && r != RulePlanPurchase {
			return nil, fmt.Errorf("unknown referral rule %q", r)
		}
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.Burst <= 0 {
		return nil, fmt.Errorf("rate limit values must be positive")
	}
	warnings := append([]string(nil), cfg.Warnings...)
	if len(cfg.JWTSecret) < 32 {
		warnings = append(warnings, "JWT_SECRET should be at least 32 characters for security")
	}
	if cfg.Environment == "production" && cfg.AdminCode == "GROWLEDGER_ADMIN_2025" {
		warnings = append(warnings, "change ADMIN_CODE in production environment")
	}
	return warnings, nil
}
