package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MIN_WITHDRAWAL", "")
	t.Setenv("REFERRAL_RULES", "")

	cfg := Load()

	assert.True(t, cfg.Ledger.MinWithdrawal.Equal(decimal.NewFromInt(500)))
	assert.True(t, cfg.Ledger.FirstDepositBonusPercent.Equal(decimal.NewFromInt(5)))
	assert.True(t, cfg.Ledger.RuleEnabled(RuleFirstDeposit))
	assert.True(t, cfg.Ledger.RuleEnabled(RulePlanPurchase))
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MIN_WITHDRAWAL", "250.50")
	t.Setenv("REFERRAL_RULES", " plan_purchase ")
	t.Setenv("SEED_PLANS", "true")

	cfg := Load()

	assert.Equal(t, "250.5", cfg.Ledger.MinWithdrawal.String())
	assert.Equal(t, []string{RulePlanPurchase}, cfg.Ledger.ReferralRules)
	assert.False(t, cfg.Ledger.RuleEnabled(RuleFirstDeposit))
	assert.True(t, cfg.SeedPlans)
}

func TestValidateRejectsUnknownRule(t *testing.T) {
	cfg := Load()
	cfg.Ledger.ReferralRules = []string{"multi_level"}

	_, err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateRejectsShortKey(t *testing.T) {
	cfg := Load()
	cfg.EncryptionKey = "short"

	_, err := Validate(cfg)
	assert.Error(t, err)
}

func TestValidateReturnsWarnings(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")
	t.Setenv("JWT_SECRET", "short-secret")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ADMIN_CODE", "")

	cfg := Load()
	assert.Equal(t, 50, cfg.RateLimit.Burst)

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	assert.Equal(t, `invalid RATE_LIMIT_BURST="lots", using 50`, warnings[0])
	assert.Contains(t, warnings[1], "JWT_SECRET")
	assert.Contains(t, warnings[2], "ADMIN_CODE")
}
