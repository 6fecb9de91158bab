package ledger

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"growledger-go/config"
	"growledger-go/database"
	"growledger-go/events"
	"growledger-go/logging"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	store *store.GormStore
	l     *Ledger
	clock *fakeClock
	admin *models.User
}

func newTestEnv(t *testing.T, cfg *config.LedgerConfig) *testEnv {
	t.Helper()
	db, err := database.Initialize(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), nil)
	require.NoError(t, err)
	s := store.NewGormStore(db)

	log := logging.NewWithOutput("error", "text", io.Discard)
	bus := events.NewBus(log)
	bus.Subscribe(events.NewNotifier(s))
	cipher, err := utils.NewFieldCipher("ledger-test-encryption-key")
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)}
	env := &testEnv{
		ctx:   context.Background(),
		db:    db,
		store: s,
		clock: clock,
		l: New(s, Options{
			Config: cfg,
			Logger: log,
			Bus:    bus,
			Clock:  clock.Now,
			Cipher: cipher,
		}),
	}
	env.admin, err = env.l.Accounts.Register(env.ctx, Registration{Name: "Ops", Email: "ops@growledger.in", Admin: true})
	require.NoError(t, err)
	return env
}

func (e *testEnv) register(t *testing.T, name, email, code string) *models.User {
	t.Helper()
	u, err := e.l.Accounts.Register(e.ctx, Registration{Name: name, Email: email, ReferralCode: code})
	require.NoError(t, err)
	return u
}

// fund credits a wallet without touching any referral rule.
func (e *testEnv) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.l.Admin.AdjustWallet(e.ctx, e.admin.ID, userID, decimal.NewFromInt(amount), models.AdjustCredit, "opening balance")
	require.NoError(t, err)
}

func (e *testEnv) wallet(t *testing.T, userID string) *models.Wallet {
	t.Helper()
	w, err := e.l.Accounts.GetWallet(e.ctx, userID)
	require.NoError(t, err)
	return w
}

func (e *testEnv) plan(t *testing.T, amount int64, weeks int, fee string) *models.Plan {
	t.Helper()
	p, err := e.l.Plans.CreatePlan(e.ctx, e.admin.ID, models.PlanInput{
		Name:          "Nifty 50 Index",
		Ticker:        "nifty50",
		MinAmount:     decimal.NewFromInt(amount),
		DurationWeeks: weeks,
		FeePercentage: decimal.RequireFromString(fee),
		Risk:          models.RiskLow,
		Region:        models.RegionIndia,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) deposit(t *testing.T, userID string, amount int64) *models.Transaction {
	t.Helper()
	txn, err := e.l.Transactions.RequestDeposit(e.ctx, DepositInput{
		UserID:    userID,
		Amount:    decimal.NewFromInt(amount),
		Method:    models.MethodUPI,
		Reference: "UTR" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	return txn
}

func assertINR(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestReferredFirstDepositPaysFlatBonus(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.register(t, "Arjun", "arjun@example.com", "")
	b := env.register(t, "Priya", "priya@example.com", a.ReferralCode)
	require.NotNil(t, b.ReferredBy)
	assert.Equal(t, a.ReferralCode, *b.ReferredBy)

	dep := env.deposit(t, b.ID, 1000)
	assert.Equal(t, models.TxPending, dep.Status)
	assertINR(t, "0", env.wallet(t, b.ID).Balance)

	decided, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
	require.NoError(t, err)
	assert.Equal(t, models.TxApproved, decided.Status)

	assertINR(t, "1000", env.wallet(t, b.ID).Balance)
	wa := env.wallet(t, a.ID)
	assertINR(t, "50", wa.Balance)
	assertINR(t, "50", wa.TotalPartnershipBonus)

	second := env.deposit(t, b.ID, 2000)
	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, second.ID, models.TxApproved)
	require.NoError(t, err)

	assertINR(t, "3000", env.wallet(t, b.ID).Balance)
	wa = env.wallet(t, a.ID)
	assertINR(t, "50", wa.Balance)
	assertINR(t, "50", wa.TotalPartnershipBonus)

	commissions, err := env.l.Referrals.ListCommissions(env.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, commissions, 1)
	assert.Equal(t, models.TriggerFirstDeposit, commissions[0].Trigger)
	assert.Equal(t, dep.ID, commissions[0].SourceID)

	notes, err := env.l.Accounts.ListNotifications(env.ctx, b.ID, store.Page{})
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Capital Update", notes[0].Title)
	assert.Equal(t, "Your deposit request of ₹2000 was approved.", notes[0].Message)

	notes, err = env.l.Accounts.ListNotifications(env.ctx, a.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Referral Bonus", notes[0].Title)
}

func TestFirstDepositRuleCanBeDisabled(t *testing.T) {
	env := newTestEnv(t, &config.LedgerConfig{
		MinWithdrawal:            decimal.NewFromInt(500),
		FirstDepositBonusPercent: decimal.NewFromInt(5),
		ReferralRules:            []string{config.RulePlanPurchase},
	})
	a := env.register(t, "Arjun", "arjun@example.com", "")
	b := env.register(t, "Priya", "priya@example.com", a.ReferralCode)

	dep := env.deposit(t, b.ID, 1000)
	_, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
	require.NoError(t, err)
	assertINR(t, "0", env.wallet(t, a.ID).Balance)
}

func TestDepositRejectionLeavesBalance(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Kiran", "kiran@example.com", "")
	env.fund(t, u.ID, 300)

	dep := env.deposit(t, u.ID, 1000)
	_, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxRejected)
	require.NoError(t, err)
	assertINR(t, "300", env.wallet(t, u.ID).Balance)
}

func TestDecideOnlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Kiran", "kiran@example.com", "")
	dep := env.deposit(t, u.ID, 1000)

	_, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
	require.NoError(t, err)

	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))

	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxRejected)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assertINR(t, "1000", env.wallet(t, u.ID).Balance)

	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, "missing", models.TxApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	other := env.deposit(t, u.ID, 100)
	_, err = env.l.Transactions.Decide(env.ctx, u.ID, other.ID, models.TxApproved)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestWithdrawalLocksFundsUntilDecision(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Meera", "meera@example.com", "")
	env.fund(t, u.ID, 1000)

	req := func(amount int64) (*models.Transaction, error) {
		return env.l.Transactions.RequestWithdrawal(env.ctx, WithdrawalInput{
			UserID:      u.ID,
			Amount:      decimal.NewFromInt(amount),
			Method:      models.MethodBankTransfer,
			Destination: "HDFC0001234 / 50100012345678",
		})
	}

	_, err := req(1500)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, KindInsufficientFunds, KindOf(err))
	assertINR(t, "1000", env.wallet(t, u.ID).Balance)

	_, err = req(499)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	w1, err := req(600)
	require.NoError(t, err)
	assert.Equal(t, models.TxPending, w1.Status)
	assertINR(t, "400", env.wallet(t, u.ID).Balance)

	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, w1.ID, models.TxRejected)
	require.NoError(t, err)
	assertINR(t, "1000", env.wallet(t, u.ID).Balance)

	w2, err := req(600)
	require.NoError(t, err)
	_, err = env.l.Transactions.Decide(env.ctx, env.admin.ID, w2.ID, models.TxApproved)
	require.NoError(t, err)
	assertINR(t, "400", env.wallet(t, u.ID).Balance)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Meera", "meera@example.com", "")

	cases := []struct {
		name string
		in   DepositInput
		want error
	}{
		{"zero", DepositInput{UserID: u.ID, Amount: decimal.Zero, Method: models.MethodUPI, Reference: "UTR1"}, ErrInvalidAmount},
		{"negative", DepositInput{UserID: u.ID, Amount: decimal.NewFromInt(-5), Method: models.MethodUPI, Reference: "UTR1"}, ErrInvalidAmount},
		{"sub paisa", DepositInput{UserID: u.ID, Amount: decimal.RequireFromString("10.555"), Method: models.MethodUPI, Reference: "UTR1"}, ErrInvalidAmount},
		{"no proof", DepositInput{UserID: u.ID, Amount: decimal.NewFromInt(10), Method: models.MethodUPI}, ErrInvalidInput},
		{"bad method", DepositInput{UserID: u.ID, Amount: decimal.NewFromInt(10), Method: "cash", Reference: "UTR1"}, ErrInvalidInput},
		{"unknown user", DepositInput{UserID: "ghost", Amount: decimal.NewFromInt(10), Method: models.MethodUPI, Reference: "UTR1"}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.l.Transactions.RequestDeposit(env.ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBlockedAccountCannotMoveMoney(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Ravi", "ravi@example.com", "")
	env.fund(t, u.ID, 5000)
	p := env.plan(t, 1000, 4, "3")

	_, err := env.l.Accounts.SetBlocked(env.ctx, env.admin.ID, u.ID, true)
	require.NoError(t, err)

	_, err = env.l.Transactions.RequestDeposit(env.ctx, DepositInput{UserID: u.ID, Amount: decimal.NewFromInt(100), Method: models.MethodUPI, Reference: "UTR1"})
	assert.ErrorIs(t, err, ErrAccountBlocked)
	_, err = env.l.Transactions.RequestWithdrawal(env.ctx, WithdrawalInput{UserID: u.ID, Amount: decimal.NewFromInt(600), Method: models.MethodUPI, Destination: "ravi@upi"})
	assert.ErrorIs(t, err, ErrAccountBlocked)
	_, err = env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrAccountBlocked)
	_, err = env.l.Accounts.Login(env.ctx, "ravi@example.com")
	assert.ErrorIs(t, err, ErrAccountBlocked)
	assertINR(t, "5000", env.wallet(t, u.ID).Balance)

	_, err = env.l.Accounts.SetBlocked(env.ctx, env.admin.ID, u.ID, false)
	require.NoError(t, err)
	_, err = env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)

	logs, err := env.l.Admin.ListAdminLogs(env.ctx, store.Page{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(logs), 2)
	assert.Equal(t, "Unblock User", logs[0].Action)
	assert.Equal(t, "Block User", logs[1].Action)
}

func TestBuyPlanChecks(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Sana", "sana@example.com", "")
	env.fund(t, u.ID, 4000)
	p := env.plan(t, 5000, 4, "3")

	_, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assertINR(t, "4000", env.wallet(t, u.ID).Balance)

	env.fund(t, u.ID, 1000)
	toggled, err := env.l.Plans.TogglePlan(env.ctx, env.admin.ID, p.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	_, err = env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	assert.ErrorIs(t, err, ErrPlanClosed)

	_, err = env.l.Plans.TogglePlan(env.ctx, env.admin.ID, p.ID)
	require.NoError(t, err)
	c, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)
	assertINR(t, "0", env.wallet(t, u.ID).Balance)
	assertINR(t, "5000", c.InvestedAmount)
	assert.Equal(t, "NIFTY50", c.PlanTicker)
	assert.Equal(t, env.clock.Now().Add(4*week), c.EndDate)

	newName := "Nifty Next 50"
	_, err = env.l.Plans.UpdatePlan(env.ctx, env.admin.ID, p.ID, models.PlanUpdate{Name: &newName})
	require.NoError(t, err)
	got, err := env.l.Contracts.GetContract(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nifty 50 Index", got.PlanName)
}

func TestTieredPurchaseCommission(t *testing.T) {
	cases := []struct {
		referrals int
		tier      string
		want      string
	}{
		{4, "Associate", "60"},
		{5, "Executive", "80"},
		{10, "Director", "100"},
	}
	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			env := newTestEnv(t, &config.LedgerConfig{
				MinWithdrawal:            decimal.NewFromInt(500),
				FirstDepositBonusPercent: decimal.NewFromInt(5),
				ReferralRules:            []string{config.RulePlanPurchase},
			})
			referrer := env.register(t, "Vikram", "vikram@example.com", "")
			var buyer *models.User
			for i := 0; i < tc.referrals; i++ {
				u := env.register(t, fmt.Sprintf("Member %d", i), fmt.Sprintf("member%d@example.com", i), referrer.ReferralCode)
				if buyer == nil {
					buyer = u
				}
			}
			// fee = 10000 * 2% = 200
			p := env.plan(t, 10000, 12, "2")
			env.fund(t, buyer.ID, 10000)

			c, err := env.l.Contracts.BuyPlan(env.ctx, buyer.ID, p.ID)
			require.NoError(t, err)
			assertINR(t, "10000", c.InvestedAmount)
			assertINR(t, "0", env.wallet(t, buyer.ID).Balance)

			w := env.wallet(t, referrer.ID)
			assertINR(t, tc.want, w.Balance)
			assertINR(t, tc.want, w.TotalPartnershipBonus)

			commissions, err := env.l.Referrals.ListCommissions(env.ctx, referrer.ID)
			require.NoError(t, err)
			require.Len(t, commissions, 1)
			assert.Equal(t, tc.tier, commissions[0].Tier)
			assert.Equal(t, c.ID, commissions[0].SourceID)

			tier, n, err := env.l.Referrals.TierOf(env.ctx, referrer.ReferralCode)
			require.NoError(t, err)
			assert.EqualValues(t, tc.referrals, n)
			assert.Equal(t, tc.tier, tier.Name)
		})
	}
}

func TestUnreferredPurchasePaysNoCommission(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Sana", "sana@example.com", "")
	env.fund(t, u.ID, 5000)
	p := env.plan(t, 5000, 4, "3")

	_, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)

	logs, err := env.l.Admin.ListAdminLogs(env.ctx, store.Page{})
	require.NoError(t, err)
	for _, l := range logs {
		assert.NotEqual(t, "Referral Bonus", l.Action)
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, "Associate", TierFor(0).Name)
	assert.Equal(t, "Associate", TierFor(4).Name)
	assert.Equal(t, "Executive", TierFor(5).Name)
	assert.Equal(t, "Executive", TierFor(9).Name)
	assert.Equal(t, "Director", TierFor(10).Name)
	assert.Equal(t, "Director", TierFor(250).Name)
}

func TestBonusRounding(t *testing.T) {
	assertINR(t, "50", FirstDepositBonus(decimal.NewFromInt(1000), decimal.NewFromInt(5)))
	assertINR(t, "0.61", FirstDepositBonus(decimal.RequireFromString("12.35"), decimal.NewFromInt(5)))

	p := &models.Plan{MinAmount: decimal.NewFromInt(2999), FeePercentage: decimal.NewFromInt(3)}
	// fee 89.97 * 0.30 = 26.991
	assertINR(t, "26", PurchaseCommission(p, TierFor(0)))
}

func TestSweepPaysOutExactlyOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Anil", "anil@example.com", "")
	env.fund(t, u.ID, 10000)
	p := env.plan(t, 5000, 4, "3")

	c, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)
	assertINR(t, "5000", env.wallet(t, u.ID).Balance)

	c, err = env.l.Contracts.ApplyYield(env.ctx, env.admin.ID, c.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assertINR(t, "500", c.CurrentProfit)

	n, err := env.l.Contracts.SweepMatured(env.ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(4*week + time.Minute)

	n, err = env.l.Contracts.SweepMatured(env.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	w := env.wallet(t, u.ID)
	assertINR(t, "10500", w.Balance)
	assertINR(t, "500", w.TotalProfit)

	n, err = env.l.Contracts.SweepMatured(env.ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	total, err := env.l.Contracts.SweepAll(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assertINR(t, "10500", env.wallet(t, u.ID).Balance)

	_, err = env.l.Contracts.ApplyYield(env.ctx, env.admin.ID, c.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotActive)

	got, err := env.l.Contracts.GetContract(env.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractCompleted, got.Status)

	notes, err := env.l.Accounts.ListNotifications(env.ctx, u.ID, store.Page{})
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Maturity Payout", notes[0].Title)
}

func TestReadsSweepLazily(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Anil", "anil@example.com", "")
	env.fund(t, u.ID, 5000)
	p := env.plan(t, 5000, 1, "3")

	_, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)
	env.clock.Advance(week)

	// The matured principal is spendable without an explicit sweep.
	_, err = env.l.Transactions.RequestWithdrawal(env.ctx, WithdrawalInput{
		UserID:      u.ID,
		Amount:      decimal.NewFromInt(5000),
		Method:      models.MethodUPI,
		Destination: "anil@upi",
	})
	require.NoError(t, err)
	assertINR(t, "0", env.wallet(t, u.ID).Balance)

	contracts, err := env.l.Contracts.ListContracts(env.ctx, u.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, models.ContractCompleted, contracts[0].Status)
}

func TestSweepAllCoversEveryOwner(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.plan(t, 1000, 2, "3")
	var users []*models.User
	for i := 0; i < 3; i++ {
		u := env.register(t, fmt.Sprintf("Owner %d", i), fmt.Sprintf("owner%d@example.com", i), "")
		env.fund(t, u.ID, 1000)
		_, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
		require.NoError(t, err)
		users = append(users, u)
	}
	env.clock.Advance(2 * week)

	n, err := env.l.Contracts.SweepAll(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for _, u := range users {
		w, err := env.store.GetWallet(env.ctx, u.ID)
		require.NoError(t, err)
		assertINR(t, "1000", w.Balance)
	}
}

func TestApplyYield(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Divya", "divya@example.com", "")
	env.fund(t, u.ID, 5000)
	p := env.plan(t, 5000, 8, "3")
	c, err := env.l.Contracts.BuyPlan(env.ctx, u.ID, p.ID)
	require.NoError(t, err)

	c, err = env.l.Contracts.ApplyYield(env.ctx, env.admin.ID, c.ID, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assertINR(t, "125", c.CurrentProfit)

	c, err = env.l.Contracts.ApplyYield(env.ctx, env.admin.ID, c.ID, decimal.NewFromInt(-4))
	require.NoError(t, err)
	assertINR(t, "-75", c.CurrentProfit)

	_, err = env.l.Contracts.ApplyYield(env.ctx, env.admin.ID, c.ID, decimal.NewFromInt(-150))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.l.Contracts.ApplyYield(env.ctx, u.ID, c.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotAdmin)

	logs, err := env.l.Contracts.GrowthLogs(env.ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assertINR(t, "-200", logs[0].ProfitAdded)

	admin, err := env.l.Admin.ListAdminLogs(env.ctx, store.Page{Limit: 1})
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, "Growth Update", admin[0].Action)
	assert.Equal(t, "-4% added", admin[0].Details)
}

func TestAdjustWallet(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Neha", "neha@example.com", "")

	_, err := env.l.Admin.AdjustWallet(env.ctx, env.admin.ID, u.ID, decimal.NewFromInt(100), models.AdjustDebit, "correction")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	w, err := env.l.Admin.AdjustWallet(env.ctx, env.admin.ID, u.ID, decimal.NewFromInt(500), models.AdjustCredit, "Diwali Bonus")
	require.NoError(t, err)
	assertINR(t, "500", w.Balance)
	assertINR(t, "500", w.TotalPartnershipBonus)

	w, err = env.l.Admin.AdjustWallet(env.ctx, env.admin.ID, u.ID, decimal.NewFromInt(200), models.AdjustDebit, "correction")
	require.NoError(t, err)
	assertINR(t, "300", w.Balance)
	assertINR(t, "500", w.TotalPartnershipBonus)

	_, err = env.l.Admin.AdjustWallet(env.ctx, env.admin.ID, "ghost", decimal.NewFromInt(1), models.AdjustCredit, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	logs, err := env.l.Admin.ListAdminLogs(env.ctx, store.Page{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(logs), 2)
	assert.Equal(t, "Manual Adjust", logs[0].Action)
	assert.Equal(t, "DEBIT ₹200 - correction", logs[0].Details)
	assert.Equal(t, "CREDIT ₹500 - Diwali Bonus", logs[1].Details)
}

func TestAdminLogAppend(t *testing.T) {
	env := newTestEnv(t, nil)

	first, err := env.l.Admin.Log(env.ctx, env.admin.ID, "Login", env.admin.ID, "")
	require.NoError(t, err)
	_, err = env.l.Admin.Log(env.ctx, env.admin.ID, "Export", "All", "csv")
	require.NoError(t, err)

	logs, err := env.l.Admin.ListAdminLogs(env.ctx, store.Page{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Export", logs[0].Action)
	assert.Equal(t, first.ID, logs[1].ID)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Rahul", "rahul@example.com", "")
	env.fund(t, u.ID, 10000)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.l.Transactions.RequestWithdrawal(env.ctx, WithdrawalInput{
				UserID:      u.ID,
				Amount:      decimal.NewFromInt(600),
				Method:      models.MethodUPI,
				Destination: "rahul@upi",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, ErrInsufficientBalance) {
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, succeeded)
	assert.Equal(t, 4, refused)
	w := env.wallet(t, u.ID)
	assertINR(t, "400", w.Balance)
	assert.False(t, w.Balance.IsNegative())
}

func TestConcurrentApprovalsOfReferredDeposits(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.register(t, "Arjun", "arjun@example.com", "")
	var deposits []*models.Transaction
	for i := 0; i < 6; i++ {
		b := env.register(t, fmt.Sprintf("Friend %d", i), fmt.Sprintf("friend%d@example.com", i), a.ReferralCode)
		deposits = append(deposits, env.deposit(t, b.ID, 1000))
	}

	var wg sync.WaitGroup
	for _, d := range deposits {
		wg.Add(2)
		for j := 0; j < 2; j++ {
			go func(id string) {
				defer wg.Done()
				_, _ = env.l.Transactions.Decide(env.ctx, env.admin.ID, id, models.TxApproved)
			}(d.ID)
		}
	}
	wg.Wait()

	w := env.wallet(t, a.ID)
	assertINR(t, "300", w.Balance)
	assertINR(t, "300", w.TotalPartnershipBonus)
}

func TestRegistration(t *testing.T) {
	env := newTestEnv(t, nil)
	a := env.register(t, "Arjun", "Arjun@Example.com", "")
	assert.Equal(t, models.RoleUser, a.Role)
	assert.Equal(t, models.KYCNone, a.KYCStatus)
	assert.Len(t, a.ReferralCode, 7)
	assertINR(t, "0", env.wallet(t, a.ID).Balance)

	_, err := env.l.Accounts.Register(env.ctx, Registration{Name: "Again", Email: "arjun@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateContact)
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.l.Accounts.Register(env.ctx, Registration{Name: "Ghost", Email: "ghost@example.com", ReferralCode: "NOPE0000"})
	assert.ErrorIs(t, err, ErrUnknownReferral)

	_, err = env.l.Accounts.Register(env.ctx, Registration{Name: "Nobody"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	b, err := env.l.Accounts.Register(env.ctx, Registration{Name: "Priya", Phone: "9876543210", ReferralCode: a.ReferralCode})
	require.NoError(t, err)
	assert.NotEqual(t, a.ReferralCode, b.ReferralCode)

	got, err := env.l.Accounts.Login(env.ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	got, err = env.l.Accounts.Login(env.ctx, "ARJUN@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	_, err = env.l.Accounts.Login(env.ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	refs, err := env.l.Referrals.ListReferrals(env.ctx, a.ReferralCode)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, b.ID, refs[0].ID)
}

func TestKYCLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Farah", "farah@example.com", "")

	_, err := env.l.Accounts.SubmitKYC(env.ctx, u.ID, "https://docs.example.com/farah-pan.jpg", "abcde1234f")
	require.NoError(t, err)
	got, err := env.l.Accounts.GetUser(env.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KYCPending, got.KYCStatus)

	_, err = env.l.Accounts.SubmitKYC(env.ctx, u.ID, "https://docs.example.com/other.jpg", "")
	assert.ErrorIs(t, err, ErrKYCInProgress)

	doc, err := env.l.Accounts.KYCDocument(env.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/farah-pan.jpg", doc)
	k, err := env.store.GetKYC(env.ctx, u.ID)
	require.NoError(t, err)
	assert.NotContains(t, k.DocumentRef, "docs.example.com")

	got, err = env.l.Accounts.DecideKYC(env.ctx, env.admin.ID, u.ID, models.KYCVerified, "")
	require.NoError(t, err)
	assert.Equal(t, models.KYCVerified, got.KYCStatus)

	_, err = env.l.Accounts.DecideKYC(env.ctx, env.admin.ID, u.ID, models.KYCRejected, "blurry")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	_, err = env.l.Accounts.SubmitKYC(env.ctx, u.ID, "https://docs.example.com/x.jpg", "BADPAN")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBroadcastReachesEveryone(t *testing.T) {
	env := newTestEnv(t, nil)
	u := env.register(t, "Zoya", "zoya@example.com", "")

	require.NoError(t, env.l.Admin.Broadcast(env.ctx, env.admin.ID, "Maintenance", "Deposits pause at 2 AM IST."))
	assert.ErrorIs(t, env.l.Admin.Broadcast(env.ctx, u.ID, "Spam", "nope"), ErrNotAdmin)

	notes, err := env.l.Accounts.ListNotifications(env.ctx, u.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Maintenance", notes[0].Title)

	require.NoError(t, env.l.Accounts.MarkNotificationRead(env.ctx, u.ID, notes[0].ID))
}

func TestMissingReferrerNeverBlocksTrigger(t *testing.T) {
	cases := []struct {
		name   string
		remove func(env *testEnv, referrer *models.User) error
	}{
		{"wallet", func(env *testEnv, referrer *models.User) error {
			return env.db.Where("user_id = ?", referrer.ID).Delete(&models.Wallet{}).Error
		}},
		{"user", func(env *testEnv, referrer *models.User) error {
			if err := env.db.Where("user_id = ?", referrer.ID).Delete(&models.Wallet{}).Error; err != nil {
				return err
			}
			return env.db.Where("id = ?", referrer.ID).Delete(&models.User{}).Error
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			a := env.register(t, "Arjun", "arjun@example.com", "")
			b := env.register(t, "Priya", "priya@example.com", a.ReferralCode)
			require.NoError(t, tc.remove(env, a))

			dep := env.deposit(t, b.ID, 1000)
			_, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
			require.NoError(t, err)
			assertINR(t, "1000", env.wallet(t, b.ID).Balance)

			p := env.plan(t, 1000, 4, "2")
			_, err = env.l.Contracts.BuyPlan(env.ctx, b.ID, p.ID)
			require.NoError(t, err)
			assertINR(t, "0", env.wallet(t, b.ID).Balance)

			var n int64
			require.NoError(t, env.db.Model(&models.Commission{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestRegistrationSurvivesCrowdedReferralPrefix(t *testing.T) {
	env := newTestEnv(t, nil)

	// Every four digit code behind the XXX prefix is taken.
	taken := make([]models.User, 0, 9000)
	for i := 1000; i <= 9999; i++ {
		taken = append(taken, models.User{Name: "Seed", ReferralCode: fmt.Sprintf("XXX%d", i)})
	}
	require.NoError(t, env.db.CreateInBatches(taken, 500).Error)

	u, err := env.l.Accounts.Register(env.ctx, Registration{Name: "आर्या", Email: "arya@example.com"})
	require.NoError(t, err)
	assert.Regexp(t, `^XXX[0-9]{6,8}$`, u.ReferralCode)

	v, err := env.l.Accounts.Register(env.ctx, Registration{Name: "आर्या", Email: "arya2@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, u.ReferralCode, v.ReferralCode)
}

func TestZeroLedgerConfigIsHonored(t *testing.T) {
	env := newTestEnv(t, &config.LedgerConfig{})
	a := env.register(t, "Arjun", "arjun@example.com", "")
	b := env.register(t, "Priya", "priya@example.com", a.ReferralCode)

	dep := env.deposit(t, b.ID, 1000)
	_, err := env.l.Transactions.Decide(env.ctx, env.admin.ID, dep.ID, models.TxApproved)
	require.NoError(t, err)
	assertINR(t, "0", env.wallet(t, a.ID).Balance)

	_, err = env.l.Transactions.RequestWithdrawal(env.ctx, WithdrawalInput{
		UserID:      b.ID,
		Amount:      decimal.NewFromInt(100),
		Method:      models.MethodUPI,
		Destination: "priya@upi",
	})
	require.NoError(t, err)
	assertINR(t, "900", env.wallet(t, b.ID).Balance)
}
