package ledger

import (
	"context"
	"errors"
	"fmt"

	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Tier is a referrer's commission bracket, chosen by direct referral count.
type Tier struct {
	Name         string
	Share        decimal.Decimal
	MinReferrals int64
}

// Highest bracket first.
var tiers = []Tier{
	{Name: "Director", Share: decimal.RequireFromString("0.50"), MinReferrals: 10},
	{Name: "Executive", Share: decimal.RequireFromString("0.40"), MinReferrals: 5},
	{Name: "Associate", Share: decimal.RequireFromString("0.30"), MinReferrals: 0},
}

func TierFor(networkSize int64) Tier {
	for _, t := range tiers {
		if networkSize >= t.MinReferrals {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// FirstDepositBonus is percent of the deposit, rounded down to the paisa.
func FirstDepositBonus(deposit, percent decimal.Decimal) decimal.Decimal {
	return percentOf(deposit, percent).Truncate(2)
}

// PurchaseCommission is the tier's share of the plan's platform fee, floored
// to whole rupees. It is paid out of the fee, never out of the principal.
func PurchaseCommission(plan *models.Plan, tier Tier) decimal.Decimal {
	return plan.PlanFee().Mul(tier.Share).Floor()
}

// ReferralGraph answers who referred whom. The edge is User.ReferredBy
// pointing at another user's ReferralCode; only the direct referrer earns.
type ReferralGraph struct {
	*core
}

// Referrer returns the direct referrer of u, or nil when there is none or
// the code no longer resolves.
func (g *ReferralGraph) Referrer(ctx context.Context, s store.Store, u *models.User) (*models.User, error) {
	if u == nil || u.ReferredBy == nil || *u.ReferredBy == "" {
		return nil, nil
	}
	ref, err := s.GetUserByReferralCode(ctx, *u.ReferredBy)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "referrer")
	}
	if ref.ID == u.ID {
		return nil, nil
	}
	return ref, nil
}

func (g *ReferralGraph) NetworkSize(ctx context.Context, s store.Store, code string) (int64, error) {
	n, err := s.CountReferrals(ctx, code)
	return n, storeErr(err, "referrals")
}

func (g *ReferralGraph) ListReferrals(ctx context.Context, code string) ([]models.User, error) {
	if code == "" {
		return nil, withMessage(ErrInvalidInput, "referral code is required")
	}
	users, err := g.store.ListReferrals(ctx, code)
	if err != nil {
		return nil, g.fail("list_referrals", storeErr(err, "referrals"))
	}
	return users, nil
}

func (g *ReferralGraph) ListCommissions(ctx context.Context, referrerID string) ([]models.Commission, error) {
	out, err := g.store.ListCommissions(ctx, referrerID)
	if err != nil {
		return nil, g.fail("list_commissions", storeErr(err, "commissions"))
	}
	return out, nil
}

// TierOf reports the current tier of the user with the given referral code.
func (g *ReferralGraph) TierOf(ctx context.Context, code string) (Tier, int64, error) {
	n, err := g.NetworkSize(ctx, g.store, code)
	if err != nil {
		return Tier{}, 0, g.fail("tier_of", err)
	}
	return TierFor(n), n, nil
}

type bonus struct {
	referrer *models.User
	referee  *models.User
	trigger  string
	sourceID string
	tier     string
	amount   decimal.Decimal
	title    string
	message  string
}

// pay credits a referral bonus inside tx. A referrer without a wallet is
// skipped without error so the triggering operation still commits.
func (g *ReferralGraph) pay(ctx context.Context, tx store.Store, b bonus) ([]events.Event, error) {
	if b.referrer == nil || !b.amount.IsPositive() {
		return nil, nil
	}
	w, err := tx.GetWallet(ctx, b.referrer.ID)
	if errors.Is(err, store.ErrNotFound) {
		g.log.WithFields(logrus.Fields{
			"referrer_id": b.referrer.ID,
			"trigger":     b.trigger,
		}).Warn("referrer has no wallet, bonus skipped")
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "referrer wallet")
	}

	w.Balance = w.Balance.Add(b.amount)
	w.TotalPartnershipBonus = w.TotalPartnershipBonus.Add(b.amount)
	if err := tx.SaveWallet(ctx, w); err != nil {
		return nil, storeErr(err, "referrer wallet")
	}

	commission := &models.Commission{
		ReferrerID: b.referrer.ID,
		RefereeID:  b.referee.ID,
		Trigger:    b.trigger,
		SourceID:   b.sourceID,
		Tier:       b.tier,
		Amount:     b.amount,
		CreatedAt:  g.now(),
	}
	if err := tx.CreateCommission(ctx, commission); err != nil {
		return nil, storeErr(err, "commission")
	}

	details := fmt.Sprintf("Paid %s to %s for %s (%s)", inr(b.amount), b.referrer.Name, b.referee.Name, b.trigger)
	if b.tier != "" {
		details = fmt.Sprintf("%s, %s tier", details, b.tier)
	}
	if err := g.audit(ctx, tx, models.SystemActor, "Referral Bonus", b.referrer.ID, details); err != nil {
		return nil, err
	}

	e := g.event(events.ReferralBonusPaid, b.referrer.ID, b.title, b.message)
	e.Amount = b.amount
	e.Labels = map[string]string{"trigger": b.trigger, "tier": b.tier}
	return []events.Event{e}, nil
}
