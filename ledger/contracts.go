package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"growledger-go/config"
	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const week = 7 * 24 * time.Hour

// ContractEngine sells plans, accrues admin-driven yield on active contracts
// and pays them out at maturity.
type ContractEngine struct {
	*core
	referrals *ReferralGraph
}

// BuyPlan debits the plan amount and opens a contract that snapshots the
// plan's economics. A referred buyer's referrer earns a tiered share of the
// platform fee; the buyer's principal is untouched by it.
func (e *ContractEngine) BuyPlan(ctx context.Context, userID, planID string) (*models.Contract, error) {
	lockIDs := []string{userID}
	if buyer, err := e.store.GetUser(ctx, userID); err == nil {
		if ref, err := e.referrals.Referrer(ctx, e.store, buyer); err == nil && ref != nil {
			lockIDs = append(lockIDs, ref.ID)
		}
	}

	var contract *models.Contract
	err := e.mutate(ctx, "buy_plan", lockIDs, func(tx store.Store) ([]events.Event, error) {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return nil, storeErr(err, "plan")
		}
		if !plan.IsActive {
			return nil, ErrPlanClosed
		}
		buyer, err := e.loadUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if buyer.IsBlocked {
			return nil, ErrAccountBlocked
		}

		evs, err := e.sweepUser(ctx, tx, buyer.ID)
		if err != nil {
			return nil, err
		}
		w, err := e.loadWallet(ctx, tx, buyer.ID)
		if err != nil {
			return nil, err
		}
		if w.Balance.LessThan(plan.MinAmount) {
			return nil, ErrInsufficientBalance
		}
		w.Balance = w.Balance.Sub(plan.MinAmount)
		if err := tx.SaveWallet(ctx, w); err != nil {
			return nil, storeErr(err, "wallet")
		}

		now := e.now()
		c := &models.Contract{
			UserID:         buyer.ID,
			PlanID:         plan.ID,
			PlanName:       plan.Name,
			PlanTicker:     plan.Ticker,
			FeePercentage:  plan.FeePercentage,
			DurationWeeks:  plan.DurationWeeks,
			InvestedAmount: plan.MinAmount,
			StartDate:      now,
			EndDate:        now.Add(time.Duration(plan.DurationWeeks) * week),
			CurrentProfit:  decimal.Zero,
			Status:         models.ContractActive,
			CreatedAt:      now,
		}
		if err := tx.CreateContract(ctx, c); err != nil {
			return nil, storeErr(err, "contract")
		}

		ev := e.event(events.ContractPurchased, buyer.ID, "", "")
		ev.Amount = c.InvestedAmount
		ev.Labels = map[string]string{"ticker": c.PlanTicker}
		evs = append(evs, ev)

		commission, err := e.purchaseCommission(ctx, tx, buyer, plan, c)
		if err != nil {
			return nil, err
		}
		contract = c
		return append(evs, commission...), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id":     contract.UserID,
		"contract_id": contract.ID,
		"ticker":      contract.PlanTicker,
		"amount":      contract.InvestedAmount.String(),
	}).Info("plan purchased")
	return contract, nil
}

func (e *ContractEngine) purchaseCommission(ctx context.Context, tx store.Store, buyer *models.User, plan *models.Plan, c *models.Contract) ([]events.Event, error) {
	if !e.cfg.RuleEnabled(config.RulePlanPurchase) {
		return nil, nil
	}
	referrer, err := e.referrals.Referrer(ctx, tx, buyer)
	if err != nil || referrer == nil {
		return nil, err
	}
	n, err := e.referrals.NetworkSize(ctx, tx, referrer.ReferralCode)
	if err != nil {
		return nil, err
	}
	tier := TierFor(n)
	amount := PurchaseCommission(plan, tier)

	return e.referrals.pay(ctx, tx, bonus{
		referrer: referrer,
		referee:  buyer,
		trigger:  models.TriggerPlanPurchase,
		sourceID: c.ID,
		tier:     tier.Name,
		amount:   amount,
		title:    tier.Name + " Bonus",
		message: fmt.Sprintf("Network Boost: You earned %s (%s%% share) from a new investment in %s.",
			inr(amount), tier.Share.Mul(hundred).String(), plan.Ticker),
	})
}

// ApplyYield adds investedAmount * pct / 100 to an active contract's profit.
// pct may be negative, but the total profit never drops below -investedAmount.
func (e *ContractEngine) ApplyYield(ctx context.Context, adminID, contractID string, pct decimal.Decimal) (*models.Contract, error) {
	pre, err := e.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, e.fail("apply_yield", storeErr(err, "contract"))
	}

	var contract *models.Contract
	err = e.mutate(ctx, "apply_yield", []string{pre.UserID}, func(tx store.Store) ([]events.Event, error) {
		if err := e.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		c, err := tx.GetContract(ctx, contractID)
		if err != nil {
			return nil, storeErr(err, "contract")
		}
		now := e.now()
		// A matured contract's profit is final even before the sweep runs.
		if c.Status != models.ContractActive || c.Matured(now) {
			return nil, ErrNotActive
		}

		added := percentOf(c.InvestedAmount, pct).Round(2)
		profit := c.CurrentProfit.Add(added)
		if profit.LessThan(c.InvestedAmount.Neg()) {
			return nil, withMessage(ErrInvalidInput, "yield would exceed the invested amount in losses")
		}
		c.CurrentProfit = profit
		c.LastGrowthUpdate = &now
		if err := tx.SaveContractProfit(ctx, c); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotActive
			}
			return nil, storeErr(err, "contract")
		}

		g := &models.GrowthLog{
			ContractID:  c.ID,
			UserID:      c.UserID,
			AdminID:     adminID,
			Percentage:  pct,
			ProfitAdded: added,
			CreatedAt:   now,
		}
		if err := tx.CreateGrowthLog(ctx, g); err != nil {
			return nil, storeErr(err, "growth log")
		}
		if err := e.audit(ctx, tx, adminID, "Growth Update", c.ID, pct.String()+"% added"); err != nil {
			return nil, err
		}

		contract = c
		ev := e.event(events.YieldApplied, c.UserID, "Yield Update",
			fmt.Sprintf("Your %s contract moved %s%%. Current profit: %s.", c.PlanTicker, pct.String(), inr(c.CurrentProfit)))
		ev.Amount = added
		ev.Labels = map[string]string{"ticker": c.PlanTicker}
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// SweepMatured settles every matured contract of userID and reports how many
// were paid out. Running it again pays nothing more.
func (e *ContractEngine) SweepMatured(ctx context.Context, userID string) (int, error) {
	return e.sweep(ctx, userID)
}

// SweepAll settles matured contracts of every user with an active contract.
// One user's failure does not stop the others.
func (e *ContractEngine) SweepAll(ctx context.Context) (int, error) {
	owners, err := e.store.ActiveContractOwners(ctx)
	if err != nil {
		return 0, e.fail("sweep_all", storeErr(err, "contract owners"))
	}
	var (
		total int
		errs  []error
	)
	for _, id := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := e.sweep(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", id, err))
			continue
		}
		total += n
	}
	if total > 0 {
		e.log.WithField("contracts", total).Info("matured contracts settled")
	}
	return total, errors.Join(errs...)
}

func (e *ContractEngine) ListContracts(ctx context.Context, userID string, page store.Page) ([]models.Contract, error) {
	if _, err := e.sweep(ctx, userID); err != nil {
		return nil, err
	}
	out, err := e.store.ListContracts(ctx, store.ContractFilter{UserID: userID, Page: page})
	if err != nil {
		return nil, e.fail("list_contracts", storeErr(err, "contracts"))
	}
	return out, nil
}

func (e *ContractEngine) ListAllContracts(ctx context.Context, f store.ContractFilter) ([]models.Contract, error) {
	out, err := e.store.ListContracts(ctx, f)
	if err != nil {
		return nil, e.fail("list_all_contracts", storeErr(err, "contracts"))
	}
	return out, nil
}

func (e *ContractEngine) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	c, err := e.store.GetContract(ctx, id)
	if err != nil {
		return nil, e.fail("get_contract", storeErr(err, "contract"))
	}
	return c, nil
}

func (e *ContractEngine) GrowthLogs(ctx context.Context, contractID string) ([]models.GrowthLog, error) {
	out, err := e.store.ListGrowthLogs(ctx, contractID)
	if err != nil {
		return nil, e.fail("growth_logs", storeErr(err, "growth logs"))
	}
	return out, nil
}

// sweep runs sweepUser in its own locked transaction.
func (c *core) sweep(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.mutate(ctx, "sweep_matured", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		evs, err := c.sweepUser(ctx, tx, userID)
		n = len(evs)
		return evs, err
	})
	return n, err
}

// sweepUser completes the user's matured active contracts inside tx and
// credits principal plus profit. The caller must hold the user's lock. It
// returns one event per contract paid.
func (c *core) sweepUser(ctx context.Context, tx store.Store, userID string) ([]events.Event, error) {
	active, err := tx.ListContracts(ctx, store.ContractFilter{UserID: userID, Status: models.ContractActive})
	if err != nil {
		return nil, storeErr(err, "contracts")
	}
	now := c.now()
	var matured []models.Contract
	for _, ct := range active {
		if ct.Matured(now) {
			matured = append(matured, ct)
		}
	}
	if len(matured) == 0 {
		return nil, nil
	}

	w, err := c.loadWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	var evs []events.Event
	for _, ct := range matured {
		done, err := tx.CompleteContract(ctx, ct.ID, now)
		if err != nil {
			return nil, storeErr(err, "contract")
		}
		if !done {
			continue
		}
		payout := ct.Payout()
		w.Balance = w.Balance.Add(payout)
		w.TotalProfit = w.TotalProfit.Add(ct.CurrentProfit)

		ev := c.event(events.ContractMatured, userID, "Maturity Payout",
			fmt.Sprintf("Your %s contract matured. %s has been credited to your wallet.", ct.PlanTicker, inr(payout)))
		ev.Amount = payout
		ev.Labels = map[string]string{"ticker": ct.PlanTicker}
		evs = append(evs, ev)

		c.log.WithFields(logrus.Fields{
			"user_id":     userID,
			"contract_id": ct.ID,
			"payout":      payout.String(),
		}).Info("contract matured")
	}
	if len(evs) == 0 {
		return nil, nil
	}
	if err := tx.SaveWallet(ctx, w); err != nil {
		return nil, storeErr(err, "wallet")
	}
	return evs, nil
}
