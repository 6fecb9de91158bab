package ledger

import (
	"context"
	"fmt"

	"growledger-go/config"
	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// TransactionEngine runs the deposit and withdrawal lifecycle:
// none -> pending -> approved | rejected, terminal after the first decision.
type TransactionEngine struct {
	*core
	referrals *ReferralGraph
}

type DepositInput struct {
	UserID    string
	Amount    decimal.Decimal
	Method    string
	ProofURL  string
	Reference string
}

type WithdrawalInput struct {
	UserID      string
	Amount      decimal.Decimal
	Method      string
	Destination string
}

func validMethod(m string) bool {
	switch m {
	case models.MethodUPI, models.MethodBankTransfer, models.MethodUSDT, models.MethodCBDC:
		return true
	}
	return false
}

// RequestDeposit records a pending deposit. The wallet is untouched until an
// admin approves it.
func (e *TransactionEngine) RequestDeposit(ctx context.Context, in DepositInput) (*models.Transaction, error) {
	if !validAmount(in.Amount) {
		return nil, e.fail("request_deposit", ErrInvalidAmount)
	}
	if !validMethod(in.Method) {
		return nil, e.fail("request_deposit", withMessage(ErrInvalidInput, "unsupported payment method"))
	}
	proof := utils.SanitizeString(in.ProofURL)
	ref := utils.SanitizeString(in.Reference)
	if proof == "" && ref == "" {
		return nil, e.fail("request_deposit", withMessage(ErrInvalidInput, "payment proof or reference is required"))
	}

	var txn *models.Transaction
	err := e.mutate(ctx, "request_deposit", []string{in.UserID}, func(tx store.Store) ([]events.Event, error) {
		u, err := e.loadUser(ctx, tx, in.UserID)
		if err != nil {
			return nil, err
		}
		if u.IsBlocked {
			return nil, ErrAccountBlocked
		}
		t := &models.Transaction{
			UserID:    u.ID,
			Type:      models.TxDeposit,
			Amount:    in.Amount,
			Method:    in.Method,
			ProofURL:  proof,
			Reference: ref,
			Status:    models.TxPending,
			CreatedAt: e.now(),
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return nil, storeErr(err, "transaction")
		}
		txn = t
		ev := e.event(events.TransactionRequested, u.ID, "", "")
		ev.Amount = t.Amount
		ev.Labels = map[string]string{"type": t.Type, "method": t.Method}
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id": txn.UserID,
		"tx_id":   txn.ID,
		"amount":  txn.Amount.String(),
	}).Info("deposit requested")
	return txn, nil
}

// RequestWithdrawal deducts the amount immediately so pending payouts cannot
// be spent twice; a rejection refunds it.
func (e *TransactionEngine) RequestWithdrawal(ctx context.Context, in WithdrawalInput) (*models.Transaction, error) {
	if !validAmount(in.Amount) {
		return nil, e.fail("request_withdrawal", ErrInvalidAmount)
	}
	if in.Amount.LessThan(e.cfg.MinWithdrawal) {
		return nil, e.fail("request_withdrawal",
			withMessage(ErrBelowMinimum, fmt.Sprintf("minimum withdrawal is %s", inr(e.cfg.MinWithdrawal))))
	}
	if !validMethod(in.Method) {
		return nil, e.fail("request_withdrawal", withMessage(ErrInvalidInput, "unsupported payment method"))
	}
	dest := utils.SanitizeString(in.Destination)
	if dest == "" {
		return nil, e.fail("request_withdrawal", withMessage(ErrInvalidInput, "destination is required"))
	}

	var txn *models.Transaction
	err := e.mutate(ctx, "request_withdrawal", []string{in.UserID}, func(tx store.Store) ([]events.Event, error) {
		u, err := e.loadUser(ctx, tx, in.UserID)
		if err != nil {
			return nil, err
		}
		if u.IsBlocked {
			return nil, ErrAccountBlocked
		}

		evs, err := e.sweepUser(ctx, tx, u.ID)
		if err != nil {
			return nil, err
		}
		w, err := e.loadWallet(ctx, tx, u.ID)
		if err != nil {
			return nil, err
		}
		if w.Balance.LessThan(in.Amount) {
			return nil, ErrInsufficientBalance
		}
		w.Balance = w.Balance.Sub(in.Amount)
		if err := tx.SaveWallet(ctx, w); err != nil {
			return nil, storeErr(err, "wallet")
		}

		t := &models.Transaction{
			UserID:      u.ID,
			Type:        models.TxWithdrawal,
			Amount:      in.Amount,
			Method:      in.Method,
			Destination: dest,
			Status:      models.TxPending,
			CreatedAt:   e.now(),
		}
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return nil, storeErr(err, "transaction")
		}
		txn = t
		ev := e.event(events.TransactionRequested, u.ID, "", "")
		ev.Amount = t.Amount
		ev.Labels = map[string]string{"type": t.Type, "method": t.Method}
		return append(evs, ev), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"user_id": txn.UserID,
		"tx_id":   txn.ID,
		"amount":  txn.Amount.String(),
	}).Info("withdrawal requested, funds locked")
	return txn, nil
}

// Decide moves a pending transaction to approved or rejected exactly once.
//
//	deposit    approved: credit amount, maybe first-deposit referral bonus
//	deposit    rejected: nothing
//	withdrawal approved: nothing, already deducted
//	withdrawal rejected: refund amount
func (e *TransactionEngine) Decide(ctx context.Context, adminID, txID, decision string) (*models.Transaction, error) {
	if decision != models.TxApproved && decision != models.TxRejected {
		return nil, e.fail("decide_transaction", withMessage(ErrInvalidInput, "decision must be approved or rejected"))
	}

	// Resolve who is involved before locking; everything is re-read under
	// the locks.
	pre, err := e.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, e.fail("decide_transaction", storeErr(err, "transaction"))
	}
	lockIDs := []string{pre.UserID}
	if owner, err := e.store.GetUser(ctx, pre.UserID); err == nil {
		if ref, err := e.referrals.Referrer(ctx, e.store, owner); err == nil && ref != nil {
			lockIDs = append(lockIDs, ref.ID)
		}
	}

	var txn *models.Transaction
	err = e.mutate(ctx, "decide_transaction", lockIDs, func(tx store.Store) ([]events.Event, error) {
		if err := e.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		t, err := tx.GetTransaction(ctx, txID)
		if err != nil {
			return nil, storeErr(err, "transaction")
		}
		if t.Status != models.TxPending {
			return nil, ErrAlreadyProcessed
		}
		w, err := e.loadWallet(ctx, tx, t.UserID)
		if err != nil {
			return nil, err
		}

		now := e.now()
		ok, err := tx.DecideTransaction(ctx, t.ID, decision, adminID, now)
		if err != nil {
			return nil, storeErr(err, "transaction")
		}
		if !ok {
			return nil, ErrAlreadyProcessed
		}
		t.Status = decision
		t.DecidedBy = adminID
		t.DecidedAt = &now

		var evs []events.Event
		switch {
		case t.Type == models.TxDeposit && decision == models.TxApproved:
			w.Balance = w.Balance.Add(t.Amount)
			if err := tx.SaveWallet(ctx, w); err != nil {
				return nil, storeErr(err, "wallet")
			}
			bonusEvs, err := e.firstDepositBonus(ctx, tx, t)
			if err != nil {
				return nil, err
			}
			evs = append(evs, bonusEvs...)
		case t.Type == models.TxWithdrawal && decision == models.TxRejected:
			w.Balance = w.Balance.Add(t.Amount)
			if err := tx.SaveWallet(ctx, w); err != nil {
				return nil, storeErr(err, "wallet")
			}
		}

		details := fmt.Sprintf("%s %s of %s", capitalize(t.Type), decision, inr(t.Amount))
		if err := e.audit(ctx, tx, adminID, "Transaction "+decision, t.ID, details); err != nil {
			return nil, err
		}

		txn = t
		ev := e.event(events.TransactionDecided, t.UserID, "Capital Update",
			fmt.Sprintf("Your %s request of %s was %s.", t.Type, inr(t.Amount), decision))
		ev.Amount = t.Amount
		ev.Labels = map[string]string{"type": t.Type, "status": decision}
		return append([]events.Event{ev}, evs...), nil
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"tx_id":    txn.ID,
		"user_id":  txn.UserID,
		"admin_id": adminID,
		"status":   txn.Status,
	}).Info("transaction decided")
	return txn, nil
}

// firstDepositBonus pays the flat referral bonus when t is the referee's
// first approved deposit. t is already approved in tx.
func (e *TransactionEngine) firstDepositBonus(ctx context.Context, tx store.Store, t *models.Transaction) ([]events.Event, error) {
	if !e.cfg.RuleEnabled(config.RuleFirstDeposit) {
		return nil, nil
	}
	prior, err := tx.CountApprovedDeposits(ctx, t.UserID, t.ID)
	if err != nil {
		return nil, storeErr(err, "deposits")
	}
	if prior > 0 {
		return nil, nil
	}
	referee, err := e.loadUser(ctx, tx, t.UserID)
	if err != nil {
		return nil, err
	}
	referrer, err := e.referrals.Referrer(ctx, tx, referee)
	if err != nil || referrer == nil {
		return nil, err
	}

	amount := FirstDepositBonus(t.Amount, e.cfg.FirstDepositBonusPercent)
	return e.referrals.pay(ctx, tx, bonus{
		referrer: referrer,
		referee:  referee,
		trigger:  models.TriggerFirstDeposit,
		sourceID: t.ID,
		amount:   amount,
		title:    "Referral Bonus",
		message: fmt.Sprintf("You earned %s because %s made their first deposit.",
			inr(amount), referee.Name),
	})
}

// ListTransactions returns the user's own history, newest first, after
// settling matured contracts.
func (e *TransactionEngine) ListTransactions(ctx context.Context, userID string, page store.Page) ([]models.Transaction, error) {
	if _, err := e.sweep(ctx, userID); err != nil {
		return nil, err
	}
	out, err := e.store.ListTransactions(ctx, store.TransactionFilter{UserID: userID, Page: page})
	if err != nil {
		return nil, e.fail("list_transactions", storeErr(err, "transactions"))
	}
	return out, nil
}

func (e *TransactionEngine) ListAllTransactions(ctx context.Context, f store.TransactionFilter) ([]models.Transaction, error) {
	out, err := e.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, e.fail("list_all_transactions", storeErr(err, "transactions"))
	}
	return out, nil
}

func (e *TransactionEngine) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	t, err := e.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, e.fail("get_transaction", storeErr(err, "transaction"))
	}
	return t, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
