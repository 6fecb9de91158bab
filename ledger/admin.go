package ledger

import (
	"context"
	"fmt"
	"strings"

	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AdminDesk holds the manual admin tools: wallet adjustments, broadcasts and
// the append-only action log.
type AdminDesk struct {
	*core
}

// AdjustWallet credits or debits a wallet by hand. A credit whose reason
// mentions a bonus also counts toward the partnership bonus total.
func (a *AdminDesk) AdjustWallet(ctx context.Context, adminID, userID string, amount decimal.Decimal, direction, reason string) (*models.Wallet, error) {
	if !validAmount(amount) {
		return nil, a.fail("adjust_wallet", ErrInvalidAmount)
	}
	if direction != models.AdjustCredit && direction != models.AdjustDebit {
		return nil, a.fail("adjust_wallet", withMessage(ErrInvalidInput, "direction must be credit or debit"))
	}
	reason = utils.SanitizeString(reason)
	if reason == "" {
		return nil, a.fail("adjust_wallet", withMessage(ErrInvalidInput, "reason is required"))
	}

	var wallet *models.Wallet
	err := a.mutate(ctx, "adjust_wallet", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		if err := a.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		w, err := a.loadWallet(ctx, tx, userID)
		if err != nil {
			return nil, err
		}

		switch direction {
		case models.AdjustCredit:
			w.Balance = w.Balance.Add(amount)
			if isBonusReason(reason) {
				w.TotalPartnershipBonus = w.TotalPartnershipBonus.Add(amount)
			}
		case models.AdjustDebit:
			if w.Balance.LessThan(amount) {
				return nil, ErrInsufficientBalance
			}
			w.Balance = w.Balance.Sub(amount)
		}
		if err := tx.SaveWallet(ctx, w); err != nil {
			return nil, storeErr(err, "wallet")
		}

		details := fmt.Sprintf("%s %s - %s", strings.ToUpper(direction), inr(amount), reason)
		if err := a.audit(ctx, tx, adminID, "Manual Adjust", userID, details); err != nil {
			return nil, err
		}

		wallet = w
		verb := "credited to"
		if direction == models.AdjustDebit {
			verb = "debited from"
		}
		ev := a.event(events.WalletAdjusted, userID, "Admin Adjustment",
			fmt.Sprintf("%s was %s your wallet. Reason: %s", inr(amount), verb, reason))
		ev.Amount = amount
		ev.Labels = map[string]string{"direction": direction}
		return []events.Event{ev}, nil
	})
	if err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"user_id":   userID,
		"direction": direction,
		"amount":    amount.String(),
	}).Info("wallet adjusted")
	return wallet, nil
}

func isBonusReason(reason string) bool {
	return strings.Contains(strings.ToLower(reason), "bonus")
}

// Log appends an entry to the admin log. Entries are never edited.
func (a *AdminDesk) Log(ctx context.Context, adminID, action, targetID, details string) (*models.AdminLog, error) {
	entry := &models.AdminLog{
		AdminID:   adminID,
		Action:    action,
		TargetID:  targetID,
		Details:   details,
		CreatedAt: a.now(),
	}
	if err := a.store.AppendAdminLog(ctx, entry); err != nil {
		return nil, a.fail("admin_log", storeErr(err, "admin log"))
	}
	return entry, nil
}

// ListAdminLogs returns the log newest first.
func (a *AdminDesk) ListAdminLogs(ctx context.Context, page store.Page) ([]models.AdminLog, error) {
	logs, err := a.store.ListAdminLogs(ctx, page)
	if err != nil {
		return nil, a.fail("list_admin_logs", storeErr(err, "admin logs"))
	}
	return logs, nil
}

// Broadcast sends a notification to every user.
func (a *AdminDesk) Broadcast(ctx context.Context, adminID, title, message string) error {
	title = utils.SanitizeString(title)
	message = utils.SanitizeString(message)
	if title == "" || message == "" {
		return a.fail("broadcast", withMessage(ErrInvalidInput, "title and message are required"))
	}
	return a.mutate(ctx, "broadcast", nil, func(tx store.Store) ([]events.Event, error) {
		if err := a.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		if err := a.audit(ctx, tx, adminID, "Broadcast", "All", title); err != nil {
			return nil, err
		}
		return []events.Event{a.event(events.Broadcast, "", title, message)}, nil
	})
}
