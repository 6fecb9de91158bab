// Package ledger implements the money-moving operations of the platform:
// deposits and withdrawals, plan purchases, contract maturity, referral
// commissions and manual admin adjustments. Every mutation runs under the
// wallet locks of the users it touches and inside one store transaction
// together with its admin log entry.
package ledger

import (
	"context"
	"errors"
	"time"

	"growledger-go/config"
	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/sirupsen/logrus"
)

type Clock func() time.Time

type Options struct {
	// Config is used as given; nil selects config.DefaultLedger().
	Config *config.LedgerConfig
	Logger *logrus.Logger
	Bus    *events.Bus
	Clock  Clock
	Cipher *utils.FieldCipher
}

type Ledger struct {
	Accounts     *Accounts
	Referrals    *ReferralGraph
	Transactions *TransactionEngine
	Contracts    *ContractEngine
	Plans        *PlanCatalog
	Admin        *AdminDesk
}

type core struct {
	store  store.Store
	locks  *walletLocks
	bus    *events.Bus
	log    *logrus.Logger
	cfg    config.LedgerConfig
	now    Clock
	cipher *utils.FieldCipher
}

func New(s store.Store, opts Options) *Ledger {
	c := &core{
		store:  s,
		locks:  newWalletLocks(),
		bus:    opts.Bus,
		log:    opts.Logger,
		cfg:    config.DefaultLedger(),
		now:    opts.Clock,
		cipher: opts.Cipher,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.bus == nil {
		c.bus = events.NewBus(c.log)
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Config != nil {
		c.cfg = *opts.Config
	}

	referrals := &ReferralGraph{core: c}
	return &Ledger{
		Accounts:     &Accounts{core: c},
		Referrals:    referrals,
		Transactions: &TransactionEngine{core: c, referrals: referrals},
		Contracts:    &ContractEngine{core: c, referrals: referrals},
		Plans:        &PlanCatalog{core: c},
		Admin:        &AdminDesk{core: c},
	}
}

// mutate locks the wallets of lockIDs, runs fn in one store transaction and,
// once committed and unlocked, publishes the events fn produced.
func (c *core) mutate(ctx context.Context, op string, lockIDs []string, fn func(tx store.Store) ([]events.Event, error)) error {
	unlock := c.locks.Lock(lockIDs...)
	var evs []events.Event
	err := c.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		evs, err = fn(tx)
		return err
	})
	unlock()

	if err != nil {
		return c.fail(op, err)
	}
	c.bus.Publish(ctx, evs...)
	return nil
}

// fail turns err into a ledger error, logging the cause of internal ones.
func (c *core) fail(op string, err error) error {
	var le *Error
	if !errors.As(err, &le) {
		le = &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
	}
	if le.Kind == KindInternal {
		c.log.WithError(err).WithField("op", op).Error("ledger operation failed")
		return le
	}
	c.log.WithFields(logrus.Fields{"op": op, "code": le.Code}).Debug(le.Message)
	return le
}

func (c *core) audit(ctx context.Context, tx store.Store, adminID, action, targetID, details string) error {
	entry := &models.AdminLog{
		AdminID:   adminID,
		Action:    action,
		TargetID:  targetID,
		Details:   details,
		CreatedAt: c.now(),
	}
	return storeErr(tx.AppendAdminLog(ctx, entry), "admin log")
}

// requireAdmin checks that adminID names an existing admin user.
func (c *core) requireAdmin(ctx context.Context, s store.Store, adminID string) error {
	if adminID == "" {
		return ErrNotAdmin
	}
	u, err := s.GetUser(ctx, adminID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotAdmin
	}
	if err != nil {
		return storeErr(err, "admin")
	}
	if !u.IsAdmin() || u.IsBlocked {
		return ErrNotAdmin
	}
	return nil
}

func (c *core) loadUser(ctx context.Context, s store.Store, id string) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (c *core) loadWallet(ctx context.Context, s store.Store, userID string) (*models.Wallet, error) {
	w, err := s.GetWallet(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "wallet")
	}
	return w, nil
}

func (c *core) event(t events.Type, userID, title, message string) events.Event {
	return events.Event{Type: t, UserID: userID, Title: title, Message: message, At: c.now()}
}
