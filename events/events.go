// Package events carries committed ledger changes to side effects that must
// never roll back or block the money movement: notifications, metrics, logs.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Type string

const (
	UserRegistered       Type = "user.registered"
	KYCSubmitted         Type = "kyc.submitted"
	KYCDecided           Type = "kyc.decided"
	UserBlockChanged     Type = "user.block_changed"
	TransactionRequested Type = "transaction.requested"
	TransactionDecided   Type = "transaction.decided"
	ContractPurchased    Type = "contract.purchased"
	YieldApplied         Type = "contract.yield_applied"
	ContractMatured      Type = "contract.matured"
	ReferralBonusPaid    Type = "referral.bonus_paid"
	WalletAdjusted       Type = "wallet.adjusted"
	Broadcast            Type = "broadcast"
)

// Event describes one committed change. Title and Message, when set, are the
// notification shown to UserID (everyone when UserID is empty).
type Event struct {
	Type    Type
	UserID  string
	Title   string
	Message string
	Amount  decimal.Decimal
	Labels  map[string]string
	At      time.Time
}

func (e Event) Label(key string) string {
	return e.Labels[key]
}

type Listener interface {
	Handle(ctx context.Context, e Event) error
}

type ListenerFunc func(ctx context.Context, e Event) error

func (f ListenerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Bus delivers events to listeners synchronously and in subscription order.
// Listener errors and panics are logged and swallowed.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	log       *logrus.Logger
}

func NewBus(log *logrus.Logger) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{log: log}
}

func (b *Bus) Subscribe(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

func (b *Bus) Publish(ctx context.Context, events ...Event) {
	if b == nil || len(events) == 0 {
		return
	}
	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.RUnlock()

	for _, e := range events {
		for _, l := range listeners {
			if err := b.deliver(ctx, l, e); err != nil {
				b.log.WithError(err).WithFields(logrus.Fields{
					"event":   e.Type,
					"user_id": e.UserID,
				}).Warn("event listener failed")
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, l Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return l.Handle(ctx, e)
}
