// Package store is the durable ledger: users, wallets, plans, contracts,
// transactions, commissions, notifications and the admin log.
package store

import (
	"context"
	"errors"
	"time"

	"growledger-go/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Page struct {
	Limit  int
	Offset int
}

type TransactionFilter struct {
	UserID string
	Type   string
	Status string
	Page
}

type ContractFilter struct {
	UserID string
	Status string
	Page
}

// Store is implemented by GormStore. Transaction runs fn against a store
// bound to one database transaction; fn returning an error rolls back.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, page Page) ([]models.User, error)
	ListReferrals(ctx context.Context, code string) ([]models.User, error)
	CountReferrals(ctx context.Context, code string) (int64, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)

	CreateWallet(ctx context.Context, w *models.Wallet) error
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	SaveWallet(ctx context.Context, w *models.Wallet) error

	GetKYC(ctx context.Context, userID string) (*models.KYC, error)
	SaveKYC(ctx context.Context, k *models.KYC) error

	CreatePlan(ctx context.Context, p *models.Plan) error
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
	SavePlan(ctx context.Context, p *models.Plan) error
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)

	CreateContract(ctx context.Context, c *models.Contract) error
	GetContract(ctx context.Context, id string) (*models.Contract, error)
	SaveContractProfit(ctx context.Context, c *models.Contract) error
	CompleteContract(ctx context.Context, id string, at time.Time) (bool, error)
	ListContracts(ctx context.Context, f ContractFilter) ([]models.Contract, error)
	ActiveContractOwners(ctx context.Context) ([]string, error)
	CreateGrowthLog(ctx context.Context, g *models.GrowthLog) error
	ListGrowthLogs(ctx context.Context, contractID string) ([]models.GrowthLog, error)

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	DecideTransaction(ctx context.Context, id, status, adminID string, at time.Time) (bool, error)
	ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error)
	CountApprovedDeposits(ctx context.Context, userID, excludeID string) (int64, error)

	CreateCommission(ctx context.Context, c *models.Commission) error
	ListCommissions(ctx context.Context, referrerID string) ([]models.Commission, error)

	AppendAdminLog(ctx context.Context, l *models.AdminLog) error
	ListAdminLogs(ctx context.Context, page Page) ([]models.AdminLog, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, page Page) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uint, userID string) error
}
