package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"growledger-go/models"

	"gorm.io/gorm"
)

const defaultPageSize = 50

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

func paginate(db *gorm.DB, p Page) *gorm.DB {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return db.Limit(limit).Offset(offset)
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.conn(ctx).Create(u).Error, "create user")
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &u, nil
}

func (s *GormStore) findUser(ctx context.Context, column, value string) (*models.User, error) {
	var u models.User
	if err := s.conn(ctx).Where(column+" = ?", value).First(&u).Error; err != nil {
		return nil, translate(err, "find user by "+column)
	}
	return &u, nil
}

func (s *GormStore) GetUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.findUser(ctx, "referral_code", code)
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *GormStore) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findUser(ctx, "phone", phone)
}

func (s *GormStore) SaveUser(ctx context.Context, u *models.User) error {
	return translate(s.conn(ctx).Save(u).Error, "save user")
}

func (s *GormStore) ListUsers(ctx context.Context, page Page) ([]models.User, error) {
	var users []models.User
	err := paginate(s.conn(ctx).Order("created_at DESC"), page).Find(&users).Error
	return users, translate(err, "list users")
}

func (s *GormStore) ListReferrals(ctx context.Context, code string) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).Where("referred_by = ?", code).Order("created_at DESC").Find(&users).Error
	return users, translate(err, "list referrals")
}

func (s *GormStore) CountReferrals(ctx context.Context, code string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("referred_by = ?", code).Count(&n).Error
	return n, translate(err, "count referrals")
}

func (s *GormStore) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.User{}).Where("referral_code = ?", code).Count(&n).Error
	return n > 0, translate(err, "check referral code")
}

// Wallets

func (s *GormStore) CreateWallet(ctx context.Context, w *models.Wallet) error {
	return translate(s.conn(ctx).Create(w).Error, "create wallet")
}

func (s *GormStore) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.conn(ctx).First(&w, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "get wallet")
	}
	return &w, nil
}

func (s *GormStore) SaveWallet(ctx context.Context, w *models.Wallet) error {
	return translate(s.conn(ctx).Save(w).Error, "save wallet")
}

// KYC

func (s *GormStore) GetKYC(ctx context.Context, userID string) (*models.KYC, error) {
	var k models.KYC
	if err := s.conn(ctx).First(&k, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err, "get kyc")
	}
	return &k, nil
}

func (s *GormStore) SaveKYC(ctx context.Context, k *models.KYC) error {
	return translate(s.conn(ctx).Save(k).Error, "save kyc")
}

// Plans

func (s *GormStore) CreatePlan(ctx context.Context, p *models.Plan) error {
	return translate(s.conn(ctx).Create(p).Error, "create plan")
}

func (s *GormStore) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	var p models.Plan
	if err := s.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get plan")
	}
	return &p, nil
}

func (s *GormStore) SavePlan(ctx context.Context, p *models.Plan) error {
	return translate(s.conn(ctx).Save(p).Error, "save plan")
}

func (s *GormStore) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	var plans []models.Plan
	q := s.conn(ctx).Order("created_at ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return plans, translate(q.Find(&plans).Error, "list plans")
}

// Contracts

func (s *GormStore) CreateContract(ctx context.Context, c *models.Contract) error {
	return translate(s.conn(ctx).Create(c).Error, "create contract")
}

func (s *GormStore) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	var c models.Contract
	if err := s.conn(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get contract")
	}
	return &c, nil
}

// SaveContractProfit only touches an active contract; a completed contract's
// profit is final.
func (s *GormStore) SaveContractProfit(ctx context.Context, c *models.Contract) error {
	res := s.conn(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", c.ID, models.ContractActive).
		Updates(map[string]interface{}{
			"current_profit":     c.CurrentProfit,
			"last_growth_update": c.LastGrowthUpdate,
		})
	if res.Error != nil {
		return translate(res.Error, "save contract profit")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save contract profit: %w", ErrNotFound)
	}
	return nil
}

// CompleteContract flips an active contract to completed. It reports false
// when the contract was not active, so a payout happens at most once.
func (s *GormStore) CompleteContract(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.conn(ctx).Model(&models.Contract{}).
		Where("id = ? AND status = ?", id, models.ContractActive).
		Updates(map[string]interface{}{
			"status":       models.ContractCompleted,
			"completed_at": at,
		})
	if res.Error != nil {
		return false, translate(res.Error, "complete contract")
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListContracts(ctx context.Context, f ContractFilter) ([]models.Contract, error) {
	var contracts []models.Contract
	q := s.conn(ctx).Order("start_date DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = paginate(q, f.Page)
	}
	return contracts, translate(q.Find(&contracts).Error, "list contracts")
}

func (s *GormStore) ActiveContractOwners(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.conn(ctx).Model(&models.Contract{}).
		Where("status = ?", models.ContractActive).
		Distinct().Pluck("user_id", &ids).Error
	return ids, translate(err, "list contract owners")
}

func (s *GormStore) CreateGrowthLog(ctx context.Context, g *models.GrowthLog) error {
	return translate(s.conn(ctx).Create(g).Error, "create growth log")
}

func (s *GormStore) ListGrowthLogs(ctx context.Context, contractID string) ([]models.GrowthLog, error) {
	var logs []models.GrowthLog
	err := s.conn(ctx).Where("contract_id = ?", contractID).Order("id DESC").Find(&logs).Error
	return logs, translate(err, "list growth logs")
}

// Transactions

func (s *GormStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return translate(s.conn(ctx).Create(t).Error, "create transaction")
}

func (s *GormStore) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get transaction")
	}
	return &t, nil
}

// DecideTransaction moves a pending transaction to status. It reports false
// when the transaction had already left pending.
func (s *GormStore) DecideTransaction(ctx context.Context, id, status, adminID string, at time.Time) (bool, error) {
	res := s.conn(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TxPending).
		Updates(map[string]interface{}{
			"status":     status,
			"decided_by": adminID,
			"decided_at": at,
		})
	if res.Error != nil {
		return false, translate(res.Error, "decide transaction")
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) ListTransactions(ctx context.Context, f TransactionFilter) ([]models.Transaction, error) {
	var txs []models.Transaction
	q := s.conn(ctx).Order("created_at DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return txs, translate(paginate(q, f.Page).Find(&txs).Error, "list transactions")
}

func (s *GormStore) CountApprovedDeposits(ctx context.Context, userID, excludeID string) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&models.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ? AND id <> ?",
			userID, models.TxDeposit, models.TxApproved, excludeID).
		Count(&n).Error
	return n, translate(err, "count approved deposits")
}

// Commissions

func (s *GormStore) CreateCommission(ctx context.Context, c *models.Commission) error {
	return translate(s.conn(ctx).Create(c).Error, "create commission")
}

func (s *GormStore) ListCommissions(ctx context.Context, referrerID string) ([]models.Commission, error) {
	var out []models.Commission
	err := s.conn(ctx).Where("referrer_id = ?", referrerID).Order("id DESC").Find(&out).Error
	return out, translate(err, "list commissions")
}

// Admin log

func (s *GormStore) AppendAdminLog(ctx context.Context, l *models.AdminLog) error {
	return translate(s.conn(ctx).Create(l).Error, "append admin log")
}

func (s *GormStore) ListAdminLogs(ctx context.Context, page Page) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	err := paginate(s.conn(ctx).Order("id DESC"), page).Find(&logs).Error
	return logs, translate(err, "list admin logs")
}

// Notifications

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translate(s.conn(ctx).Create(n).Error, "create notification")
}

func (s *GormStore) ListNotifications(ctx context.Context, userID string, page Page) ([]models.Notification, error) {
	var out []models.Notification
	q := s.conn(ctx).Where("user_id = ? OR user_id IS NULL", userID).Order("id DESC")
	return out, translate(paginate(q, page).Find(&out).Error, "list notifications")
}

func (s *GormStore) MarkNotificationRead(ctx context.Context, id uint, userID string) error {
	res := s.conn(ctx).Model(&models.Notification{}).
		Where("id = ? AND (user_id = ? OR user_id IS NULL)", id, userID).
		Update("read", true)
	if res.Error != nil {
		return translate(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("mark notification read: %w", ErrNotFound)
	}
	return nil
}
