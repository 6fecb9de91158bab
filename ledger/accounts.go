package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"growledger-go/events"
	"growledger-go/models"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	referralCodeAttempts  = 10
	referralCodeDigits    = 4
	referralCodeMaxDigits = 8
)

// Accounts owns user lifecycle: registration, lookup, KYC and blocking, plus
// the wallet and notification reads of a user.
type Accounts struct {
	*core
}

type Registration struct {
	Name         string
	Email        string
	Phone        string
	ReferralCode string
	Admin        bool
}

// Register creates a user and its zero wallet atomically.
func (a *Accounts) Register(ctx context.Context, r Registration) (*models.User, error) {
	name := utils.SanitizeString(r.Name)
	email := strings.ToLower(utils.SanitizeString(r.Email))
	phone := utils.SanitizeString(r.Phone)
	referredBy := utils.NormalizeReferralCode(r.ReferralCode)

	if name == "" {
		return nil, a.fail("register", withMessage(ErrInvalidInput, "name is required"))
	}
	if email == "" && phone == "" {
		return nil, a.fail("register", withMessage(ErrInvalidInput, "email or phone is required"))
	}
	if email != "" && !utils.ValidateEmail(email) {
		return nil, a.fail("register", withMessage(ErrInvalidInput, "invalid email"))
	}
	if phone != "" && !utils.ValidatePhone(phone) {
		return nil, a.fail("register", withMessage(ErrInvalidInput, "invalid phone"))
	}

	var user *models.User
	err := a.mutate(ctx, "register", nil, func(tx store.Store) ([]events.Event, error) {
		if err := a.ensureContactFree(ctx, tx, email, phone); err != nil {
			return nil, err
		}

		if referredBy != "" {
			if _, err := tx.GetUserByReferralCode(ctx, referredBy); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil, ErrUnknownReferral
				}
				return nil, storeErr(err, "referrer")
			}
		}

		code, err := a.newReferralCode(ctx, tx, name, referredBy)
		if err != nil {
			return nil, err
		}
		if referredBy != "" && referredBy == code {
			return nil, ErrSelfReferral
		}

		now := a.now()
		u := &models.User{
			Name:         name,
			Role:         models.RoleUser,
			ReferralCode: code,
			KYCStatus:    models.KYCNone,
			CreatedAt:    now,
		}
		if r.Admin {
			u.Role = models.RoleAdmin
		}
		if email != "" {
			u.Email = &email
		}
		if phone != "" {
			u.Phone = &phone
		}
		if referredBy != "" {
			u.ReferredBy = &referredBy
		}

		if err := tx.CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, ErrDuplicateContact
			}
			return nil, storeErr(err, "user")
		}
		w := &models.Wallet{
			UserID:                u.ID,
			Balance:               decimal.Zero,
			TotalProfit:           decimal.Zero,
			TotalPartnershipBonus: decimal.Zero,
			CreatedAt:             now,
		}
		if err := tx.CreateWallet(ctx, w); err != nil {
			return nil, storeErr(err, "wallet")
		}

		user = u
		e := a.event(events.UserRegistered, u.ID, "", "")
		e.Labels = map[string]string{"role": u.Role, "referred": fmt.Sprint(u.ReferredBy != nil)}
		return []events.Event{e}, nil
	})
	if err != nil {
		return nil, err
	}

	a.log.WithFields(logrus.Fields{
		"user_id":       user.ID,
		"referral_code": user.ReferralCode,
		"role":          user.Role,
	}).Info("user registered")
	return user, nil
}

func (a *Accounts) ensureContactFree(ctx context.Context, s store.Store, email, phone string) error {
	if email != "" {
		if _, err := s.GetUserByEmail(ctx, email); err == nil {
			return ErrDuplicateContact
		} else if !errors.Is(err, store.ErrNotFound) {
			return storeErr(err, "user")
		}
	}
	if phone != "" {
		if _, err := s.GetUserByPhone(ctx, phone); err == nil {
			return ErrDuplicateContact
		} else if !errors.Is(err, store.ErrNotFound) {
			return storeErr(err, "user")
		}
	}
	return nil
}

// newReferralCode widens the numeric suffix after each round of collisions.
// Names without Latin letters all share the XXX prefix.
func (a *Accounts) newReferralCode(ctx context.Context, s store.Store, name, avoid string) (string, error) {
	for digits := referralCodeDigits; digits <= referralCodeMaxDigits; digits += 2 {
		for i := 0; i < referralCodeAttempts; i++ {
			code, err := utils.NewReferralCode(name, digits)
			if err != nil {
				return "", err
			}
			if code == avoid {
				continue
			}
			exists, err := s.ReferralCodeExists(ctx, code)
			if err != nil {
				return "", storeErr(err, "referral code")
			}
			if !exists {
				return code, nil
			}
		}
		a.log.WithFields(logrus.Fields{"name": name, "digits": digits}).Warn("referral code space crowded, widening suffix")
	}
	return "", fmt.Errorf("no free referral code for %q up to %d digits", name, referralCodeMaxDigits)
}

// Login resolves a user by email or phone. Blocked users are refused.
func (a *Accounts) Login(ctx context.Context, contact string) (*models.User, error) {
	contact = utils.SanitizeString(contact)

	var (
		u   *models.User
		err error
	)
	switch utils.DetectContact(contact) {
	case utils.ContactEmail:
		u, err = a.store.GetUserByEmail(ctx, strings.ToLower(contact))
	case utils.ContactPhone:
		u, err = a.store.GetUserByPhone(ctx, contact)
	default:
		return nil, a.fail("login", withMessage(ErrInvalidInput, "invalid email or phone"))
	}
	if err != nil {
		return nil, a.fail("login", storeErr(err, "user"))
	}
	if u.IsBlocked {
		return nil, a.fail("login", ErrAccountBlocked)
	}
	return u, nil
}

func (a *Accounts) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := a.loadUser(ctx, a.store, id)
	if err != nil {
		return nil, a.fail("get_user", err)
	}
	return u, nil
}

func (a *Accounts) ListUsers(ctx context.Context, page store.Page) ([]models.User, error) {
	users, err := a.store.ListUsers(ctx, page)
	if err != nil {
		return nil, a.fail("list_users", storeErr(err, "users"))
	}
	return users, nil
}

// GetWallet sweeps the user's matured contracts before reading, so principal
// past its end date is never reported as locked.
func (a *Accounts) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet *models.Wallet
	err := a.mutate(ctx, "get_wallet", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		evs, err := a.sweepUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		wallet, err = a.loadWallet(ctx, tx, userID)
		return evs, err
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// SubmitKYC records an identity submission and moves the user to pending.
func (a *Accounts) SubmitKYC(ctx context.Context, userID, documentURL, pan string) (*models.KYC, error) {
	documentURL = utils.SanitizeString(documentURL)
	pan = strings.ToUpper(utils.SanitizeString(pan))
	if documentURL == "" {
		return nil, a.fail("submit_kyc", withMessage(ErrInvalidInput, "document reference is required"))
	}
	if pan != "" && !utils.ValidatePAN(pan) {
		return nil, a.fail("submit_kyc", withMessage(ErrInvalidInput, "invalid PAN format"))
	}
	if a.cipher == nil {
		return nil, a.fail("submit_kyc", errors.New("kyc cipher not configured"))
	}

	sealedDoc, err := a.cipher.Encrypt(documentURL)
	if err != nil {
		return nil, a.fail("submit_kyc", err)
	}
	sealedPAN, err := a.cipher.Encrypt(pan)
	if err != nil {
		return nil, a.fail("submit_kyc", err)
	}

	var kyc *models.KYC
	err = a.mutate(ctx, "submit_kyc", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		u, err := a.loadUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if u.KYCStatus == models.KYCPending || u.KYCStatus == models.KYCVerified {
			return nil, ErrKYCInProgress
		}

		k, err := tx.GetKYC(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			k = &models.KYC{UserID: userID, CreatedAt: a.now()}
		} else if err != nil {
			return nil, storeErr(err, "kyc")
		}
		k.DocumentRef = sealedDoc
		k.PAN = sealedPAN
		k.Status = models.KYCPending
		k.RejectionReason = ""
		k.ReviewedBy = ""
		k.ReviewedAt = nil
		if err := tx.SaveKYC(ctx, k); err != nil {
			return nil, storeErr(err, "kyc")
		}

		u.KYCStatus = models.KYCPending
		if err := tx.SaveUser(ctx, u); err != nil {
			return nil, storeErr(err, "user")
		}
		kyc = k
		return []events.Event{a.event(events.KYCSubmitted, userID, "", "")}, nil
	})
	if err != nil {
		return nil, err
	}
	return kyc, nil
}

// KYCDocument returns the decrypted document reference for review.
func (a *Accounts) KYCDocument(ctx context.Context, userID string) (string, error) {
	k, err := a.store.GetKYC(ctx, userID)
	if err != nil {
		return "", a.fail("kyc_document", storeErr(err, "kyc submission"))
	}
	if a.cipher == nil {
		return "", a.fail("kyc_document", errors.New("kyc cipher not configured"))
	}
	doc, err := a.cipher.Decrypt(k.DocumentRef)
	if err != nil {
		return "", a.fail("kyc_document", err)
	}
	return doc, nil
}

// DecideKYC settles a pending submission exactly once.
func (a *Accounts) DecideKYC(ctx context.Context, adminID, userID, status, reason string) (*models.User, error) {
	if status != models.KYCVerified && status != models.KYCRejected {
		return nil, a.fail("decide_kyc", withMessage(ErrInvalidInput, "status must be verified or rejected"))
	}

	var user *models.User
	err := a.mutate(ctx, "decide_kyc", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		if err := a.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		u, err := a.loadUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		k, err := tx.GetKYC(ctx, userID)
		if err != nil {
			return nil, storeErr(err, "kyc submission")
		}
		if k.Status != models.KYCPending {
			return nil, ErrAlreadyProcessed
		}

		now := a.now()
		k.Status = status
		k.ReviewedBy = adminID
		k.ReviewedAt = &now
		if status == models.KYCRejected {
			k.RejectionReason = utils.SanitizeString(reason)
		}
		if err := tx.SaveKYC(ctx, k); err != nil {
			return nil, storeErr(err, "kyc")
		}
		u.KYCStatus = status
		if err := tx.SaveUser(ctx, u); err != nil {
			return nil, storeErr(err, "user")
		}
		if err := a.audit(ctx, tx, adminID, "KYC Update", userID, status); err != nil {
			return nil, err
		}

		user = u
		e := a.event(events.KYCDecided, userID, "KYC Update",
			fmt.Sprintf("Your identity verification was %s.", status))
		e.Labels = map[string]string{"status": status}
		return []events.Event{e}, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Accounts) SetBlocked(ctx context.Context, adminID, userID string, blocked bool) (*models.User, error) {
	var user *models.User
	err := a.mutate(ctx, "set_blocked", []string{userID}, func(tx store.Store) ([]events.Event, error) {
		if err := a.requireAdmin(ctx, tx, adminID); err != nil {
			return nil, err
		}
		u, err := a.loadUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if u.ID == adminID {
			return nil, withMessage(ErrInvalidInput, "admins cannot block themselves")
		}
		u.IsBlocked = blocked
		if err := tx.SaveUser(ctx, u); err != nil {
			return nil, storeErr(err, "user")
		}
		action := "Unblock User"
		if blocked {
			action = "Block User"
		}
		if err := a.audit(ctx, tx, adminID, action, userID, ""); err != nil {
			return nil, err
		}
		user = u
		e := a.event(events.UserBlockChanged, userID, "", "")
		e.Labels = map[string]string{"blocked": fmt.Sprint(blocked)}
		return []events.Event{e}, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *Accounts) ListNotifications(ctx context.Context, userID string, page store.Page) ([]models.Notification, error) {
	out, err := a.store.ListNotifications(ctx, userID, page)
	if err != nil {
		return nil, a.fail("list_notifications", storeErr(err, "notifications"))
	}
	return out, nil
}

func (a *Accounts) MarkNotificationRead(ctx context.Context, userID string, id uint) error {
	if err := a.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return a.fail("mark_notification_read", storeErr(err, "notification"))
	}
	return nil
}
