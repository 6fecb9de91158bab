package ledger

import (
	"errors"
	"fmt"

	"growledger-go/store"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindForbidden         Kind = "forbidden"
	KindAlreadyProcessed  Kind = "already_processed"
	KindInternal          Kind = "internal"
)

// Error is the structured failure every ledger operation returns. Code is
// stable and safe to show; Err is kept for logs only.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code, so a detailed error still satisfies errors.Is against
// its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrNotFound            = newError(KindNotFound, "NOT_FOUND", "resource not found")
	ErrInvalidInput        = newError(KindInvalidInput, "INVALID_INPUT", "invalid input")
	ErrInvalidAmount       = newError(KindInvalidInput, "INVALID_AMOUNT", "amount must be a positive value with at most 2 decimals")
	ErrBelowMinimum        = newError(KindInvalidInput, "BELOW_MINIMUM", "amount is below the minimum withdrawal")
	ErrUnknownReferral     = newError(KindInvalidInput, "UNKNOWN_REFERRAL_CODE", "referral code does not exist")
	ErrDuplicateContact    = newError(KindConflict, "DUPLICATE_CONTACT", "user already exists")
	ErrSelfReferral        = newError(KindConflict, "SELF_REFERRAL", "cannot refer yourself")
	ErrPlanClosed          = newError(KindConflict, "PLAN_CLOSED", "plan is closed")
	ErrNotActive           = newError(KindConflict, "NOT_ACTIVE", "contract is not active")
	ErrKYCInProgress       = newError(KindConflict, "KYC_IN_PROGRESS", "identity verification already submitted")
	ErrInsufficientBalance = newError(KindInsufficientFunds, "INSUFFICIENT_BALANCE", "insufficient INR balance")
	ErrAccountBlocked      = newError(KindForbidden, "ACCOUNT_BLOCKED", "account is blocked")
	ErrNotAdmin            = newError(KindForbidden, "ADMIN_REQUIRED", "admin privileges required")
	ErrAlreadyProcessed    = newError(KindAlreadyProcessed, "ALREADY_PROCESSED", "already processed")
	ErrInternal            = newError(KindInternal, "INTERNAL", "internal server error")
)

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: ErrNotFound.Code, Message: what + " not found"}
}

func withMessage(base *Error, msg string) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: msg}
}

// storeErr converts a store failure. Missing rows become NotFound for what;
// anything else is internal and keeps the cause for logging.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return &Error{Kind: KindInternal, Code: ErrInternal.Code, Message: ErrInternal.Message, Err: err}
}

// KindOf reports the kind of err, treating unknown errors as internal.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}
