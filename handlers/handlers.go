package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"growledger-go/config"
	"growledger-go/ledger"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/sirupsen/logrus"
)

// ErrorResponse represents a standardized error response
// Status: HTTP status code
// Error: Error message
// Code: stable machine-readable error code
// Details: Additional details about the error
// Timestamp: When the error occurred
type ErrorResponse struct {
	Status    int         `json:"status"`
	Error     string      `json:"error"`
	Code      string      `json:"code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func sendError(w http.ResponseWriter, status int, code, msg string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Status:    status,
		Error:     msg,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var kindStatus = map[ledger.Kind]int{
	ledger.KindNotFound:          http.StatusNotFound,
	ledger.KindInvalidInput:      http.StatusBadRequest,
	ledger.KindConflict:          http.StatusConflict,
	ledger.KindInsufficientFunds: http.StatusUnprocessableEntity,
	ledger.KindForbidden:         http.StatusForbidden,
	ledger.KindAlreadyProcessed:  http.StatusConflict,
	ledger.KindInternal:          http.StatusInternalServerError,
}

// sendLedgerError maps a ledger error onto the response. Internal causes
// are never exposed.
func sendLedgerError(w http.ResponseWriter, err error) {
	var le *ledger.Error
	if !errors.As(err, &le) {
		sendError(w, http.StatusInternalServerError, ledger.ErrInternal.Code, ledger.ErrInternal.Message, nil)
		return
	}
	status, ok := kindStatus[le.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	sendError(w, status, le.Code, le.Message, nil)
}

// decode reads a JSON body into dst and runs its validator tags.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		sendError(w, http.StatusBadRequest, ledger.ErrInvalidInput.Code, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		sendError(w, http.StatusBadRequest, ledger.ErrInvalidInput.Code, "Validation failed", utils.FormatValidationError(err))
		return false
	}
	return true
}

func pageFromQuery(r *http.Request) store.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit > 200 {
		limit = 200
	}
	return store.Page{Limit: limit, Offset: offset}
}

// Sweeper runs one global maturity sweep on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

type Handlers struct {
	ledger  *ledger.Ledger
	config  *config.Config
	sweeper Sweeper
	log     *logrus.Logger
}

func NewHandlers(l *ledger.Ledger, cfg *config.Config, sweeper Sweeper, log *logrus.Logger) *Handlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handlers{
		ledger:  l,
		config:  cfg,
		sweeper: sweeper,
		log:     log,
	}
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "GrowLedger",
		"version":   "1.0.0",
	})
}
