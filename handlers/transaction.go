package handlers

import (
	"net/http"

	"growledger-go/ledger"
	"growledger-go/middleware"
	"growledger-go/models"
)

func (h *Handlers) GetTransactions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	txs, err := h.ledger.Transactions.ListTransactions(r.Context(), claims.UserID, pageFromQuery(r))
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, txs)
}

// Deposit files a pending deposit with its payment proof. The wallet is
// credited only when an admin approves it.
func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.DepositRequest
	if !decode(w, r, &req) {
		return
	}

	txn, err := h.ledger.Transactions.RequestDeposit(r.Context(), ledger.DepositInput{
		UserID:    claims.UserID,
		Amount:    req.Amount,
		Method:    req.Method,
		ProofURL:  req.ProofURL,
		Reference: req.Reference,
	})
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, txn)
}

func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.WithdrawalRequest
	if !decode(w, r, &req) {
		return
	}

	txn, err := h.ledger.Transactions.RequestWithdrawal(r.Context(), ledger.WithdrawalInput{
		UserID:      claims.UserID,
		Amount:      req.Amount,
		Method:      req.Method,
		Destination: req.Destination,
	})
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, txn)
}
