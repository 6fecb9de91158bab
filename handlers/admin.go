package handlers

import (
	"net/http"

	"growledger-go/ledger"
	"growledger-go/middleware"
	"growledger-go/models"
	"growledger-go/store"

	"github.com/gorilla/mux"
)

func (h *Handlers) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.Accounts.ListUsers(r.Context(), pageFromQuery(r))
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, users)
}

func (h *Handlers) SetBlocked(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.BlockRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.ledger.Accounts.SetBlocked(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Blocked)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

func (h *Handlers) VerifyKYC(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.KYCVerificationRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.ledger.Accounts.DecideKYC(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Status, req.RejectionReason)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, user)
}

func (h *Handlers) GetKYCDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ledger.Accounts.KYCDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"document_url": doc})
}

func (h *Handlers) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.ledger.Transactions.ListAllTransactions(r.Context(), store.TransactionFilter{
		UserID: q.Get("user_id"),
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, txs)
}

func (h *Handlers) DecideTransaction(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.DecisionRequest
	if !decode(w, r, &req) {
		return
	}
	txn, err := h.ledger.Transactions.Decide(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Status)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, txn)
}

func (h *Handlers) GetAllPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.ledger.Plans.ListPlans(r.Context(), false)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, plans)
}

func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.PlanInput
	if !decode(w, r, &req) {
		return
	}
	plan, err := h.ledger.Plans.CreatePlan(r.Context(), claims.UserID, req)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, plan)
}

func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.PlanUpdate
	if !decode(w, r, &req) {
		return
	}
	plan, err := h.ledger.Plans.UpdatePlan(r.Context(), claims.UserID, mux.Vars(r)["id"], req)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, plan)
}

func (h *Handlers) TogglePlan(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	plan, err := h.ledger.Plans.TogglePlan(r.Context(), claims.UserID, mux.Vars(r)["id"])
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, plan)
}

func (h *Handlers) GetAllContracts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contracts, err := h.ledger.Contracts.ListAllContracts(r.Context(), store.ContractFilter{
		UserID: q.Get("user_id"),
		Status: q.Get("status"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, contracts)
}

func (h *Handlers) ApplyYield(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.YieldRequest
	if !decode(w, r, &req) {
		return
	}
	contract, err := h.ledger.Contracts.ApplyYield(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Percentage)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, contract)
}

func (h *Handlers) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.AdjustWalletRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.ledger.Admin.AdjustWallet(r.Context(), claims.UserID, mux.Vars(r)["id"], req.Amount, req.Direction, req.Reason)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, wallet)
}

func (h *Handlers) GetAdminLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.ledger.Admin.ListAdminLogs(r.Context(), pageFromQuery(r))
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, logs)
}

func (h *Handlers) Broadcast(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.BroadcastRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.ledger.Admin.Broadcast(r.Context(), claims.UserID, req.Title, req.Message); err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]string{"message": "Broadcast sent"})
}

// Sweep settles matured contracts of every user now instead of waiting for
// the schedule.
func (h *Handlers) Sweep(w http.ResponseWriter, r *http.Request) {
	var (
		n   int
		err error
	)
	if h.sweeper != nil {
		n, err = h.sweeper.RunOnce(r.Context())
	} else {
		n, err = h.ledger.Contracts.SweepAll(r.Context())
	}
	if err != nil {
		h.log.WithError(err).Error("on-demand sweep failed")
		sendLedgerError(w, ledger.ErrInternal)
		return
	}
	sendJSON(w, http.StatusOK, map[string]int{"settled": n})
}
