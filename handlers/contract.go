package handlers

import (
	"net/http"

	"growledger-go/ledger"
	"growledger-go/middleware"
	"growledger-go/models"

	"github.com/gorilla/mux"
)

func (h *Handlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.ledger.Plans.ListPlans(r.Context(), true)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, plans)
}

func (h *Handlers) BuyPlan(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.BuyPlanRequest
	if !decode(w, r, &req) {
		return
	}

	contract, err := h.ledger.Contracts.BuyPlan(r.Context(), claims.UserID, req.PlanID)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, contract)
}

func (h *Handlers) GetContracts(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	contracts, err := h.ledger.Contracts.ListContracts(r.Context(), claims.UserID, pageFromQuery(r))
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, contracts)
}

// GetGrowthLogs lists yield updates of a contract. Users only see their own.
func (h *Handlers) GetGrowthLogs(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	id := mux.Vars(r)["id"]

	contract, err := h.ledger.Contracts.GetContract(r.Context(), id)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	if contract.UserID != claims.UserID && !claims.IsAdmin() {
		sendLedgerError(w, ledger.ErrNotFound)
		return
	}
	logs, err := h.ledger.Contracts.GrowthLogs(r.Context(), id)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, logs)
}
