package handlers

import (
	"net/http"

	"growledger-go/middleware"
	"growledger-go/models"
)

func (h *Handlers) SubmitKYC(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}

	var req models.KYCRequest
	if !decode(w, r, &req) {
		return
	}

	kyc, err := h.ledger.Accounts.SubmitKYC(r.Context(), claims.UserID, req.DocumentURL, req.PAN)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "KYC submitted for review",
		"kyc":     kyc,
	})
}

func (h *Handlers) GetKYCStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	user, err := h.ledger.Accounts.GetUser(r.Context(), claims.UserID)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]string{"kyc_status": user.KYCStatus})
}
