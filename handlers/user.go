package handlers

import (
	"net/http"
	"strconv"

	"growledger-go/ledger"
	"growledger-go/middleware"

	"github.com/gorilla/mux"
)

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
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
	wallet, err := h.ledger.Accounts.GetWallet(r.Context(), claims.UserID)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"wallet": wallet,
	})
}

// GetWallet settles matured contracts before answering.
func (h *Handlers) GetWallet(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	wallet, err := h.ledger.Accounts.GetWallet(r.Context(), claims.UserID)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, wallet)
}

func (h *Handlers) GetReferrals(w http.ResponseWriter, r *http.Request) {
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
	referrals, err := h.ledger.Referrals.ListReferrals(r.Context(), user.ReferralCode)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	tier := ledger.TierFor(int64(len(referrals)))
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"referral_code": user.ReferralCode,
		"tier":          tier.Name,
		"share":         tier.Share,
		"network_size":  len(referrals),
		"referrals":     referrals,
	})
}

func (h *Handlers) GetCommissions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	commissions, err := h.ledger.Referrals.ListCommissions(r.Context(), claims.UserID)
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, commissions)
}

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	notes, err := h.ledger.Accounts.ListNotifications(r.Context(), claims.UserID, pageFromQuery(r))
	if err != nil {
		sendLedgerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, notes)
}

func (h *Handlers) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, ledger.ErrInvalidInput.Code, "Invalid notification id", nil)
		return
	}
	if err := h.ledger.Accounts.MarkNotificationRead(r.Context(), claims.UserID, uint(id)); err != nil {
		sendLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
