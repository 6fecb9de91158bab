package handlers

import (
	"net/http"

	"growledger-go/ledger"
	"growledger-go/middleware"
	"growledger-go/models"
	"growledger-go/utils"

	"github.com/sirupsen/logrus"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	isAdmin := false
	if req.AdminCode != "" {
		if req.AdminCode != h.config.AdminCode {
			h.log.WithField("name", req.Name).Warn("invalid admin code at registration")
			sendError(w, http.StatusBadRequest, ledger.ErrInvalidInput.Code, "Invalid admin code", nil)
			return
		}
		isAdmin = true
	}

	user, err := h.ledger.Accounts.Register(r.Context(), ledger.Registration{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
		Admin:        isAdmin,
	})
	if err != nil {
		sendLedgerError(w, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.log.WithError(err).Error("failed to issue token")
		sendError(w, http.StatusInternalServerError, ledger.ErrInternal.Code, "Failed to generate token", nil)
		return
	}
	sendJSON(w, http.StatusCreated, models.LoginResponse{Token: token, User: *user})
}

// Login resolves the user by email or phone; there are no passwords.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.ledger.Accounts.Login(r.Context(), req.Contact)
	if err != nil {
		sendLedgerError(w, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		h.log.WithError(err).Error("failed to issue token")
		sendError(w, http.StatusInternalServerError, ledger.ErrInternal.Code, "Failed to generate token", nil)
		return
	}

	h.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user logged in")
	sendJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: *user})
}

func (h *Handlers) DebugToken(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r)
	if claims == nil {
		sendError(w, http.StatusUnauthorized, "UNAUTHORIZED", "No user context found", nil)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":    claims.UserID,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt,
	})
}
