package handlers

import (
	"net/http"

	"growledger-go/middleware"

	"github.com/gorilla/mux"
)

// Routes registers the API on r.
func (h *Handlers) Routes(r *mux.Router) {
	// Public routes
	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/plans", h.ListPlans).Methods(http.MethodGet)

	// Protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuth)

	protected.HandleFunc("/debug/token", h.DebugToken).Methods(http.MethodGet)
	protected.HandleFunc("/user/profile", h.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/wallet", h.GetWallet).Methods(http.MethodGet)
	protected.HandleFunc("/referrals", h.GetReferrals).Methods(http.MethodGet)
	protected.HandleFunc("/referrals/commissions", h.GetCommissions).Methods(http.MethodGet)
	protected.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/{id:[0-9]+}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	protected.HandleFunc("/kyc/submit", h.SubmitKYC).Methods(http.MethodPost)
	protected.HandleFunc("/kyc/status", h.GetKYCStatus).Methods(http.MethodGet)

	protected.HandleFunc("/transactions", h.GetTransactions).Methods(http.MethodGet)
	protected.HandleFunc("/transactions/deposit", h.Deposit).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/withdraw", h.Withdraw).Methods(http.MethodPost)

	protected.HandleFunc("/contracts", h.GetContracts).Methods(http.MethodGet)
	protected.HandleFunc("/contracts", h.BuyPlan).Methods(http.MethodPost)
	protected.HandleFunc("/contracts/{id}/growth", h.GetGrowthLogs).Methods(http.MethodGet)

	// Admin routes
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth)
	admin.HandleFunc("/users", h.GetAllUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/block", h.SetBlocked).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/kyc", h.VerifyKYC).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/kyc/document", h.GetKYCDocument).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/wallet/adjust", h.AdjustWallet).Methods(http.MethodPost)
	admin.HandleFunc("/transactions", h.GetAllTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/transactions/{id}/decide", h.DecideTransaction).Methods(http.MethodPost)
	admin.HandleFunc("/plans", h.GetAllPlans).Methods(http.MethodGet)
	admin.HandleFunc("/plans", h.CreatePlan).Methods(http.MethodPost)
	admin.HandleFunc("/plans/{id}", h.UpdatePlan).Methods(http.MethodPatch)
	admin.HandleFunc("/plans/{id}/toggle", h.TogglePlan).Methods(http.MethodPost)
	admin.HandleFunc("/contracts", h.GetAllContracts).Methods(http.MethodGet)
	admin.HandleFunc("/contracts/{id}/yield", h.ApplyYield).Methods(http.MethodPost)
	admin.HandleFunc("/logs", h.GetAdminLogs).Methods(http.MethodGet)
	admin.HandleFunc("/broadcast", h.Broadcast).Methods(http.MethodPost)
	admin.HandleFunc("/sweep", h.Sweep).Methods(http.MethodPost)
}
