package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"growledger-go/utils"

	"github.com/sirupsen/logrus"
)

type contextKey string

const UserContextKey contextKey = "user"

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"error":  msg,
	})
}

func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logrus.WithField("path", r.URL.Path).Debug("no authorization header")
			writeJSONError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			writeJSONError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(bearerToken[1])
		if err != nil {
			logrus.WithError(err).WithField("path", r.URL.Path).Debug("token validation failed")
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminAuth must run after JWTAuth. The ledger re-checks the admin role
// against the store, so a stale token cannot outlive a demotion.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		if claims == nil {
			writeJSONError(w, http.StatusUnauthorized, "Unauthorized - No user context")
			return
		}
		if !claims.IsAdmin() {
			logrus.WithFields(logrus.Fields{
				"user_id": claims.UserID,
				"path":    r.URL.Path,
			}).Warn("non-admin attempted admin endpoint")
			writeJSONError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(r *http.Request) *utils.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*utils.Claims); ok {
		return claims
	}
	return nil
}
