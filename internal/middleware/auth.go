package middleware

import (
	"encoding/json"
	"net/http"

	"goods-be/internal/auth"
	"goods-be/internal/logger"
	"goods-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware attaches the token's principal to the request context.
// Requests without a token pass through anonymously; a token that fails
// verification is rejected.
func AuthMiddleware(tokens *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.ExtractAccessToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejected access token", zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"Status": false, "Error": "invalid or expired token"})
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.UserType)
			ctx = logger.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
