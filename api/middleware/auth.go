package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/sione-id/backoffice-backend/api/responses"
	pkgauth "github.com/sione-id/backoffice-backend/pkg/auth"
	"github.com/sione-id/backoffice-backend/pkg/config"
	pkgerrors "github.com/sione-id/backoffice-backend/pkg/errors"
	"github.com/sione-id/backoffice-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			userID := strconv.FormatInt(claims.UserID, 10)
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxRole, claims.Role)
			if claims.PortfolioID != nil {
				ctx = context.WithValue(ctx, ctxPortfolioID, strconv.FormatInt(*claims.PortfolioID, 10))
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    userID,
					"actor_role": claims.Role,
				}
				if claims.PortfolioID != nil {
					fields["portfolio_id"] = *claims.PortfolioID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
