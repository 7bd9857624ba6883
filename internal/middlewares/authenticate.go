package middlewares

import (
	"context"
	"errors"
	"net/http"

	"riskgate/internal/cache"
	apierrors "riskgate/internal/errors"
	"riskgate/internal/helpers"
	"riskgate/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Authenticate guards a route with the bearer token: signature, expiry,
// issuer, then the revocation blacklist. A cache outage degrades to skipping
// the revocation check rather than locking every session out.
func Authenticate(config models.AuthConfig, store cache.ICache) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			claims, err := helpers.ParseAccessToken(config, header, true)
			if err != nil {
				code := apierrors.ErrTokenInvalid
				if errors.Is(err, jwt.ErrTokenExpired) {
					code = apierrors.ErrTokenExpired
				}
				helpers.RespondWithError(w, http.StatusUnauthorized, []string{code})
				return
			}

			token := helpers.StripBearer(header)
			blacklisted, err := store.IsTokenBlacklisted(token)
			if err != nil {
				zap.L().Warn("Blacklist check failed, skipping", zap.Error(err))
			}
			if blacklisted {
				helpers.RespondWithError(w, http.StatusUnauthorized,
					[]string{apierrors.ErrTokenRevoked})
				return
			}

			ctx := context.WithValue(r.Context(), models.UserClaimKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}
