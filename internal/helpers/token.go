package helpers

import (
	"errors"
	"strings"
	"time"

	"riskgate/internal/configuration"
	"riskgate/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var signingMethods = map[string]jwt.SigningMethod{
	"HS256": jwt.SigningMethodHS256,
	"HS384": jwt.SigningMethodHS384,
	"HS512": jwt.SigningMethodHS512,
}

// NewAccessToken mints the bearer credential: sub is the user's email, mfa
// records whether a challenge was completed for this session.
func NewAccessToken(config models.AuthConfig, email string, mfa bool) (string, error) {
	now := time.Now()
	claims := models.UserClaims{
		MFA: mfa,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    configuration.AppName,
			IssuedAt:  &jwt.NumericDate{Time: now},
			ExpiresAt: &jwt.NumericDate{Time: now.Add(time.Minute * time.Duration(config.AccessTokenExpiry))},
		},
	}

	method, ok := signingMethods[config.JWTAlgorithm]
	if !ok {
		return "", errors.New("unsupported signing algorithm")
	}

	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// ParseAccessToken validates signature, expiry and issuer. The requireBearer
// parameter controls whether the "Bearer " prefix is expected on the input.
func ParseAccessToken(config models.AuthConfig, tokenString string, requireBearer bool) (models.UserClaims, error) {
	if requireBearer {
		if !strings.HasPrefix(tokenString, "Bearer ") {
			return models.UserClaims{}, jwt.ErrTokenMalformed
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	}

	claims := &models.UserClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{config.JWTAlgorithm}),
		jwt.WithIssuer(configuration.AppName),
	)
	if err != nil {
		return models.UserClaims{}, err
	}

	return *claims, nil
}

// StripBearer returns the raw token without the scheme prefix; the raw token
// string is the blacklist cache key.
func StripBearer(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}

// TokenRemainingLifetime is how long a parsed token stays valid; zero or
// negative means it already expired.
func TokenRemainingLifetime(claims models.UserClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
