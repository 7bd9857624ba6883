package models

import "github.com/golang-jwt/jwt/v5"

type UserClaimKey struct{}

// UserClaims is the bearer credential payload: subject is the user's email,
// MFA records whether the credential was minted after a completed challenge.
type UserClaims struct {
	MFA bool `json:"mfa"`
	jwt.RegisteredClaims
}

func (c UserClaims) Email() string { return c.Subject }
