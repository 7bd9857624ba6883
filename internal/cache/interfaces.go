package cache

import (
	"time"

	"riskgate/internal/models"

	"github.com/google/uuid"
)

// ICache is the key-value surface of one service. The Authenticator uses the
// geolocation, pending-challenge and blacklist groups; the MFA Arbiter uses
// the challenge and trusted-device groups. Every operation is bounded by a
// short deadline so a slow cache degrades, never hangs, a login.
type ICache interface {
	// Authenticator: geolocation results per IP, 30-day TTL.
	GetGeolocation(ip string) (*models.Geolocation, error)
	SetGeolocation(ip string, geo models.Geolocation) error

	// Authenticator: mfa:{email} -> event id while a challenge is pending.
	SetPendingChallenge(email string, eventID uuid.UUID) error
	GetPendingChallenge(email string) (uuid.UUID, bool, error)
	DeletePendingChallenge(email string) error

	// Authenticator: revoked bearer tokens, keyed by the token itself.
	BlacklistToken(token string, ttl time.Duration) error
	IsTokenBlacklisted(token string) (bool, error)

	// Arbiter: one live challenge per email; issuance overwrites.
	StoreOTPChallenge(email string, challenge models.OTPChallenge) error
	GetOTPChallenge(email string) (*models.OTPChallenge, error)
	DeleteOTPChallenge(email string) error

	// Arbiter: trust hints; a negative lookup falls back to the table.
	MarkDeviceTrusted(userID uuid.UUID, deviceID string, ttl time.Duration) error
	IsDeviceTrusted(userID uuid.UUID, deviceID string) (bool, error)
	InvalidateTrustedDevices(userID uuid.UUID) error

	Close() error
}
