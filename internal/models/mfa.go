package models

import (
	"time"

	"github.com/google/uuid"
)

// TrustedDevice is owned by the MFA Arbiter. A device is trusted iff a row
// exists with expires_at in the future; rows are written only when the user
// completes a challenge on that device.
type TrustedDevice struct {
	ID        uint      `gorm:"primarykey"                              json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_trusted"    json:"user_id"`
	DeviceID  string    `gorm:"not null;index:idx_trusted"              json:"device_id"`
	UserAgent string    `                                               json:"user_agent"`
	IPAddress string    `                                               json:"ip_address"`
	CreatedAt time.Time `                                               json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index:idx_trusted"              json:"expires_at"`
}

type OTPStatus string

const (
	OTPStatusSent       OTPStatus = "sent"
	OTPStatusFailedSend OTPStatus = "failed-send"
	OTPStatusNotFound   OTPStatus = "not-found"
	OTPStatusInvalid    OTPStatus = "invalid"
	OTPStatusVerified   OTPStatus = "verified"
)

// OTPLog records one state transition of a challenge. The full set of rows
// for an event id reconstructs whether a historical success was actually
// completed via MFA.
type OTPLog struct {
	ID        uint      `gorm:"primarykey"              json:"-"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	Email     string    `gorm:"not null;index"           json:"email"`
	Status    OTPStatus `gorm:"type:varchar(16);not null" json:"status"`
	Error     string    `                                json:"error,omitempty"`
	Timestamp time.Time `gorm:"not null"                 json:"timestamp"`
}

// OTPChallenge is the cache-only record behind otp:{email}. One live
// challenge per email; a new issuance overwrites the previous one.
type OTPChallenge struct {
	OTP      string    `json:"otp"`
	EventID  uuid.UUID `json:"event_id"`
	DeviceID string    `json:"device_id"`
}
