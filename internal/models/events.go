package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event payloads. Delivery is at-least-once; consumers deduplicate by
// event id, which doubles as the message UUID on the bus.

// RiskScoredEvent is published on risk_events/risk.scored after scoring.
type RiskScoredEvent struct {
	EventID   uuid.UUID  `json:"event_id"`
	UserID    *uuid.UUID `json:"user_id"`
	Email     string     `json:"email"`
	DeviceID  string     `json:"device_id"`
	RiskScore int        `json:"risk_score"`
	Timestamp time.Time  `json:"timestamp"`
}

// MFACompletedEvent is published on mfa_events/mfa.completed after a
// challenge resolves, successfully or not.
type MFACompletedEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	UserID        uuid.UUID `json:"user_id"`
	Email         string    `json:"email"`
	DeviceID      string    `json:"device_id"`
	WasSuccessful bool      `json:"was_successful"`
	MFAMethod     string    `json:"mfa_method"`
	Timestamp     time.Time `json:"timestamp"`
}

// LoginAttemptEnvelope (attempt.go) is the payload of
// auth_events/login.attempted.
