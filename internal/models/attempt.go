package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginAttempt is owned by the Risk Scorer. One row per password
// verification, keyed by the event id the Authenticator generated; immutable
// once written.
type LoginAttempt struct {
	EventID       uuid.UUID  `gorm:"type:uuid;primarykey"                   json:"event_id"`
	UserID        *uuid.UUID `gorm:"type:uuid"                              json:"user_id"`
	Email         string     `gorm:"not null;index:idx_attempts_email_time" json:"email"`
	IPAddress     string     `gorm:"not null"                               json:"ip_address"`
	UserAgent     string     `                                              json:"user_agent"`
	Country       string     `                                              json:"country"`
	Region        string     `                                              json:"region"`
	City          string     `                                              json:"city"`
	Timestamp     time.Time  `gorm:"not null;index:idx_attempts_email_time,sort:desc" json:"timestamp"`
	WasSuccessful bool       `gorm:"not null"                               json:"was_successful"`
	RiskScore     int        `gorm:"not null"                               json:"risk_score"`
}

// LoginAttemptEnvelope is the wire form of an attempt before it is scored:
// the body of `POST /predict` and the payload of `login.attempted`. The
// event id is assigned by the Authenticator before first publication.
type LoginAttemptEnvelope struct {
	EventID       uuid.UUID  `json:"event_id"       validate:"required"`
	UserID        *uuid.UUID `json:"user_id"`
	Email         string     `json:"email"          validate:"required,email,max=254"`
	IPAddress     string     `json:"ip_address"     validate:"required"`
	DeviceID      string     `json:"device_id"`
	UserAgent     string     `json:"user_agent"`
	Country       string     `json:"country"`
	Region        string     `json:"region"`
	City          string     `json:"city"`
	Timestamp     time.Time  `json:"timestamp"      validate:"required"`
	WasSuccessful bool       `json:"was_successful"`
}

func (e LoginAttemptEnvelope) ToAttempt(score int) LoginAttempt {
	return LoginAttempt{
		EventID:       e.EventID,
		UserID:        e.UserID,
		Email:         e.Email,
		IPAddress:     e.IPAddress,
		UserAgent:     e.UserAgent,
		Country:       e.Country,
		Region:        e.Region,
		City:          e.City,
		Timestamp:     e.Timestamp,
		WasSuccessful: e.WasSuccessful,
		RiskScore:     score,
	}
}
