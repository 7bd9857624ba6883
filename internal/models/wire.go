package models

import "github.com/google/uuid"

// Inter-service payloads. Every envelope carries the event id; a response
// echoing a different event id is a protocol error on the caller's side.

type RiskScoreData struct {
	EventID   uuid.UUID `json:"event_id"`
	RiskScore int       `json:"risk_score"`
	Persisted bool      `json:"persisted"`
}

type RiskScoreResponse struct {
	Message string        `json:"message"`
	Data    RiskScoreData `json:"data"`
}

type MFACheckBody struct {
	EventID   uuid.UUID `json:"event_id"   validate:"required"`
	UserID    uuid.UUID `json:"user_id"    validate:"required"`
	Email     string    `json:"email"      validate:"required,email,max=254"`
	DeviceID  string    `json:"device_id"  validate:"required,max=128"`
	RiskScore int       `json:"risk_score" validate:"gte=0,lte=100"`
}

type MFACheckData struct {
	EventID     uuid.UUID `json:"event_id"`
	MFARequired bool      `json:"mfa_required"`
}

type MFACheckResponse struct {
	Message string       `json:"message"`
	Data    MFACheckData `json:"data"`
}

func (r MFACheckResponse) StatusCode() int {
	if r.Data.MFARequired {
		return 202
	}
	return 200
}

type MFAVerifyBody struct {
	EventID   uuid.UUID `json:"event_id"   validate:"required"`
	UserID    uuid.UUID `json:"user_id"    validate:"required"`
	Email     string    `json:"email"      validate:"required,email,max=254"`
	DeviceID  string    `json:"device_id"  validate:"required,max=128"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	OTP       string    `json:"otp"        validate:"required,len=6,numeric"`
}

type MFAVerifyResponse struct {
	Message     string `json:"message"`
	DeviceSaved bool   `json:"device_saved"`
}

// OTPLogsResponse summarizes the Arbiter's log rows for one event id. The
// Risk Scorer classifies a historical success as verified when either no
// challenge was issued (HTTP 204, no body) or exactly one sent plus one
// verified row exist.
type OTPLogsResponse struct {
	SentLogsCount     int      `json:"sent_logs_count"`
	VerifiedLogsCount int      `json:"verified_logs_count"`
	Logs              []OTPLog `json:"logs"`
}

type DeletedRowsResponse struct {
	Message     string `json:"message"`
	DeletedRows int64  `json:"deleted_rows"`
}

type TrustedDevicesListResponse struct {
	Message string          `json:"message"`
	Data    []TrustedDevice `json:"data"`
}

type OTPLogsListResponse struct {
	Message string   `json:"message"`
	Data    []OTPLog `json:"data"`
}
