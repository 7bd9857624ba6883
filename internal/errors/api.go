package apierrors

import "fmt"

// APIError carries the HTTP status and a stable machine-readable code that
// the handler layer serializes as {"errors":["CODE"]}.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

func NewAPIError(status int, code string) *APIError {
	return &APIError{Status: status, Code: code}
}

// HTTP 400 Bad Request.
const (
	ErrEmailExists        = "EMAIL_EXISTS"
	ErrNoPendingChallenge = "NO_PENDING_CHALLENGE"
	ErrPasswordMismatch   = "PASSWORD_MISMATCH"
	ErrValidation         = "VALIDATION_FAILED"
)

// HTTP 401 Unauthorized.
const (
	ErrInvalidCredentials = "INVALID_CREDENTIALS"
	ErrOTPInvalid         = "OTP_INVALID"
	ErrDeviceMismatch     = "DEVICE_MISMATCH"
	ErrEventMismatch      = "EVENT_MISMATCH"
	ErrTokenInvalid       = "TOKEN_INVALID"
	ErrTokenRevoked       = "TOKEN_REVOKED"
	ErrTokenExpired       = "TOKEN_EXPIRED"
)

// HTTP 404 Not Found.
const (
	ErrUserNotFound = "USER_NOT_FOUND"
	ErrOTPNotFound  = "OTP_NOT_FOUND"
)

// HTTP 5xx.
const (
	ErrOTPDispatchFailed     = "OTP_DISPATCH_FAILED"
	ErrInternal              = "INTERNAL_SERVER_ERROR"
	ErrUpstreamUnavailable   = "UPSTREAM_UNAVAILABLE"
	ErrUpstreamEventMismatch = "UPSTREAM_EVENT_MISMATCH"
)
