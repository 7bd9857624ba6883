package models

type RegisterBody struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

func (RegisterResponse) StatusCode() int { return 201 }

type LoginBody struct {
	Email    string `json:"email"     validate:"required,email,max=254"`
	Password string `json:"password"  validate:"required,max=72"`
	DeviceID string `json:"device_id" validate:"required,max=128"`
}

type LoginResponse struct {
	MFARequired bool   `json:"mfa_required"`
	AccessToken string `json:"access_token,omitempty"`
}

// StatusCode keeps the original contract: 202 while a challenge is pending,
// 200 once a credential is issued.
func (r LoginResponse) StatusCode() int {
	if r.MFARequired {
		return 202
	}
	return 200
}

type VerifyOTPBody struct {
	Email    string `json:"email"     validate:"required,email,max=254"`
	DeviceID string `json:"device_id" validate:"required,max=128"`
	OTP      string `json:"otp"       validate:"required,len=6,numeric"`
}

type VerifyOTPResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	DeviceSaved bool   `json:"device_saved"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type ChangePasswordBody struct {
	Email           string `json:"email"            validate:"required,email,max=254"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,max=72"`
}

type ChangePasswordResponse struct {
	Message string `json:"message"`
}

type DeleteUserResponse struct {
	Message               string `json:"message"`
	DeletedUsers          int64  `json:"deleted_users"`
	DeletedTrustedDevices int64  `json:"deleted_trusted_devices"`
	DeletedOTPLogs        int64  `json:"deleted_otp_logs"`
}
