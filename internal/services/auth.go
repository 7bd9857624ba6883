package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"riskgate/internal/cache"
	"riskgate/internal/clients"
	apierrors "riskgate/internal/errors"
	"riskgate/internal/events"
	"riskgate/internal/geolocation"
	"riskgate/internal/handlers"
	h "riskgate/internal/helpers"
	"riskgate/internal/messaging"
	m "riskgate/internal/middlewares"
	"riskgate/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService is the user-facing entrypoint. It owns the users table and the
// credential lifecycle; risk and challenge decisions are delegated downstream
// and correlated by the event id minted here.
type AuthService struct {
	DB         *gorm.DB
	Cache      cache.ICache
	AuthConfig models.AuthConfig
	Locator    geolocation.ILocator
	RiskClient clients.IRiskClient
	MFAClient  clients.IMFAClient
	Publisher  messaging.IPublisher
}

func (s AuthService) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(m.Validate[models.RegisterBody]).Post("/register", handlers.CreateHandler(s.Register))
	r.With(m.Validate[models.LoginBody]).Post("/login", handlers.CreateHandler(s.Login))
	r.With(m.Validate[models.VerifyOTPBody]).Post("/verify-otp", handlers.CreateHandler(s.VerifyOTP))

	r.Group(func(r chi.Router) {
		r.Use(m.Authenticate(s.AuthConfig, s.Cache))
		r.Post("/logout", handlers.GetHandler(s.Logout))
		r.Get("/current-user", handlers.GetHandler(s.CurrentUser))
		r.With(m.Validate[models.ChangePasswordBody]).
			Post("/change-password", handlers.CreateHandler(s.ChangePassword))
		r.Delete("/users/{email}", handlers.GetHandler(s.DeleteUser))
	})
	return r
}

func (s AuthService) Register(
	logger *zap.Logger,
	_ models.RequestContext,
	body models.RegisterBody,
) (models.RegisterResponse, error) {
	var existing int64
	if err := s.DB.Model(&models.User{}).
		Where("email = ?", body.Email).
		Count(&existing).Error; err != nil {
		return models.RegisterResponse{}, err
	}
	if existing > 0 {
		return models.RegisterResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrEmailExists)
	}

	hash, err := h.CreateHash(body.Password)
	if err != nil {
		return models.RegisterResponse{}, err
	}

	user := models.User{Email: body.Email, HashedPassword: hash, Role: models.RoleUser}
	if err = s.DB.Create(&user).Error; err != nil {
		return models.RegisterResponse{}, err
	}

	logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return models.RegisterResponse{Message: "User created"}, nil
}

func (s AuthService) Login(
	logger *zap.Logger,
	rctx models.RequestContext,
	body models.LoginBody,
) (models.LoginResponse, error) {
	eventID := uuid.New()
	logger = logger.With(zap.String("event_id", eventID.String()))

	geo := s.Locator.Lookup(rctx.ClientIP)
	envelope := models.LoginAttemptEnvelope{
		EventID:   eventID,
		Email:     body.Email,
		IPAddress: rctx.ClientIP,
		DeviceID:  body.DeviceID,
		UserAgent: rctx.UserAgent,
		Country:   geo.Country,
		Region:    geo.Region,
		City:      geo.City,
		Timestamp: time.Now().UTC(),
	}

	var user models.User
	result := s.DB.Where("email = ?", body.Email).First(&user)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.LoginResponse{}, result.Error
	}

	userKnown := result.Error == nil
	if userKnown {
		envelope.UserID = &user.ID
		envelope.WasSuccessful = h.ComparePassword(body.Password, user.HashedPassword)
	}

	if !envelope.WasSuccessful {
		events.NewLoginAttempted(s.Publisher, envelope).Trigger()
		logger.Info("Login rejected", zap.Bool("user_known", userKnown))
		return models.LoginResponse{}, apierrors.NewAPIError(
			http.StatusUnauthorized, apierrors.ErrInvalidCredentials)
	}

	ctx := context.Background()

	score, err := s.RiskClient.ScoreAttempt(ctx, envelope)
	if err != nil {
		return models.LoginResponse{}, err
	}

	check, err := s.MFAClient.Check(ctx, models.MFACheckBody{
		EventID:   eventID,
		UserID:    user.ID,
		Email:     body.Email,
		DeviceID:  body.DeviceID,
		RiskScore: score.RiskScore,
	})
	if err != nil {
		return models.LoginResponse{}, err
	}

	events.NewLoginAttempted(s.Publisher, envelope).Trigger()

	if check.MFARequired {
		if err = s.Cache.SetPendingChallenge(body.Email, eventID); err != nil {
			// Without the pending key the OTP can never be redeemed.
			logger.Error("Failed to store pending challenge", zap.Error(err))
			return models.LoginResponse{}, apierrors.NewAPIError(
				http.StatusInternalServerError, apierrors.ErrInternal)
		}
		logger.Info("Challenge pending", zap.Int("risk_score", score.RiskScore))
		return models.LoginResponse{MFARequired: true}, nil
	}

	token, err := h.NewAccessToken(s.AuthConfig, body.Email, false)
	if err != nil {
		return models.LoginResponse{}, err
	}

	logger.Info("Login accepted", zap.Int("risk_score", score.RiskScore))
	return models.LoginResponse{AccessToken: token}, nil
}

func (s AuthService) VerifyOTP(
	logger *zap.Logger,
	rctx models.RequestContext,
	body models.VerifyOTPBody,
) (models.VerifyOTPResponse, error) {
	eventID, found, err := s.Cache.GetPendingChallenge(body.Email)
	if err != nil {
		return models.VerifyOTPResponse{}, err
	}
	if !found {
		return models.VerifyOTPResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrNoPendingChallenge)
	}

	var user models.User
	if err = s.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.VerifyOTPResponse{}, apierrors.NewAPIError(
				http.StatusNotFound, apierrors.ErrUserNotFound)
		}
		return models.VerifyOTPResponse{}, err
	}

	result, err := s.MFAClient.Verify(context.Background(), models.MFAVerifyBody{
		EventID:   eventID,
		UserID:    user.ID,
		Email:     body.Email,
		DeviceID:  body.DeviceID,
		UserAgent: rctx.UserAgent,
		IPAddress: rctx.ClientIP,
		OTP:       body.OTP,
	})
	if err != nil {
		// The arbiter burns the challenge on any definitive outcome, so the
		// pending key is stale; keep it only if the arbiter was unreachable.
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) && apiErr.Status != http.StatusBadGateway {
			_ = s.Cache.DeletePendingChallenge(body.Email)
		}
		return models.VerifyOTPResponse{}, err
	}

	_ = s.Cache.DeletePendingChallenge(body.Email)

	token, err := h.NewAccessToken(s.AuthConfig, body.Email, true)
	if err != nil {
		return models.VerifyOTPResponse{}, err
	}

	logger.Info("Challenge completed",
		zap.String("event_id", eventID.String()),
		zap.Bool("device_saved", result.DeviceSaved))
	return models.VerifyOTPResponse{
		Message:     "OTP verified",
		AccessToken: token,
		DeviceSaved: result.DeviceSaved,
	}, nil
}

func (s AuthService) Logout(
	logger *zap.Logger,
	rctx models.RequestContext,
) (models.LogoutResponse, error) {
	if ttl := h.TokenRemainingLifetime(rctx.Claims); ttl > 0 {
		if err := s.Cache.BlacklistToken(rctx.Bearer, ttl); err != nil {
			return models.LogoutResponse{}, err
		}
	}

	logger.Info("Session revoked", zap.String("email", rctx.Claims.Email()))
	return models.LogoutResponse{Message: "Logged out"}, nil
}

func (s AuthService) CurrentUser(
	_ *zap.Logger,
	rctx models.RequestContext,
) (models.CurrentUserResponse, error) {
	var user models.User
	if err := s.DB.Where("email = ?", rctx.Claims.Email()).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CurrentUserResponse{}, apierrors.NewAPIError(
				http.StatusNotFound, apierrors.ErrUserNotFound)
		}
		return models.CurrentUserResponse{}, err
	}

	return user.ToCurrentUser(), nil
}

func (s AuthService) ChangePassword(
	logger *zap.Logger,
	rctx models.RequestContext,
	body models.ChangePasswordBody,
) (models.ChangePasswordResponse, error) {
	if body.NewPassword != body.ConfirmPassword {
		return models.ChangePasswordResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrPasswordMismatch)
	}

	if rctx.Claims.Email() != body.Email {
		return models.ChangePasswordResponse{}, apierrors.NewAPIError(
			http.StatusForbidden, "FORBIDDEN")
	}

	var user models.User
	if err := s.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ChangePasswordResponse{}, apierrors.NewAPIError(
				http.StatusNotFound, apierrors.ErrUserNotFound)
		}
		return models.ChangePasswordResponse{}, err
	}

	hash, err := h.CreateHash(body.NewPassword)
	if err != nil {
		return models.ChangePasswordResponse{}, err
	}

	if err = s.DB.Model(&user).Update("hashed_password", hash).Error; err != nil {
		return models.ChangePasswordResponse{}, err
	}

	logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return models.ChangePasswordResponse{Message: "Password updated"}, nil
}

// DeleteUser cascades best-effort: the arbiter's rows go first so a failure
// there leaves the account intact and the operation retryable.
func (s AuthService) DeleteUser(
	logger *zap.Logger,
	rctx models.RequestContext,
) (models.DeleteUserResponse, error) {
	email := rctx.PathParams["email"]
	if email == "" {
		return models.DeleteUserResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrValidation)
	}

	if rctx.Claims.Email() != email {
		return models.DeleteUserResponse{}, apierrors.NewAPIError(
			http.StatusForbidden, "FORBIDDEN")
	}

	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DeleteUserResponse{}, apierrors.NewAPIError(
				http.StatusNotFound, apierrors.ErrUserNotFound)
		}
		return models.DeleteUserResponse{}, err
	}

	ctx := context.Background()

	devices, err := s.MFAClient.DeleteTrustedDevices(ctx, user.ID)
	if err != nil {
		return models.DeleteUserResponse{}, err
	}

	logs, err := s.MFAClient.DeleteOTPLogs(ctx, email)
	if err != nil {
		return models.DeleteUserResponse{}, err
	}

	result := s.DB.Where("email = ?", email).Delete(&models.User{})
	if result.Error != nil {
		return models.DeleteUserResponse{}, result.Error
	}

	logger.Info("User deleted",
		zap.String("user_id", user.ID.String()),
		zap.Int64("trusted_devices", devices),
		zap.Int64("otp_logs", logs))
	return models.DeleteUserResponse{
		Message:               "User deleted",
		DeletedUsers:          result.RowsAffected,
		DeletedTrustedDevices: devices,
		DeletedOTPLogs:        logs,
	}, nil
}
