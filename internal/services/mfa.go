package services

import (
	"net/http"
	"strconv"
	"time"

	"riskgate/internal/cache"
	"riskgate/internal/configuration"
	apierrors "riskgate/internal/errors"
	"riskgate/internal/events"
	"riskgate/internal/handlers"
	h "riskgate/internal/helpers"
	"riskgate/internal/messaging"
	m "riskgate/internal/middlewares"
	"riskgate/internal/models"
	"riskgate/internal/notifier"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MFAService owns the trusted_devices and otp_logs tables plus the live
// challenge cache. It decides whether a scored login needs a second factor
// and adjudicates the submitted code.
type MFAService struct {
	DB            *gorm.DB
	Cache         cache.ICache
	Notifier      notifier.INotifier
	Publisher     messaging.IPublisher
	RiskThreshold int
}

func (s MFAService) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(m.Validate[models.MFACheckBody]).Post("/check", handlers.CreateHandler(s.Check))
	r.With(m.Validate[models.MFAVerifyBody]).Post("/verify", handlers.CreateHandler(s.Verify))

	r.Route("/otp-logs", func(r chi.Router) {
		r.Get("/email/{email}", handlers.GetHandler(s.ListOTPLogs))
		r.Get("/{event_id}", handlers.NoContentHandler(s.GetOTPLogs))
		r.Delete("/{email}", handlers.GetHandler(s.DeleteOTPLogs))
	})

	r.Route("/trusted", func(r chi.Router) {
		r.Get("/{user_id}", handlers.GetHandler(s.ListTrustedDevices))
		r.Delete("/{user_id}", handlers.GetHandler(s.DeleteTrustedDevices))
	})
	return r
}

func (s MFAService) Check(
	logger *zap.Logger,
	_ models.RequestContext,
	body models.MFACheckBody,
) (models.MFACheckResponse, error) {
	logger = logger.With(zap.String("event_id", body.EventID.String()))

	if s.isDeviceTrusted(logger, body.UserID, body.DeviceID) {
		logger.Info("Device trusted, skipping challenge")
		return models.MFACheckResponse{
			Message: "Device trusted",
			Data:    models.MFACheckData{EventID: body.EventID, MFARequired: false},
		}, nil
	}

	if body.RiskScore < s.RiskThreshold {
		logger.Info("Risk below threshold", zap.Int("risk_score", body.RiskScore))
		return models.MFACheckResponse{
			Message: "No challenge required",
			Data:    models.MFACheckData{EventID: body.EventID, MFARequired: false},
		}, nil
	}

	otp, err := h.GenerateOTP()
	if err != nil {
		return models.MFACheckResponse{}, err
	}

	if err = s.Cache.StoreOTPChallenge(body.Email, models.OTPChallenge{
		OTP:      otp,
		EventID:  body.EventID,
		DeviceID: body.DeviceID,
	}); err != nil {
		return models.MFACheckResponse{}, err
	}

	err = s.Notifier.NotifyFromTemplate(body.Email, "Your verification code", "otp_challenge",
		map[string]string{
			"OTP":            otp,
			"ExpiresMinutes": strconv.Itoa(configuration.OTPChallengeTTL / 60),
		})
	if err != nil {
		logger.Error("Failed to dispatch OTP", zap.Error(err))
		s.logChallenge(body.EventID, body.Email, models.OTPStatusFailedSend, err.Error())
		return models.MFACheckResponse{}, apierrors.NewAPIError(
			http.StatusInternalServerError, apierrors.ErrOTPDispatchFailed)
	}

	s.logChallenge(body.EventID, body.Email, models.OTPStatusSent, "")
	logger.Info("Challenge issued", zap.Int("risk_score", body.RiskScore))
	return models.MFACheckResponse{
		Message: "Challenge issued",
		Data:    models.MFACheckData{EventID: body.EventID, MFARequired: true},
	}, nil
}

func (s MFAService) Verify(
	logger *zap.Logger,
	_ models.RequestContext,
	body models.MFAVerifyBody,
) (models.MFAVerifyResponse, error) {
	logger = logger.With(zap.String("event_id", body.EventID.String()))

	challenge, err := s.Cache.GetOTPChallenge(body.Email)
	if err != nil {
		return models.MFAVerifyResponse{}, err
	}
	if challenge == nil {
		s.logChallenge(body.EventID, body.Email, models.OTPStatusNotFound, "")
		s.publishCompleted(body, false)
		return models.MFAVerifyResponse{}, apierrors.NewAPIError(
			http.StatusNotFound, apierrors.ErrOTPNotFound)
	}

	// One attempt burns the code, whatever the outcome.
	if err = s.Cache.DeleteOTPChallenge(body.Email); err != nil {
		logger.Warn("Failed to evict challenge", zap.Error(err))
	}

	if challenge.EventID != body.EventID {
		s.logChallenge(body.EventID, body.Email, models.OTPStatusInvalid, "event mismatch")
		s.publishCompleted(body, false)
		return models.MFAVerifyResponse{}, apierrors.NewAPIError(
			http.StatusUnauthorized, apierrors.ErrEventMismatch)
	}

	if challenge.DeviceID != body.DeviceID {
		s.logChallenge(body.EventID, body.Email, models.OTPStatusInvalid, "device mismatch")
		s.publishCompleted(body, false)
		return models.MFAVerifyResponse{}, apierrors.NewAPIError(
			http.StatusUnauthorized, apierrors.ErrDeviceMismatch)
	}

	if challenge.OTP != body.OTP {
		s.logChallenge(body.EventID, body.Email, models.OTPStatusInvalid, "")
		s.publishCompleted(body, false)
		return models.MFAVerifyResponse{}, apierrors.NewAPIError(
			http.StatusUnauthorized, apierrors.ErrOTPInvalid)
	}

	deviceSaved := s.trustDevice(logger, body)
	s.logChallenge(body.EventID, body.Email, models.OTPStatusVerified, "")
	s.publishCompleted(body, true)

	logger.Info("Challenge verified", zap.Bool("device_saved", deviceSaved))
	return models.MFAVerifyResponse{Message: "OTP verified", DeviceSaved: deviceSaved}, nil
}

func (s MFAService) GetOTPLogs(
	_ *zap.Logger,
	rctx models.RequestContext,
) (*models.OTPLogsResponse, error) {
	eventID, err := uuid.Parse(rctx.PathParams["event_id"])
	if err != nil {
		return nil, apierrors.NewAPIError(http.StatusBadRequest, apierrors.ErrValidation)
	}

	var logs []models.OTPLog
	if err = s.DB.Where("event_id = ?", eventID).
		Order("timestamp ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}

	response := models.OTPLogsResponse{Logs: logs}
	for _, log := range logs {
		switch log.Status {
		case models.OTPStatusSent:
			response.SentLogsCount++
		case models.OTPStatusVerified:
			response.VerifiedLogsCount++
		}
	}
	return &response, nil
}

func (s MFAService) ListOTPLogs(
	_ *zap.Logger,
	rctx models.RequestContext,
) (models.OTPLogsListResponse, error) {
	var logs []models.OTPLog
	if err := s.DB.Where("email = ?", rctx.PathParams["email"]).
		Order("timestamp DESC").
		Find(&logs).Error; err != nil {
		return models.OTPLogsListResponse{}, err
	}

	return models.OTPLogsListResponse{Message: "OTP logs", Data: logs}, nil
}

func (s MFAService) ListTrustedDevices(
	_ *zap.Logger,
	rctx models.RequestContext,
) (models.TrustedDevicesListResponse, error) {
	userID, err := uuid.Parse(rctx.PathParams["user_id"])
	if err != nil {
		return models.TrustedDevicesListResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrValidation)
	}

	var devices []models.TrustedDevice
	if err = s.DB.Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Order("expires_at DESC").
		Find(&devices).Error; err != nil {
		return models.TrustedDevicesListResponse{}, err
	}

	return models.TrustedDevicesListResponse{Message: "Trusted devices", Data: devices}, nil
}

func (s MFAService) DeleteTrustedDevices(
	logger *zap.Logger,
	rctx models.RequestContext,
) (models.DeletedRowsResponse, error) {
	userID, err := uuid.Parse(rctx.PathParams["user_id"])
	if err != nil {
		return models.DeletedRowsResponse{}, apierrors.NewAPIError(
			http.StatusBadRequest, apierrors.ErrValidation)
	}

	result := s.DB.Where("user_id = ?", userID).Delete(&models.TrustedDevice{})
	if result.Error != nil {
		return models.DeletedRowsResponse{}, result.Error
	}

	// Hints must die with the rows or revocation is a no-op for 30 days.
	if err = s.Cache.InvalidateTrustedDevices(userID); err != nil {
		logger.Error("Failed to invalidate trust hints",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return models.DeletedRowsResponse{}, err
	}

	logger.Info("Trusted devices revoked",
		zap.String("user_id", userID.String()),
		zap.Int64("deleted_rows", result.RowsAffected))
	return models.DeletedRowsResponse{
		Message:     "Trusted devices deleted",
		DeletedRows: result.RowsAffected,
	}, nil
}

func (s MFAService) DeleteOTPLogs(
	logger *zap.Logger,
	rctx models.RequestContext,
) (models.DeletedRowsResponse, error) {
	email := rctx.PathParams["email"]

	result := s.DB.Where("email = ?", email).Delete(&models.OTPLog{})
	if result.Error != nil {
		return models.DeletedRowsResponse{}, result.Error
	}

	logger.Info("OTP logs deleted", zap.Int64("deleted_rows", result.RowsAffected))
	return models.DeletedRowsResponse{
		Message:     "OTP logs deleted",
		DeletedRows: result.RowsAffected,
	}, nil
}

// isDeviceTrusted consults the hint first, then the table; a table hit
// re-primes the hint with the device's remaining lifetime.
func (s MFAService) isDeviceTrusted(logger *zap.Logger, userID uuid.UUID, deviceID string) bool {
	trusted, err := s.Cache.IsDeviceTrusted(userID, deviceID)
	if err != nil {
		logger.Warn("Trust hint lookup failed", zap.Error(err))
	}
	if trusted {
		return true
	}

	var device models.TrustedDevice
	err = s.DB.Where("user_id = ? AND device_id = ? AND expires_at > ?",
		userID, deviceID, time.Now()).
		Order("expires_at DESC").
		First(&device).Error
	if err != nil {
		return false
	}

	if err = s.Cache.MarkDeviceTrusted(userID, deviceID, time.Until(device.ExpiresAt)); err != nil {
		logger.Warn("Failed to prime trust hint", zap.Error(err))
	}
	return true
}

func (s MFAService) trustDevice(logger *zap.Logger, body models.MFAVerifyBody) bool {
	ttl := time.Duration(configuration.TrustedDeviceDays) * 24 * time.Hour
	device := models.TrustedDevice{
		UserID:    body.UserID,
		DeviceID:  body.DeviceID,
		UserAgent: body.UserAgent,
		IPAddress: body.IPAddress,
		ExpiresAt: time.Now().Add(ttl),
	}

	if err := s.DB.Create(&device).Error; err != nil {
		logger.Error("Failed to save trusted device", zap.Error(err))
		return false
	}

	if err := s.Cache.MarkDeviceTrusted(body.UserID, body.DeviceID, ttl); err != nil {
		logger.Warn("Failed to prime trust hint", zap.Error(err))
	}
	return true
}

func (s MFAService) logChallenge(eventID uuid.UUID, email string, status models.OTPStatus, detail string) {
	log := models.OTPLog{
		EventID:   eventID,
		Email:     email,
		Status:    status,
		Error:     detail,
		Timestamp: time.Now().UTC(),
	}
	if err := s.DB.Create(&log).Error; err != nil {
		zap.L().Error("Failed to append OTP log",
			zap.String("event_id", eventID.String()),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

func (s MFAService) publishCompleted(body models.MFAVerifyBody, successful bool) {
	events.NewMFACompleted(s.Publisher, models.MFACompletedEvent{
		EventID:       body.EventID,
		UserID:        body.UserID,
		Email:         body.Email,
		DeviceID:      body.DeviceID,
		WasSuccessful: successful,
		MFAMethod:     "otp-email",
		Timestamp:     time.Now().UTC(),
	}).Trigger()
}
