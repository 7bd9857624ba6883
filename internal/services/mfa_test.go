package services

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	apierrors "riskgate/internal/errors"
	"riskgate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMFAService(t *testing.T) (MFAService, *MockCache, *MockNotifier, *MockPublisher) {
	t.Helper()
	store := NewMockCache()
	notify := &MockNotifier{}
	publisher := &MockPublisher{}
	service := MFAService{
		DB:            newServiceDB(t, &models.TrustedDevice{}, &models.OTPLog{}),
		Cache:         store,
		Notifier:      notify,
		Publisher:     publisher,
		RiskThreshold: 50,
	}
	return service, store, notify, publisher
}

func checkBody(score int) models.MFACheckBody {
	return models.MFACheckBody{
		EventID:   uuid.New(),
		UserID:    uuid.New(),
		Email:     "user@example.com",
		DeviceID:  "device-1",
		RiskScore: score,
	}
}

func TestCheckBelowThresholdSkipsChallenge(t *testing.T) {
	service, store, notify, _ := newMFAService(t)

	response, err := service.Check(zap.NewNop(), models.RequestContext{}, checkBody(49))

	require.NoError(t, err)
	assert.False(t, response.Data.MFARequired)
	assert.Equal(t, http.StatusOK, response.StatusCode())
	assert.Empty(t, notify.delivered)
	assert.Empty(t, store.challenges)
}

func TestCheckTrustedDeviceSkipsChallenge(t *testing.T) {
	service, store, notify, _ := newMFAService(t)
	body := checkBody(95)
	require.NoError(t, store.MarkDeviceTrusted(body.UserID, body.DeviceID, time.Hour))

	response, err := service.Check(zap.NewNop(), models.RequestContext{}, body)

	require.NoError(t, err)
	assert.False(t, response.Data.MFARequired)
	assert.Empty(t, notify.delivered)
}

func TestCheckTableFallbackPrimesHint(t *testing.T) {
	service, store, notify, _ := newMFAService(t)
	body := checkBody(95)
	require.NoError(t, service.DB.Create(&models.TrustedDevice{
		UserID:    body.UserID,
		DeviceID:  body.DeviceID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}).Error)

	response, err := service.Check(zap.NewNop(), models.RequestContext{}, body)

	require.NoError(t, err)
	assert.False(t, response.Data.MFARequired)
	assert.Empty(t, notify.delivered)

	trusted, err := store.IsDeviceTrusted(body.UserID, body.DeviceID)
	require.NoError(t, err)
	assert.True(t, trusted)
}

func TestCheckExpiredTrustStillChallenges(t *testing.T) {
	service, _, notify, _ := newMFAService(t)
	body := checkBody(95)
	require.NoError(t, service.DB.Create(&models.TrustedDevice{
		UserID:    body.UserID,
		DeviceID:  body.DeviceID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	response, err := service.Check(zap.NewNop(), models.RequestContext{}, body)

	require.NoError(t, err)
	assert.True(t, response.Data.MFARequired)
	assert.Len(t, notify.delivered, 1)
}

func TestCheckIssuesChallenge(t *testing.T) {
	service, store, notify, _ := newMFAService(t)
	body := checkBody(80)

	response, err := service.Check(zap.NewNop(), models.RequestContext{}, body)

	require.NoError(t, err)
	assert.True(t, response.Data.MFARequired)
	assert.Equal(t, body.EventID, response.Data.EventID)
	assert.Equal(t, http.StatusAccepted, response.StatusCode())

	challenge, err := store.GetOTPChallenge(body.Email)
	require.NoError(t, err)
	require.NotNil(t, challenge)
	assert.Len(t, challenge.OTP, 6)
	assert.Equal(t, body.EventID, challenge.EventID)
	assert.Equal(t, body.DeviceID, challenge.DeviceID)

	require.Len(t, notify.delivered, 1)
	assert.Equal(t, challenge.OTP, notify.delivered[0]["OTP"])

	var logs []models.OTPLog
	require.NoError(t, service.DB.Where("event_id = ?", body.EventID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OTPStatusSent, logs[0].Status)
}

func TestCheckNotifierFailure(t *testing.T) {
	service, _, notify, _ := newMFAService(t)
	notify.fail = true
	body := checkBody(80)

	_, err := service.Check(zap.NewNop(), models.RequestContext{}, body)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, apierrors.ErrOTPDispatchFailed, apiErr.Code)

	var logs []models.OTPLog
	require.NoError(t, service.DB.Where("event_id = ?", body.EventID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OTPStatusFailedSend, logs[0].Status)
}

func seedChallenge(t *testing.T, store *MockCache, email string) models.MFAVerifyBody {
	t.Helper()
	body := models.MFAVerifyBody{
		EventID:  uuid.New(),
		UserID:   uuid.New(),
		Email:    email,
		DeviceID: "device-1",
		OTP:      "123456",
	}
	require.NoError(t, store.StoreOTPChallenge(email, models.OTPChallenge{
		OTP:      body.OTP,
		EventID:  body.EventID,
		DeviceID: body.DeviceID,
	}))
	return body
}

func TestVerifyWithoutChallenge(t *testing.T) {
	service, _, _, _ := newMFAService(t)
	body := models.MFAVerifyBody{
		EventID:  uuid.New(),
		UserID:   uuid.New(),
		Email:    "user@example.com",
		DeviceID: "device-1",
		OTP:      "123456",
	}

	_, err := service.Verify(zap.NewNop(), models.RequestContext{}, body)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, apierrors.ErrOTPNotFound, apiErr.Code)
}

func TestVerifyBurnsChallengeOnWrongCode(t *testing.T) {
	service, store, _, _ := newMFAService(t)
	body := seedChallenge(t, store, "user@example.com")
	body.OTP = "654321"

	_, err := service.Verify(zap.NewNop(), models.RequestContext{}, body)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, apierrors.ErrOTPInvalid, apiErr.Code)

	// Second attempt finds nothing even with the right code.
	body.OTP = "123456"
	_, err = service.Verify(zap.NewNop(), models.RequestContext{}, body)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrOTPNotFound, apiErr.Code)
}

func TestVerifyEventMismatch(t *testing.T) {
	service, store, _, _ := newMFAService(t)
	body := seedChallenge(t, store, "user@example.com")
	body.EventID = uuid.New()

	_, err := service.Verify(zap.NewNop(), models.RequestContext{}, body)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, apierrors.ErrEventMismatch, apiErr.Code)
}

func TestVerifyDeviceMismatch(t *testing.T) {
	service, store, _, _ := newMFAService(t)
	body := seedChallenge(t, store, "user@example.com")
	body.DeviceID = "other-device"

	_, err := service.Verify(zap.NewNop(), models.RequestContext{}, body)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, apierrors.ErrDeviceMismatch, apiErr.Code)
}

func TestVerifySuccessTrustsDevice(t *testing.T) {
	service, store, _, publisher := newMFAService(t)
	body := seedChallenge(t, store, "user@example.com")

	response, err := service.Verify(zap.NewNop(), models.RequestContext{}, body)

	require.NoError(t, err)
	assert.True(t, response.DeviceSaved)

	var device models.TrustedDevice
	require.NoError(t, service.DB.Where("user_id = ?", body.UserID).First(&device).Error)
	assert.Equal(t, body.DeviceID, device.DeviceID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), device.ExpiresAt, time.Minute)

	trusted, err := store.IsDeviceTrusted(body.UserID, body.DeviceID)
	require.NoError(t, err)
	assert.True(t, trusted)

	var logs []models.OTPLog
	require.NoError(t, service.DB.Where("event_id = ?", body.EventID).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.OTPStatusVerified, logs[0].Status)

	require.Eventually(t, func() bool {
		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		return len(publisher.messages) == 1
	}, time.Second, 10*time.Millisecond)

	publisher.mu.Lock()
	payload := publisher.messages[0].Payload
	publisher.mu.Unlock()

	var event models.MFACompletedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, body.EventID, event.EventID)
	assert.True(t, event.WasSuccessful)
}

func TestGetOTPLogsCountsByStatus(t *testing.T) {
	service, _, _, _ := newMFAService(t)
	eventID := uuid.New()
	for _, status := range []models.OTPStatus{
		models.OTPStatusSent, models.OTPStatusInvalid, models.OTPStatusVerified,
	} {
		require.NoError(t, service.DB.Create(&models.OTPLog{
			EventID:   eventID,
			Email:     "user@example.com",
			Status:    status,
			Timestamp: time.Now().UTC(),
		}).Error)
	}

	rctx := models.RequestContext{PathParams: map[string]string{"event_id": eventID.String()}}
	response, err := service.GetOTPLogs(zap.NewNop(), rctx)

	require.NoError(t, err)
	require.NotNil(t, response)
	assert.Equal(t, 1, response.SentLogsCount)
	assert.Equal(t, 1, response.VerifiedLogsCount)
	assert.Len(t, response.Logs, 3)
}

func TestGetOTPLogsNoRows(t *testing.T) {
	service, _, _, _ := newMFAService(t)

	rctx := models.RequestContext{PathParams: map[string]string{"event_id": uuid.NewString()}}
	response, err := service.GetOTPLogs(zap.NewNop(), rctx)

	require.NoError(t, err)
	assert.Nil(t, response)
}

func TestGetOTPLogsBadEventID(t *testing.T) {
	service, _, _, _ := newMFAService(t)

	rctx := models.RequestContext{PathParams: map[string]string{"event_id": "not-a-uuid"}}
	_, err := service.GetOTPLogs(zap.NewNop(), rctx)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDeleteTrustedDevicesInvalidatesHints(t *testing.T) {
	service, store, _, _ := newMFAService(t)
	userID := uuid.New()
	require.NoError(t, service.DB.Create(&models.TrustedDevice{
		UserID:    userID,
		DeviceID:  "device-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)
	require.NoError(t, store.MarkDeviceTrusted(userID, "device-1", time.Hour))

	rctx := models.RequestContext{PathParams: map[string]string{"user_id": userID.String()}}
	response, err := service.DeleteTrustedDevices(zap.NewNop(), rctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), response.DeletedRows)
	assert.Contains(t, store.invalidated, userID)

	trusted, err := store.IsDeviceTrusted(userID, "device-1")
	require.NoError(t, err)
	assert.False(t, trusted)
}

func TestDeleteOTPLogsByEmail(t *testing.T) {
	service, _, _, _ := newMFAService(t)
	for range 3 {
		require.NoError(t, service.DB.Create(&models.OTPLog{
			EventID:   uuid.New(),
			Email:     "user@example.com",
			Status:    models.OTPStatusSent,
			Timestamp: time.Now().UTC(),
		}).Error)
	}

	rctx := models.RequestContext{PathParams: map[string]string{"email": "user@example.com"}}
	response, err := service.DeleteOTPLogs(zap.NewNop(), rctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), response.DeletedRows)
}
