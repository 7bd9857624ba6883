package clients

import (
	"context"
	"net/http"
	"slices"
	"time"

	"riskgate/internal/configuration"
	apierrors "riskgate/internal/errors"
	"riskgate/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IMFAClient is how the other two services talk to the MFA Arbiter: the
// Authenticator for challenge decisions and OTP verification, the Risk
// Scorer for the challenge history of past events.
type IMFAClient interface {
	Check(ctx context.Context, body models.MFACheckBody) (models.MFACheckData, error)
	Verify(ctx context.Context, body models.MFAVerifyBody) (models.MFAVerifyResponse, error)
	// GetOTPLogs returns nil when the event was never challenged (HTTP 204).
	GetOTPLogs(ctx context.Context, eventID uuid.UUID) (*models.OTPLogsResponse, error)
	DeleteTrustedDevices(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteOTPLogs(ctx context.Context, email string) (int64, error)
}

type errorBody struct {
	Errors []string `json:"errors"`
}

type MFAClient struct {
	client *resty.Client
}

func NewMFAClient(baseURL string) *MFAClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(configuration.UpstreamTimeoutSeconds) * time.Second).
		SetHeader("User-Agent", configuration.AppName)

	return &MFAClient{client: client}
}

func (c *MFAClient) Check(
	ctx context.Context,
	body models.MFACheckBody,
) (models.MFACheckData, error) {
	var result models.MFACheckResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post("/check")
	if err != nil {
		zap.L().Error("MFA arbiter unreachable", zap.Error(err))
		return models.MFACheckData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}
	// 200 means no challenge, 202 means one was issued.
	if !resp.IsSuccess() {
		zap.L().Error("MFA check failed",
			zap.Int("status", resp.StatusCode()),
			zap.String("event_id", body.EventID.String()))
		return models.MFACheckData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}

	if result.Data.EventID != body.EventID {
		zap.L().Error("MFA arbiter echoed wrong event id",
			zap.String("sent", body.EventID.String()),
			zap.String("received", result.Data.EventID.String()))
		return models.MFACheckData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamEventMismatch)
	}

	return result.Data, nil
}

func (c *MFAClient) Verify(
	ctx context.Context,
	body models.MFAVerifyBody,
) (models.MFAVerifyResponse, error) {
	var result models.MFAVerifyResponse
	var apiErr errorBody

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/verify")
	if err != nil {
		zap.L().Error("MFA arbiter unreachable", zap.Error(err))
		return models.MFAVerifyResponse{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}
	if resp.IsSuccess() {
		return result, nil
	}

	return models.MFAVerifyResponse{}, translateVerifyError(resp.StatusCode(), apiErr.Errors)
}

// translateVerifyError maps the arbiter's refusal onto the code the caller's
// own client should see. A missing challenge on the arbiter side means the
// caller's pending state is stale, which is the caller's 400, not a 404.
func translateVerifyError(status int, codes []string) *apierrors.APIError {
	switch status {
	case http.StatusNotFound:
		return apierrors.NewAPIError(http.StatusBadRequest, apierrors.ErrNoPendingChallenge)
	case http.StatusUnauthorized:
		if slices.Contains(codes, apierrors.ErrDeviceMismatch) {
			return apierrors.NewAPIError(http.StatusUnauthorized, apierrors.ErrDeviceMismatch)
		}
		if slices.Contains(codes, apierrors.ErrEventMismatch) {
			return apierrors.NewAPIError(http.StatusUnauthorized, apierrors.ErrEventMismatch)
		}
		return apierrors.NewAPIError(http.StatusUnauthorized, apierrors.ErrOTPInvalid)
	default:
		return apierrors.NewAPIError(http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}
}

func (c *MFAClient) DeleteTrustedDevices(ctx context.Context, userID uuid.UUID) (int64, error) {
	return c.deleteRows(ctx, "/trusted/"+userID.String())
}

func (c *MFAClient) DeleteOTPLogs(ctx context.Context, email string) (int64, error) {
	return c.deleteRows(ctx, "/otp-logs/"+email)
}

func (c *MFAClient) deleteRows(ctx context.Context, path string) (int64, error) {
	var result models.DeletedRowsResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Delete(path)
	if err != nil || !resp.IsSuccess() {
		return 0, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}

	return result.DeletedRows, nil
}

func (c *MFAClient) GetOTPLogs(
	ctx context.Context,
	eventID uuid.UUID,
) (*models.OTPLogsResponse, error) {
	var result models.OTPLogsResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/otp-logs/" + eventID.String())
	if err != nil {
		return nil, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil, nil
	}
	if !resp.IsSuccess() {
		return nil, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}

	return &result, nil
}
