package clients

import (
	"context"
	"net/http"
	"time"

	"riskgate/internal/configuration"
	apierrors "riskgate/internal/errors"
	"riskgate/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// IRiskClient is the Authenticator's view of the Risk Scorer. One call per
// login, no retries; the scorer is authoritative for the attempt's score.
type IRiskClient interface {
	ScoreAttempt(ctx context.Context, attempt models.LoginAttemptEnvelope) (models.RiskScoreData, error)
}

type RiskClient struct {
	client *resty.Client
}

func NewRiskClient(baseURL string) *RiskClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(time.Duration(configuration.UpstreamTimeoutSeconds) * time.Second).
		SetHeader("User-Agent", configuration.AppName)

	return &RiskClient{client: client}
}

func (c *RiskClient) ScoreAttempt(
	ctx context.Context,
	attempt models.LoginAttemptEnvelope,
) (models.RiskScoreData, error) {
	var body models.RiskScoreResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(attempt).
		SetResult(&body).
		Post("/predict")
	if err != nil {
		zap.L().Error("Risk scorer unreachable", zap.Error(err))
		return models.RiskScoreData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}
	if !resp.IsSuccess() {
		zap.L().Error("Risk scorer rejected attempt",
			zap.Int("status", resp.StatusCode()),
			zap.String("event_id", attempt.EventID.String()))
		return models.RiskScoreData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamUnavailable)
	}

	if body.Data.EventID != attempt.EventID {
		zap.L().Error("Risk scorer echoed wrong event id",
			zap.String("sent", attempt.EventID.String()),
			zap.String("received", body.Data.EventID.String()))
		return models.RiskScoreData{}, apierrors.NewAPIError(
			http.StatusBadGateway, apierrors.ErrUpstreamEventMismatch)
	}

	return body.Data, nil
}
