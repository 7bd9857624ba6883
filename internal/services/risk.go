package services

import (
	"context"
	"errors"

	"riskgate/internal/events"
	"riskgate/internal/handlers"
	"riskgate/internal/messaging"
	m "riskgate/internal/middlewares"
	"riskgate/internal/models"
	"riskgate/internal/scoring"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RiskService owns the login_attempts table. Attempts arrive twice: over
// /predict on the synchronous login path and over login.attempted on the bus;
// both funnel into ScoreAndStore, which is idempotent by event id.
type RiskService struct {
	DB        *gorm.DB
	Scorer    scoring.IScorer
	Publisher messaging.IPublisher
}

func (s RiskService) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(m.Validate[models.LoginAttemptEnvelope]).
		Post("/predict", handlers.CreateHandler(s.Predict))
	return r
}

func (s RiskService) Predict(
	logger *zap.Logger,
	_ models.RequestContext,
	body models.LoginAttemptEnvelope,
) (models.RiskScoreResponse, error) {
	data, err := s.ScoreAndStore(context.Background(), body)
	if err != nil {
		return models.RiskScoreResponse{}, err
	}

	message := "Attempt scored"
	if !data.Persisted {
		message = "Attempt already scored"
	}

	logger.Info("Attempt scored",
		zap.String("event_id", data.EventID.String()),
		zap.Int("risk_score", data.RiskScore),
		zap.Bool("persisted", data.Persisted))
	return models.RiskScoreResponse{Message: message, Data: data}, nil
}

// ScoreAndStore scores one attempt and inserts its row. A replay of an
// already-stored event id returns the stored score with persisted=false.
func (s RiskService) ScoreAndStore(
	ctx context.Context,
	envelope models.LoginAttemptEnvelope,
) (models.RiskScoreData, error) {
	var existing models.LoginAttempt
	err := s.DB.WithContext(ctx).
		Where("event_id = ?", envelope.EventID).
		First(&existing).Error
	if err == nil {
		return models.RiskScoreData{
			EventID:   existing.EventID,
			RiskScore: existing.RiskScore,
			Persisted: false,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RiskScoreData{}, err
	}

	score, err := s.Scorer.Score(ctx, envelope)
	if err != nil {
		return models.RiskScoreData{}, err
	}

	attempt := envelope.ToAttempt(score)
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&attempt)
	if result.Error != nil {
		return models.RiskScoreData{}, result.Error
	}

	// Lost the insert race: the first writer's score is authoritative.
	if result.RowsAffected == 0 {
		if err = s.DB.WithContext(ctx).
			Where("event_id = ?", envelope.EventID).
			First(&existing).Error; err != nil {
			return models.RiskScoreData{}, err
		}
		return models.RiskScoreData{
			EventID:   existing.EventID,
			RiskScore: existing.RiskScore,
			Persisted: false,
		}, nil
	}

	events.NewRiskScored(s.Publisher, models.RiskScoredEvent{
		EventID:   envelope.EventID,
		UserID:    envelope.UserID,
		Email:     envelope.Email,
		DeviceID:  envelope.DeviceID,
		RiskScore: score,
		Timestamp: attempt.Timestamp,
	}).Trigger()

	return models.RiskScoreData{
		EventID:   envelope.EventID,
		RiskScore: score,
		Persisted: true,
	}, nil
}
