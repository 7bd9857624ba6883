package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"riskgate/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRiskService(t *testing.T, scorer *MockScorer) (RiskService, *MockPublisher) {
	t.Helper()
	publisher := &MockPublisher{}
	service := RiskService{
		DB:        newServiceDB(t, &models.LoginAttempt{}),
		Scorer:    scorer,
		Publisher: publisher,
	}
	return service, publisher
}

func attemptEnvelope() models.LoginAttemptEnvelope {
	userID := uuid.New()
	return models.LoginAttemptEnvelope{
		EventID:       uuid.New(),
		UserID:        &userID,
		Email:         "user@example.com",
		IPAddress:     "203.0.113.7",
		DeviceID:      "device-1",
		UserAgent:     "Mozilla/5.0",
		Country:       "France",
		Region:        "Ile-de-France",
		City:          "Paris",
		Timestamp:     time.Now().UTC(),
		WasSuccessful: true,
	}
}

func TestScoreAndStorePersistsAttempt(t *testing.T) {
	scorer := &MockScorer{score: 65}
	service, publisher := newRiskService(t, scorer)
	envelope := attemptEnvelope()

	data, err := service.ScoreAndStore(context.Background(), envelope)

	require.NoError(t, err)
	assert.Equal(t, envelope.EventID, data.EventID)
	assert.Equal(t, 65, data.RiskScore)
	assert.True(t, data.Persisted)

	var attempt models.LoginAttempt
	require.NoError(t, service.DB.Where("event_id = ?", envelope.EventID).First(&attempt).Error)
	assert.Equal(t, envelope.Email, attempt.Email)
	assert.Equal(t, 65, attempt.RiskScore)
	assert.True(t, attempt.WasSuccessful)

	require.Eventually(t, func() bool {
		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		return len(publisher.messages) == 1
	}, time.Second, 10*time.Millisecond)

	publisher.mu.Lock()
	published := publisher.messages[0]
	publisher.mu.Unlock()

	assert.Equal(t, envelope.EventID.String(), published.UUID)

	var event models.RiskScoredEvent
	require.NoError(t, json.Unmarshal(published.Payload, &event))
	assert.Equal(t, 65, event.RiskScore)
}

func TestScoreAndStoreReplayReturnsStoredScore(t *testing.T) {
	scorer := &MockScorer{score: 40}
	service, _ := newRiskService(t, scorer)
	envelope := attemptEnvelope()

	first, err := service.ScoreAndStore(context.Background(), envelope)
	require.NoError(t, err)
	require.True(t, first.Persisted)

	// The stored score stays authoritative even if the rules would now
	// produce a different one.
	scorer.score = 90
	second, err := service.ScoreAndStore(context.Background(), envelope)

	require.NoError(t, err)
	assert.Equal(t, 40, second.RiskScore)
	assert.False(t, second.Persisted)
	assert.Equal(t, 1, scorer.calls)

	var count int64
	require.NoError(t, service.DB.Model(&models.LoginAttempt{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPredictReportsReplay(t *testing.T) {
	scorer := &MockScorer{score: 55}
	service, _ := newRiskService(t, scorer)
	envelope := attemptEnvelope()

	first, err := service.Predict(zap.NewNop(), models.RequestContext{}, envelope)
	require.NoError(t, err)
	assert.Equal(t, "Attempt scored", first.Message)

	second, err := service.Predict(zap.NewNop(), models.RequestContext{}, envelope)
	require.NoError(t, err)
	assert.Equal(t, "Attempt already scored", second.Message)
	assert.Equal(t, first.Data.RiskScore, second.Data.RiskScore)
}

func TestScoreAndStoreDatabaseFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func(db *sql.DB) { _ = db.Close() }(db)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "login_attempts" WHERE event_id = $1`)).
		WillReturnError(assert.AnError)

	service := RiskService{
		DB:        gormDB,
		Scorer:    &MockScorer{score: 50},
		Publisher: &MockPublisher{},
	}

	_, err = service.ScoreAndStore(context.Background(), attemptEnvelope())
	assert.Error(t, err)
}

func TestScoreAndStoreFailedAttempt(t *testing.T) {
	scorer := &MockScorer{score: 70}
	service, _ := newRiskService(t, scorer)
	envelope := attemptEnvelope()
	envelope.UserID = nil
	envelope.WasSuccessful = false

	data, err := service.ScoreAndStore(context.Background(), envelope)

	require.NoError(t, err)
	assert.True(t, data.Persisted)

	var attempt models.LoginAttempt
	require.NoError(t, service.DB.Where("event_id = ?", envelope.EventID).First(&attempt).Error)
	assert.False(t, attempt.WasSuccessful)
	assert.Nil(t, attempt.UserID)
}
