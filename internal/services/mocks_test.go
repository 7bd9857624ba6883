package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"riskgate/internal/models"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- Inline Mocks ---

type MockCache struct {
	mu          sync.Mutex
	geos        map[string]models.Geolocation
	pending     map[string]uuid.UUID
	blacklist   map[string]time.Duration
	challenges  map[string]models.OTPChallenge
	trusted     map[string]time.Duration
	invalidated []uuid.UUID
}

func NewMockCache() *MockCache {
	return &MockCache{
		geos:       make(map[string]models.Geolocation),
		pending:    make(map[string]uuid.UUID),
		blacklist:  make(map[string]time.Duration),
		challenges: make(map[string]models.OTPChallenge),
		trusted:    make(map[string]time.Duration),
	}
}

func trustKey(userID uuid.UUID, deviceID string) string {
	return userID.String() + ":" + deviceID
}

func (m *MockCache) GetGeolocation(ip string) (*models.Geolocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if geo, ok := m.geos[ip]; ok {
		return &geo, nil
	}
	return nil, nil
}

func (m *MockCache) SetGeolocation(ip string, geo models.Geolocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.geos[ip] = geo
	return nil
}

func (m *MockCache) SetPendingChallenge(email string, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[email] = eventID
	return nil
}

func (m *MockCache) GetPendingChallenge(email string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	eventID, ok := m.pending[email]
	return eventID, ok, nil
}

func (m *MockCache) DeletePendingChallenge(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, email)
	return nil
}

func (m *MockCache) BlacklistToken(token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[token] = ttl
	return nil
}

func (m *MockCache) IsTokenBlacklisted(token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blacklist[token]
	return ok, nil
}

func (m *MockCache) StoreOTPChallenge(email string, challenge models.OTPChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[email] = challenge
	return nil
}

func (m *MockCache) GetOTPChallenge(email string) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if challenge, ok := m.challenges[email]; ok {
		return &challenge, nil
	}
	return nil, nil
}

func (m *MockCache) DeleteOTPChallenge(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.challenges, email)
	return nil
}

func (m *MockCache) MarkDeviceTrusted(userID uuid.UUID, deviceID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trusted[trustKey(userID, deviceID)] = ttl
	return nil
}

func (m *MockCache) IsDeviceTrusted(userID uuid.UUID, deviceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.trusted[trustKey(userID, deviceID)]
	return ok, nil
}

func (m *MockCache) InvalidateTrustedDevices(userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, userID)
	for key := range m.trusted {
		if len(key) > 36 && key[:36] == userID.String() {
			delete(m.trusted, key)
		}
	}
	return nil
}

func (m *MockCache) Close() error { return nil }

type MockNotifier struct {
	mu        sync.Mutex
	fail      bool
	delivered []map[string]string
}

func (m *MockNotifier) NotifyFromTemplate(_ string, _ string, _ string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return assert.AnError
	}
	if args, ok := data.(map[string]string); ok {
		m.delivered = append(m.delivered, args)
	}
	return nil
}

type MockPublisher struct {
	mu       sync.Mutex
	messages []*message.Message
}

func (m *MockPublisher) Publish(messages ...*message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

type MockLocator struct {
	geo models.Geolocation
}

func (m *MockLocator) Lookup(_ string) models.Geolocation { return m.geo }

type MockRiskClient struct {
	score int
	err   error
	last  *models.LoginAttemptEnvelope
}

func (m *MockRiskClient) ScoreAttempt(
	_ context.Context,
	attempt models.LoginAttemptEnvelope,
) (models.RiskScoreData, error) {
	m.last = &attempt
	if m.err != nil {
		return models.RiskScoreData{}, m.err
	}
	return models.RiskScoreData{EventID: attempt.EventID, RiskScore: m.score, Persisted: true}, nil
}

type MockMFAClient struct {
	mfaRequired    bool
	checkErr       error
	verifyResult   models.MFAVerifyResponse
	verifyErr      error
	deletedDevices int64
	deletedLogs    int64
	lastCheck      *models.MFACheckBody
	lastVerify     *models.MFAVerifyBody
}

func (m *MockMFAClient) Check(
	_ context.Context,
	body models.MFACheckBody,
) (models.MFACheckData, error) {
	m.lastCheck = &body
	if m.checkErr != nil {
		return models.MFACheckData{}, m.checkErr
	}
	return models.MFACheckData{EventID: body.EventID, MFARequired: m.mfaRequired}, nil
}

func (m *MockMFAClient) Verify(
	_ context.Context,
	body models.MFAVerifyBody,
) (models.MFAVerifyResponse, error) {
	m.lastVerify = &body
	if m.verifyErr != nil {
		return models.MFAVerifyResponse{}, m.verifyErr
	}
	return m.verifyResult, nil
}

func (m *MockMFAClient) GetOTPLogs(
	_ context.Context,
	_ uuid.UUID,
) (*models.OTPLogsResponse, error) {
	return nil, nil
}

func (m *MockMFAClient) DeleteTrustedDevices(_ context.Context, _ uuid.UUID) (int64, error) {
	return m.deletedDevices, nil
}

func (m *MockMFAClient) DeleteOTPLogs(_ context.Context, _ string) (int64, error) {
	return m.deletedLogs, nil
}

type MockScorer struct {
	score int
	calls int
}

func (m *MockScorer) Score(_ context.Context, _ models.LoginAttemptEnvelope) (int, error) {
	m.calls++
	return m.score, nil
}

// --- Helpers ---

func newServiceDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}
