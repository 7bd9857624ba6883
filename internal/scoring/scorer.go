package scoring

import (
	"context"

	"riskgate/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxScore = 100

// Rule weights. Order matters more than the numbers: the carry-forward and
// first-login rules short-circuit, everything after accumulates.
const (
	weightFirstLogin = 50
	weightNewIP      = 30
	weightOddHour    = 20
	weightNewDevice  = 20
	weightNewCountry = 15
	weightNewRegion  = 10
	weightFailure    = 15
	weightBadStreak  = 100
)

// IScorer turns a login attempt plus the email's history into a risk score
// in [0, 100].
type IScorer interface {
	Score(ctx context.Context, attempt models.LoginAttemptEnvelope) (int, error)
}

// RuleScorer is the rule-based reference scorer. Any prior success only
// counts as trusted evidence once the verifier confirms its challenge
// resolved, so an attacker cannot launder history by failing challenges.
type RuleScorer struct {
	db       *gorm.DB
	verifier IVerifier
}

func NewRuleScorer(db *gorm.DB, verifier IVerifier) *RuleScorer {
	return &RuleScorer{db: db, verifier: verifier}
}

func (s *RuleScorer) Score(ctx context.Context, attempt models.LoginAttemptEnvelope) (int, error) {
	var history []models.LoginAttempt
	err := s.db.WithContext(ctx).
		Where("email = ?", attempt.Email).
		Order("timestamp DESC").
		Find(&history).Error
	if err != nil {
		return 0, err
	}

	// Terminal-risk carry-forward: a maxed-out attempt keeps the account at
	// maximum risk until one challenge is completed.
	if len(history) > 0 {
		latest := history[0]
		if latest.RiskScore == maxScore && !s.trusted(ctx, latest) {
			zap.L().Info("Carrying forward terminal risk",
				zap.String("email", attempt.Email),
				zap.String("prior_event_id", latest.EventID.String()))
			return maxScore, nil
		}
	}

	// A known user with no history defaults to a challenge.
	if attempt.UserID != nil && len(history) == 0 {
		return weightFirstLogin, nil
	}

	score := 0

	if !s.hasTrustedMatch(ctx, history, func(a models.LoginAttempt) bool {
		return a.IPAddress == attempt.IPAddress
	}) {
		score += weightNewIP
	}

	if hour := attempt.Timestamp.Hour(); hour < 5 || hour > 23 {
		score += weightOddHour
	}

	if !s.hasTrustedMatch(ctx, history, func(a models.LoginAttempt) bool {
		return a.UserAgent == attempt.UserAgent
	}) {
		score += weightNewDevice
	}

	score += s.scoreLocation(ctx, history, attempt)

	if !attempt.WasSuccessful {
		score += weightFailure
	}

	if len(history) >= 3 && s.allBad(ctx, history[:3]) {
		score += weightBadStreak
	}

	return min(score, maxScore), nil
}

// scoreLocation applies the country and region rules. Local addresses are
// exempt, an unknown country is always suspicious, and a resolved location
// only passes if a trusted prior attempt came from the same place.
func (s *RuleScorer) scoreLocation(
	ctx context.Context,
	history []models.LoginAttempt,
	attempt models.LoginAttemptEnvelope,
) int {
	score := 0

	switch attempt.Country {
	case models.GeoUnknown:
		score += weightNewCountry
	case "", models.GeoLocal:
	default:
		if !s.hasTrustedMatch(ctx, history, func(a models.LoginAttempt) bool {
			return a.Country == attempt.Country
		}) {
			score += weightNewCountry
		}
	}

	switch attempt.Region {
	case models.GeoUnknown:
		score += weightNewRegion
	case "", models.GeoLocal:
	default:
		if !s.hasTrustedMatch(ctx, history, func(a models.LoginAttempt) bool {
			return a.Region == attempt.Region
		}) {
			score += weightNewRegion
		}
	}

	return score
}

// trusted reports whether a historical row is usable as evidence: a
// successful password check whose challenge, if any, was completed.
func (s *RuleScorer) trusted(ctx context.Context, a models.LoginAttempt) bool {
	return a.WasSuccessful && s.verifier.IsVerified(ctx, a.EventID)
}

func (s *RuleScorer) hasTrustedMatch(
	ctx context.Context,
	history []models.LoginAttempt,
	match func(models.LoginAttempt) bool,
) bool {
	for _, a := range history {
		if match(a) && s.trusted(ctx, a) {
			return true
		}
	}
	return false
}

func (s *RuleScorer) allBad(ctx context.Context, attempts []models.LoginAttempt) bool {
	for _, a := range attempts {
		if s.trusted(ctx, a) {
			return false
		}
	}
	return true
}
