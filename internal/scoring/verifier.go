package scoring

import (
	"context"
	"sync"

	"riskgate/internal/clients"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IVerifier classifies a historical attempt as verified or not: either no
// challenge was ever issued for it, or exactly one challenge was sent and
// verified.
type IVerifier interface {
	IsVerified(ctx context.Context, eventID uuid.UUID) bool
}

// HistoryVerifier asks the MFA Arbiter once per event id and memoizes the
// verdict for the life of the process. OTP logs are append-only after a
// challenge resolves, so a memoized verdict never goes stale in a direction
// that matters: an unverified event can only become more suspicious.
type HistoryVerifier struct {
	arbiter clients.IMFAClient

	mu       sync.RWMutex
	verdicts map[uuid.UUID]bool
}

func NewHistoryVerifier(arbiter clients.IMFAClient) *HistoryVerifier {
	return &HistoryVerifier{
		arbiter:  arbiter,
		verdicts: make(map[uuid.UUID]bool),
	}
}

func (v *HistoryVerifier) IsVerified(ctx context.Context, eventID uuid.UUID) bool {
	v.mu.RLock()
	verdict, known := v.verdicts[eventID]
	v.mu.RUnlock()
	if known {
		return verdict
	}

	logs, err := v.arbiter.GetOTPLogs(ctx, eventID)
	if err != nil {
		// Not memoized: the arbiter may just be down, and a transient
		// failure must not pin an attempt as unverified forever.
		zap.L().Warn("Could not classify attempt, treating as unverified",
			zap.String("event_id", eventID.String()),
			zap.Error(err))
		return false
	}

	verdict = logs == nil || (logs.SentLogsCount == 1 && logs.VerifiedLogsCount == 1)

	v.mu.Lock()
	v.verdicts[eventID] = verdict
	v.mu.Unlock()

	return verdict
}
