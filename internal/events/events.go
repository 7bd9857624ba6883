package events

import (
	"encoding/json"

	"riskgate/internal/messaging"
	"riskgate/internal/models"

	"go.uber.org/zap"
)

const defaultQueueSize = 256

var defaultDispatcher = NewDispatcher(defaultQueueSize)

// Event is a payload bound to the publisher it will go out on. Trigger is
// fire-and-forget; the event id doubles as the message UUID so consumers can
// deduplicate redeliveries.
type Event struct {
	publisher messaging.IPublisher
	name      string
	messageID string
	payload   any
}

func (e Event) Trigger() {
	body, err := json.Marshal(e.payload)
	if err != nil {
		zap.L().Error("Failed to marshal event payload",
			zap.String("event", e.name),
			zap.Error(err))
		return
	}
	defaultDispatcher.enqueue(queuedEvent{
		publisher: e.publisher,
		name:      e.name,
		messageID: e.messageID,
		payload:   body,
	})
}

// NewLoginAttempted wraps a scrubbed attempt for auth_events/login.attempted.
func NewLoginAttempted(publisher messaging.IPublisher, attempt models.LoginAttemptEnvelope) Event {
	return Event{
		publisher: publisher,
		name:      "login.attempted",
		messageID: attempt.EventID.String(),
		payload:   attempt,
	}
}

// NewRiskScored wraps a scored attempt for risk_events/risk.scored.
func NewRiskScored(publisher messaging.IPublisher, scored models.RiskScoredEvent) Event {
	return Event{
		publisher: publisher,
		name:      "risk.scored",
		messageID: scored.EventID.String(),
		payload:   scored,
	}
}

// NewMFACompleted wraps a resolved challenge for mfa_events/mfa.completed.
func NewMFACompleted(publisher messaging.IPublisher, completed models.MFACompletedEvent) Event {
	return Event{
		publisher: publisher,
		name:      "mfa.completed",
		messageID: completed.EventID.String(),
		payload:   completed,
	}
}
