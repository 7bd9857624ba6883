package workers

import (
	"context"
	"encoding/json"

	"riskgate/internal/messaging"
	"riskgate/internal/models"
	"riskgate/internal/services"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// AuditWorker drains login.attempted and persists each attempt through the
// scorer. Failed logins never hit /predict, so this is the only path that
// gets them into the history table; delivery is at-least-once and
// ScoreAndStore deduplicates by event id.
type AuditWorker struct {
	Risk       services.RiskService
	Subscriber messaging.ISubscriber
}

func (w *AuditWorker) Start(ctx context.Context) {
	zap.L().Info("Starting worker", zap.String("worker", "login_audit"))

	messages := w.Subscriber.Subscribe()
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Worker shutting down", zap.String("worker", "login_audit"))
			return
		case msg, ok := <-messages:
			if !ok {
				zap.L().Warn("Subscription closed", zap.String("worker", "login_audit"))
				return
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *AuditWorker) handle(ctx context.Context, msg *message.Message) {
	var envelope models.LoginAttemptEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		// A poison message would redeliver forever; drop it.
		zap.L().Error("Discarding malformed attempt event",
			zap.String("message_id", msg.UUID),
			zap.Error(err))
		msg.Ack()
		return
	}

	data, err := w.Risk.ScoreAndStore(ctx, envelope)
	if err != nil {
		zap.L().Error("Failed to persist attempt, requeueing",
			zap.String("event_id", envelope.EventID.String()),
			zap.Error(err))
		msg.Nack()
		return
	}

	if data.Persisted {
		zap.L().Debug("Attempt persisted from event",
			zap.String("event_id", data.EventID.String()),
			zap.Int("risk_score", data.RiskScore))
	}
	msg.Ack()
}
