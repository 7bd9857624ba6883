package events

import (
	"time"

	"riskgate/internal/configuration"
	"riskgate/internal/messaging"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Dispatcher decouples handlers from the event bus. Trigger enqueues and
// returns immediately; a single worker drains the queue so publishes never
// sit on the login path. A full queue drops the event with a log line.
type Dispatcher struct {
	queue chan queuedEvent
	done  chan struct{}
}

type queuedEvent struct {
	publisher messaging.IPublisher
	name      string
	messageID string
	payload   []byte
}

func NewDispatcher(size int) *Dispatcher {
	d := &Dispatcher{
		queue: make(chan queuedEvent, size),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for evt := range d.queue {
		d.publish(evt)
	}
}

func (d *Dispatcher) publish(evt queuedEvent) {
	result := make(chan error, 1)
	go func() {
		result <- evt.publisher.Publish(message.NewMessage(evt.messageID, evt.payload))
	}()

	select {
	case err := <-result:
		if err != nil {
			zap.L().Error("Failed to publish event",
				zap.String("event", evt.name),
				zap.String("message_id", evt.messageID),
				zap.Error(err))
		}
	case <-time.After(time.Duration(configuration.PublishTimeoutSeconds) * time.Second):
		zap.L().Error("Timed out publishing event",
			zap.String("event", evt.name),
			zap.String("message_id", evt.messageID))
	}
}

func (d *Dispatcher) enqueue(evt queuedEvent) {
	select {
	case d.queue <- evt:
	default:
		zap.L().Warn("Event queue full, dropping event",
			zap.String("event", evt.name),
			zap.String("message_id", evt.messageID))
	}
}

// Close drains the queue and stops the worker.
func (d *Dispatcher) Close() {
	close(d.queue)
	<-d.done
}
