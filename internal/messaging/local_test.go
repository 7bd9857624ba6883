package messaging

import (
	"encoding/json"
	"testing"
	"time"

	"riskgate/internal/configuration"
	"riskgate/internal/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const testTimeout = 2 * time.Second

func receiveOne(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestNewMemoryPubSub(t *testing.T) {
	ch := NewMemoryChannel()
	pub := NewMemoryPublisher(ch, configuration.RoutingKeyLoginAttempted)
	sub := NewMemorySubscriber(ch, configuration.RoutingKeyLoginAttempted)
	if pub == nil {
		t.Fatal("expected non-nil publisher")
	}
	if sub == nil {
		t.Fatal("expected non-nil subscriber")
	}
}

func TestMemoryPublishAndSubscribe(t *testing.T) {
	ch := NewMemoryChannel()
	pub := NewMemoryPublisher(ch, configuration.RoutingKeyLoginAttempted)
	sub := NewMemorySubscriber(ch, configuration.RoutingKeyLoginAttempted)
	defer pub.Close()

	msgCh := sub.Subscribe()

	attempt := models.LoginAttemptEnvelope{
		EventID:       uuid.New(),
		Email:         "user@example.com",
		IPAddress:     "203.0.113.7",
		UserAgent:     "curl/8.0",
		WasSuccessful: true,
		Timestamp:     time.Now().UTC(),
	}
	payload, err := json.Marshal(attempt)
	if err != nil {
		t.Fatalf("marshal attempt: %v", err)
	}

	msgID := watermill.NewUUID()
	if err = pub.Publish(message.NewMessage(msgID, payload)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	msg := receiveOne(t, msgCh)
	if msg.UUID != msgID {
		t.Errorf("expected UUID %s, got %s", msgID, msg.UUID)
	}

	var received models.LoginAttemptEnvelope
	if err = json.Unmarshal(msg.Payload, &received); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if received.EventID != attempt.EventID {
		t.Errorf("expected event id %s, got %s", attempt.EventID, received.EventID)
	}
	if received.Email != attempt.Email {
		t.Errorf("expected email %q, got %q", attempt.Email, received.Email)
	}
	msg.Ack()
}

func TestMemoryPublishMultipleMessages(t *testing.T) {
	ch := NewMemoryChannel()
	pub := NewMemoryPublisher(ch, configuration.RoutingKeyRiskScored)
	sub := NewMemorySubscriber(ch, configuration.RoutingKeyRiskScored)
	defer pub.Close()

	msgCh := sub.Subscribe()

	const count = 5
	expected := make(map[string]bool, count)
	for i := range count {
		msgID := watermill.NewUUID()
		expected[msgID] = false
		if err := pub.Publish(message.NewMessage(msgID, []byte("msg"))); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}

	for range count {
		msg := receiveOne(t, msgCh)
		if _, ok := expected[msg.UUID]; !ok {
			t.Errorf("received unexpected UUID %s", msg.UUID)
		}
		expected[msg.UUID] = true
		msg.Ack()
	}

	for msgID, received := range expected {
		if !received {
			t.Errorf("message %s was never received", msgID)
		}
	}
}

func TestMemoryPublisherClose(t *testing.T) {
	ch := NewMemoryChannel()
	pub := NewMemoryPublisher(ch, configuration.RoutingKeyMFACompleted)

	if err := pub.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	err := pub.Publish(message.NewMessage(watermill.NewUUID(), []byte("after-close")))
	if err == nil {
		t.Error("expected error when publishing after Close, got nil")
	}
}

func TestMemoryIndependentRoutingKeys(t *testing.T) {
	ch := NewMemoryChannel()
	pubAttempts := NewMemoryPublisher(ch, configuration.RoutingKeyLoginAttempted)
	subAttempts := NewMemorySubscriber(ch, configuration.RoutingKeyLoginAttempted)
	subScores := NewMemorySubscriber(ch, configuration.RoutingKeyRiskScored)
	defer pubAttempts.Close()

	attemptCh := subAttempts.Subscribe()
	scoreCh := subScores.Subscribe()

	msgID := watermill.NewUUID()
	if err := pubAttempts.Publish(message.NewMessage(msgID, []byte("attempt"))); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	msg := receiveOne(t, attemptCh)
	if msg.UUID != msgID {
		t.Errorf("expected UUID %s, got %s", msgID, msg.UUID)
	}
	msg.Ack()

	select {
	case m := <-scoreCh:
		t.Errorf("risk.scored subscriber should not have received a message, got UUID %s", m.UUID)
	case <-time.After(200 * time.Millisecond):
		// expected: the score topic stays quiet
	}
}
