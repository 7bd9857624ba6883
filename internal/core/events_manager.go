package core

import (
	"riskgate/internal/configuration"
	"riskgate/internal/messaging"
	"riskgate/internal/models"

	"go.uber.org/zap"
)

type topicBinding struct {
	Exchange   string
	RoutingKey string
}

// One exchange per producing service; the routing key doubles as the topic
// key used to look bindings up.
var topicBindings = map[string]topicBinding{
	configuration.RoutingKeyLoginAttempted: {
		Exchange:   configuration.EventsAuthExchange,
		RoutingKey: configuration.RoutingKeyLoginAttempted,
	},
	configuration.RoutingKeyRiskScored: {
		Exchange:   configuration.EventsRiskExchange,
		RoutingKey: configuration.RoutingKeyRiskScored,
	},
	configuration.RoutingKeyMFACompleted: {
		Exchange:   configuration.EventsMFAExchange,
		RoutingKey: configuration.RoutingKeyMFACompleted,
	},
}

type EventsManager struct {
	publishers  map[string]messaging.IPublisher
	subscribers map[string]messaging.ISubscriber
	config      models.EventsConfiguration
}

func NewEventsManager(config models.EventsConfiguration) *EventsManager {
	manager := &EventsManager{
		publishers:  make(map[string]messaging.IPublisher),
		subscribers: make(map[string]messaging.ISubscriber),
		config:      config,
	}

	for topicKey, binding := range topicBindings {
		switch config.Type {
		case "amqp":
			manager.publishers[topicKey] = messaging.NewAMQPPublisher(
				config.AMQP, binding.Exchange, binding.RoutingKey)
			manager.subscribers[topicKey] = messaging.NewAMQPSubscriber(
				config.AMQP, binding.Exchange, binding.RoutingKey)
		case "jetstream":
			manager.publishers[topicKey] = messaging.NewJetStreamPublisher(
				config.Jetstream, binding.Exchange, binding.RoutingKey)
			manager.subscribers[topicKey] = messaging.NewJetStreamSubscriber(
				config.Jetstream, binding.Exchange, binding.RoutingKey)
		case "memory":
			// Publisher and subscriber must share the same GoChannel.
			ch := messaging.NewMemoryChannel()
			manager.publishers[topicKey] = messaging.NewMemoryPublisher(ch, binding.RoutingKey)
			manager.subscribers[topicKey] = messaging.NewMemorySubscriber(ch, binding.RoutingKey)
		}

		zap.L().Info("Initialized event topic",
			zap.String("exchange", binding.Exchange),
			zap.String("routing_key", binding.RoutingKey),
			zap.String("provider", config.Type))
	}

	return manager
}

func (em *EventsManager) GetPublisher(topicKey string) messaging.IPublisher {
	publisher, exists := em.publishers[topicKey]
	if !exists {
		zap.L().Warn("Publisher not found", zap.String("topic_key", topicKey))
		return nil
	}
	return publisher
}

func (em *EventsManager) GetSubscriber(topicKey string) messaging.ISubscriber {
	subscriber, exists := em.subscribers[topicKey]
	if !exists {
		zap.L().Warn("Subscriber not found", zap.String("topic_key", topicKey))
		return nil
	}
	return subscriber
}

func (em *EventsManager) Close() {
	for topicKey, publisher := range em.publishers {
		if err := publisher.Close(); err != nil {
			zap.L().Error("Failed to close publisher",
				zap.String("topic_key", topicKey),
				zap.Error(err))
		}
	}

	for topicKey, subscriber := range em.subscribers {
		if err := subscriber.Close(); err != nil {
			zap.L().Error("Failed to close subscriber",
				zap.String("topic_key", topicKey),
				zap.Error(err))
		}
	}
}
