package messaging

import (
	"context"

	"riskgate/internal/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// AMQP transport: one durable topic exchange per producing service, the
// watermill topic doubles as the routing key.

func pubSubConfig(amqpURI string, exchange string) amqp.Config {
	config := amqp.NewDurablePubSubConfig(
		amqpURI,
		amqp.GenerateQueueNameTopicNameWithSuffix("_"+exchange),
	)
	config.Exchange = amqp.ExchangeConfig{
		GenerateName: func(string) string { return exchange },
		Type:         "topic",
		Durable:      true,
	}
	config.Publish.GenerateRoutingKey = func(topic string) string { return topic }
	config.QueueBind.GenerateRoutingKey = func(topic string) string { return topic }
	return config
}

type AMQPPublisher struct {
	routingKey string
	publisher  *amqp.Publisher
}

func NewAMQPPublisher(config *models.AMQPEventsConfig, exchange string, routingKey string) IPublisher {
	publisher, err := amqp.NewPublisher(pubSubConfig(config.URL, exchange), watermill.NopLogger{})
	if err != nil {
		zap.L().Fatal("Failed to create AMQP publisher",
			zap.String("exchange", exchange),
			zap.Error(err))
	}
	return &AMQPPublisher{routingKey: routingKey, publisher: publisher}
}

func (p *AMQPPublisher) Publish(messages ...*message.Message) error {
	return p.publisher.Publish(p.routingKey, messages...)
}

func (p *AMQPPublisher) Close() error {
	return p.publisher.Close()
}

type AMQPSubscriber struct {
	routingKey string
	subscriber *amqp.Subscriber
}

func NewAMQPSubscriber(config *models.AMQPEventsConfig, exchange string, routingKey string) ISubscriber {
	subscriber, err := amqp.NewSubscriber(pubSubConfig(config.URL, exchange), watermill.NopLogger{})
	if err != nil {
		zap.L().Fatal("Failed to create AMQP subscriber",
			zap.String("exchange", exchange),
			zap.Error(err))
	}
	return &AMQPSubscriber{routingKey: routingKey, subscriber: subscriber}
}

func (s *AMQPSubscriber) Subscribe() <-chan *message.Message {
	sub, err := s.subscriber.Subscribe(context.Background(), s.routingKey)
	if err != nil {
		zap.L().Fatal("Failed to subscribe to AMQP topic",
			zap.String("routing_key", s.routingKey),
			zap.Error(err))
	}
	return sub
}

func (s *AMQPSubscriber) Close() error {
	return s.subscriber.Close()
}
