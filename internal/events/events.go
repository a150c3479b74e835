package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/payment-config/internal/interfaces"
	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/telemetry"
)

const (
	TopicSetChanged               = "payment.set.changed"
	TopicTransactionSubmitted     = "payment.transaction.submitted"
	TopicTransactionStatusChanged = "payment.transaction.status_changed"
)

// kafkaBatchTimeout keeps single-event writes from waiting for a full batch.
const kafkaBatchTimeout = 10 * time.Millisecond

// KafkaPublisher writes one message per event, keyed by entity id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers),
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           kafkaBatchTimeout,
			WriteTimeout:           2 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event models.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.EntityID),
		Value: payload,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NatsPublisher broadcasts events on subjects named after the topics.
type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, topic string, event models.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(topic, payload)
}

func (p *NatsPublisher) Close() error {
	return p.nc.Drain()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, models.PaymentEvent) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}

// New builds the publisher selected by backend: "kafka", "nats" or anything else for none.
func New(backend, kafkaBrokers, natsURL string) (interfaces.EventPublisher, error) {
	switch backend {
	case "kafka":
		telemetry.Logger.Info("Publishing events to Kafka", zap.String("brokers", kafkaBrokers))
		return NewKafkaPublisher(kafkaBrokers), nil
	case "nats":
		telemetry.Logger.Info("Publishing events to NATS", zap.String("url", natsURL))
		return NewNatsPublisher(natsURL)
	default:
		return NopPublisher{}, nil
	}
}
