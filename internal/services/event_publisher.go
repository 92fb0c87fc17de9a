package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/hyunwoogil/restaurant-order-service/internal/configs"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	kafkautils "github.com/hyunwoogil/restaurant-order-service/pkg/kafka"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"go.uber.org/zap"
)

// OrderEvent is the lifecycle event published to Kafka after a state change
// commits. Consumers (analytics, kitchen display) treat it as best-effort; the
// database remains the source of truth.
type OrderEvent struct {
	Type        string          `json:"type"` // order.created | order.accepted | order.completed | order.canceled
	OrderID     string          `json:"orderId"`
	OrderNo     int64           `json:"orderNo"`
	Status      pkg.OrderStatus `json:"status"`
	TotalAmount int64           `json:"totalAmount"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

func NewOrderEvent(eventType string, order models.Order) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     order.ID.String(),
		OrderNo:     order.OrderNo,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

type EventPublisher interface {
	PublishOrderEvent(traceID string, event OrderEvent) error
	Close()
}

type KafkaEventPublisherImpl struct {
	logger   *zap.Logger
	producer *kafka.Producer
	cnf      *configs.Config
}

// NewKafkaEventPublisher ensures the order-events topic exists and starts an
// idempotent producer.
func NewKafkaEventPublisher(logger *zap.Logger, ctx context.Context, cnf *configs.Config) (EventPublisher, error) {
	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaOrderTopic,
				NumPartitions:     int(cnf.KafkaPartition),
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cnf.KafkaOrderRetention.Milliseconds()),
				},
			},
		},
	}
	if err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig); err != nil {
		return nil, fmt.Errorf("failed to initialize kafka topics: %w", err)
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.KafkaBrokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "1",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cnf.KafkaBrokers))
	go handleDeliveryReports(logger, p)
	return &KafkaEventPublisherImpl{
		logger:   logger,
		producer: p,
		cnf:      cnf,
	}, nil
}

func (k KafkaEventPublisherImpl) PublishOrderEvent(traceID string, event OrderEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	// Partition by order id so all events of one order stay ordered.
	key := []byte(event.OrderID)
	partition := int32(binary.BigEndian.Uint32(key[:4]) % k.cnf.KafkaPartition)

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cnf.KafkaOrderTopic,
			Partition: partition,
		},
		Key:   key,
		Value: msgBytes,
	}, nil)
}

func (k KafkaEventPublisherImpl) Close() {
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish order event", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}

// NoopEventPublisher is used when no Kafka brokers are configured.
type NoopEventPublisher struct {
}

func NewNoopEventPublisher() EventPublisher {
	return &NoopEventPublisher{}
}

func (NoopEventPublisher) PublishOrderEvent(string, OrderEvent) error { return nil }
func (NoopEventPublisher) Close()                                     {}
