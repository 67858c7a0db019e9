package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"racereg/internal/orders"

	"github.com/IBM/sarama"
)

// Event types published to the order events topic.
const (
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
)

// OrderEvent is the message published when an order crosses a lifecycle
// boundary that downstream consumers (mailers, dashboards) care about.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderNumber string    `json:"order_number"`
	BibNumber   string    `json:"bib_number,omitempty"`
	Quantity    int       `json:"quantity"`
	TotalPrice  float64   `json:"total_price"`
	Customer    string    `json:"customer"`
	Email       string    `json:"email,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ProducerConfig contains configuration for the Kafka order event producer
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// KafkaOrderProducer publishes order lifecycle events to Kafka. It
// implements orders.EventPublisher.
type KafkaOrderProducer struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaOrderProducer creates a new Kafka order event producer.
func NewKafkaOrderProducer(config ProducerConfig) (*KafkaOrderProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps all events for one order on one partition.
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaOrderProducer{
		producer: producer,
		topic:    config.Topic,
	}, nil
}

func (p *KafkaOrderProducer) PublishOrderPaid(ctx context.Context, order *orders.Order) error {
	return p.publish(ctx, EventOrderPaid, order)
}

func (p *KafkaOrderProducer) PublishOrderCancelled(ctx context.Context, order *orders.Order) error {
	return p.publish(ctx, EventOrderCancelled, order)
}

func (p *KafkaOrderProducer) publish(ctx context.Context, eventType string, order *orders.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	customer := order.Customer()
	event := OrderEvent{
		Type:        eventType,
		OrderNumber: order.OrderNumber,
		Quantity:    order.Quantity,
		TotalPrice:  order.TotalPrice,
		Customer:    customer.Name,
		Email:       customer.Email,
		OccurredAt:  time.Now().UTC(),
	}
	if order.BibNumber != nil {
		event.BibNumber = *order.BibNumber
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(order.OrderNumber),
		Value: sarama.ByteEncoder(payload),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Close shuts down the underlying producer.
func (p *KafkaOrderProducer) Close() error {
	return p.producer.Close()
}
