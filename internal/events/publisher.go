package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Product event types
const (
	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is published after a successful product write
type ProductEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID int64     `json:"product_id"`
	Name      string    `json:"name,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewProductEvent builds an event with a fresh id and timestamp
func NewProductEvent(eventType string, productID int64, name string, price float64) ProductEvent {
	return ProductEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		ProductID: productID,
		Name:      name,
		Price:     price,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher sends product events to a message broker
type Publisher interface {
	Publish(ctx context.Context, event ProductEvent) error
	Close() error
}

// KafkaPublisher writes product events to a Kafka topic, keyed by product id
// so per-product ordering is preserved across partitions.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ProductEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ProductID, 10)),
		Value: value,
		Time:  event.Timestamp,
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write product event: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events; used when Kafka is not configured
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event ProductEvent) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
