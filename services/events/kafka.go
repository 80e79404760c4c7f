// Package events publishes domain events to Kafka
package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/metrics"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes outbox events to a single Kafka topic, keyed by aggregate
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a synchronous writer so that a returned nil means
// the leader acknowledged the message
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.L().Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.L().Warn(fmt.Sprintf(msg, args...))
		}),
	}

	logger.L().Info("kafka publisher initialized", "brokers", brokers, "topic", topic)
	return &KafkaPublisher{writer: writer}
}

// Publish writes one event. The event topic travels as a header.
func (p *KafkaPublisher) Publish(ctx context.Context, event *model.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Topic)},
			{Key: "event_id", Value: []byte(strconv.FormatUint(uint64(event.ID), 10))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventPublishErrors.Inc()
		return fmt.Errorf("failed to publish event %d: %w", event.ID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
