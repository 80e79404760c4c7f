package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sahilchouksey/codelearn-api/database"
	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/metrics"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxMaxAttempts = 5
	outboxBatchSize   = 50
	outboxBaseBackoff = 30 * time.Second
	outboxLease       = 2 * time.Minute
	outboxPollEvery   = 15 * time.Second
)

// Outbox records side effects inside the transaction that causes them
type Outbox struct {
	kick chan struct{}
}

// NewOutbox creates an outbox
func NewOutbox() *Outbox {
	return &Outbox{kick: make(chan struct{}, 1)}
}

// Enqueue appends an event on tx. On Postgres a NOTIFY is queued too and is
// delivered only if tx commits.
func (o *Outbox) Enqueue(tx *gorm.DB, topic, aggregateID string, payload interface{}) (*model.OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}

	event := &model.OutboxEvent{
		Topic:         topic,
		AggregateID:   aggregateID,
		Payload:       datatypes.JSON(data),
		Status:        model.OutboxStatusPending,
		NextAttemptAt: time.Now().UTC(),
	}
	if err := tx.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to write outbox event: %w", err)
	}

	if err := database.Notify(tx, database.OutboxChannel, strconv.FormatUint(uint64(event.ID), 10)); err != nil {
		return nil, err
	}
	return event, nil
}

// Nudge wakes the dispatcher. Call it after the enqueuing transaction committed.
func (o *Outbox) Nudge() {
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// EventHandler performs the side effect of one event
type EventHandler func(ctx context.Context, event *model.OutboxEvent) error

// EventPublisher forwards events to a broker
type EventPublisher interface {
	Publish(ctx context.Context, event *model.OutboxEvent) error
	Close() error
}

// Dispatcher delivers pending outbox events with exponential backoff
type Dispatcher struct {
	db        *gorm.DB
	outbox    *Outbox
	publisher EventPublisher

	mu       sync.RWMutex
	handlers map[string]EventHandler

	now func() time.Time
}

// NewDispatcher creates a dispatcher. publisher may be nil.
func NewDispatcher(db *gorm.DB, outbox *Outbox, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{
		db:        db,
		outbox:    outbox,
		publisher: publisher,
		handlers:  make(map[string]EventHandler),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle registers the handler for a topic
func (d *Dispatcher) Handle(topic string, h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[topic] = h
}

func (d *Dispatcher) handler(topic string) EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[topic]
}

// Run dispatches on every nudge and on a fixed interval until ctx ends
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(outboxPollEvery)
	defer ticker.Stop()

	logger.L().Info("outbox dispatcher started")
	for {
		select {
		case <-ctx.Done():
			logger.L().Info("outbox dispatcher stopped")
			return
		case <-d.outbox.kick:
		case <-ticker.C:
		}

		if _, err := d.DispatchPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Error("outbox dispatch failed", "error", err)
		}
	}
}

// DispatchPending delivers every due event and returns how many were sent
func (d *Dispatcher) DispatchPending(ctx context.Context) (int, error) {
	sent := 0
	for {
		events, err := d.claim(ctx)
		if err != nil {
			return sent, err
		}
		if len(events) == 0 {
			return sent, nil
		}

		for i := range events {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			if d.deliver(ctx, &events[i]) {
				sent++
			}
		}

		if len(events) < outboxBatchSize {
			return sent, nil
		}
	}
}

// claim leases a batch of due events by pushing next_attempt_at forward, so
// other instances skip them while they are being delivered
func (d *Dispatcher) claim(ctx context.Context) ([]model.OutboxEvent, error) {
	var events []model.OutboxEvent
	now := d.now()

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND next_attempt_at <= ?", model.OutboxStatusPending, now).
			Order("id").
			Limit(outboxBatchSize).
			Find(&events).Error
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]uint, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		return tx.Model(&model.OutboxEvent{}).
			Where("id IN ?", ids).
			Update("next_attempt_at", now.Add(outboxLease)).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox events: %w", err)
	}
	return events, nil
}

func (d *Dispatcher) deliver(ctx context.Context, event *model.OutboxEvent) bool {
	err := d.process(ctx, event)
	now := d.now()
	log := logger.L().With("event_id", event.ID, "topic", event.Topic, "aggregate_id", event.AggregateID)

	if err == nil {
		metrics.OutboxEvents.WithLabelValues(event.Topic, string(model.OutboxStatusSent)).Inc()
		if uerr := d.db.WithContext(ctx).Model(event).Updates(map[string]interface{}{
			"status":     model.OutboxStatusSent,
			"attempts":   event.Attempts + 1,
			"sent_at":    now,
			"last_error": "",
		}).Error; uerr != nil {
			log.Error("failed to mark outbox event sent", "error", uerr)
		}
		return true
	}

	attempts := event.Attempts + 1
	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": err.Error(),
	}
	if attempts >= outboxMaxAttempts {
		updates["status"] = model.OutboxStatusFailed
		metrics.OutboxEvents.WithLabelValues(event.Topic, string(model.OutboxStatusFailed)).Inc()
		log.Error("outbox event failed permanently", "attempts", attempts, "error", err)
	} else {
		updates["next_attempt_at"] = now.Add(outboxBackoff(attempts))
		metrics.OutboxEvents.WithLabelValues(event.Topic, "retry").Inc()
		log.Warn("outbox event delivery failed, will retry", "attempts", attempts, "error", err)
	}

	if uerr := d.db.WithContext(ctx).Model(event).Updates(updates).Error; uerr != nil {
		log.Error("failed to record outbox failure", "error", uerr)
	}
	return false
}

func (d *Dispatcher) process(ctx context.Context, event *model.OutboxEvent) error {
	if h := d.handler(event.Topic); h != nil {
		if err := h(ctx, event); err != nil {
			return err
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// outboxBackoff doubles from outboxBaseBackoff: 30s, 1m, 2m, 4m
func outboxBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return outboxBaseBackoff << (attempts - 1)
}

// OrderEvent is the payload of order and payment events
type OrderEvent struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      uint   `json:"user_id"`
	Method      string `json:"payment_method"`
	Amount      string `json:"amount"`
	Reason      string `json:"reason,omitempty"`
}

// UserEvent is the payload of account events
type UserEvent struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// CallbackEvent is the payload of callback request events
type CallbackEvent struct {
	CallbackRequestID uint `json:"callback_request_id"`
}

func orderEvent(order *model.Order) OrderEvent {
	return OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Method:      string(order.PaymentMethod),
		Amount:      order.FinalAmount.StringFixed(2),
		Reason:      order.RejectionReason,
	}
}
