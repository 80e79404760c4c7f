package model

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxStatus is the delivery state of an outbox event
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// Outbox topics
const (
	TopicPaymentApproved  = "payment.approved"
	TopicPaymentRejected  = "payment.rejected"
	TopicPaymentSubmitted = "payment.submitted"
	TopicOrderCompleted   = "order.completed"
	TopicOrderRefunded    = "order.refunded"
	TopicOrderExpired     = "order.expired"
	TopicUserRegistered   = "user.registered"
	TopicCallbackRequest  = "callback.requested"
)

// OutboxEvent is a side effect recorded in the same transaction as the state
// change that caused it and delivered after commit
type OutboxEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Topic         string         `gorm:"type:varchar(100);not null;index" json:"topic"`
	AggregateID   string         `gorm:"type:varchar(100);index" json:"aggregate_id"`
	Payload       datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Status        OutboxStatus   `gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_due,priority:1" json:"status"`
	NextAttemptAt time.Time      `gorm:"not null;index:idx_outbox_due,priority:2" json:"next_attempt_at"`
	Attempts      int            `gorm:"default:0" json:"attempts"`
	LastError     string         `gorm:"type:text" json:"last_error,omitempty"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
}

// TableName specifies the table name for OutboxEvent
func (OutboxEvent) TableName() string {
	return "outbox_events"
}
