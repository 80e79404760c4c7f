package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/mailer"
	"gorm.io/gorm"
)

// RegisterEventHandlers binds the email side effects to their outbox topics
func RegisterEventHandlers(d *Dispatcher, db *gorm.DB, emails *EmailService) {
	h := &eventHandlers{db: db, emails: emails}
	d.Handle(model.TopicPaymentApproved, h.paymentConfirmed)
	d.Handle(model.TopicOrderCompleted, h.paymentConfirmed)
	d.Handle(model.TopicPaymentRejected, h.paymentRejected)
	d.Handle(model.TopicUserRegistered, h.userRegistered)
	d.Handle(model.TopicCallbackRequest, h.callbackRequested)
}

type eventHandlers struct {
	db     *gorm.DB
	emails *EmailService
}

// delivered turns a mailer result into a retry decision. A skipped send
// (no transport) is final.
func delivered(res mailer.Result) error {
	if res.Status == mailer.StatusFailed {
		return fmt.Errorf("email delivery failed: %s", res.Reason)
	}
	return nil
}

func decodePayload(event *model.OutboxEvent, v interface{}) error {
	if err := json.Unmarshal(event.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.Topic, err)
	}
	return nil
}

func (h *eventHandlers) loadOrder(ctx context.Context, event *model.OutboxEvent) (*model.Order, error) {
	var payload OrderEvent
	if err := decodePayload(event, &payload); err != nil {
		return nil, err
	}

	var order model.Order
	err := h.db.WithContext(ctx).
		Preload("Items").
		Preload("Invoice").
		Preload("User").
		First(&order, payload.OrderID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", payload.OrderID, err)
	}
	if order.User == nil {
		return nil, fmt.Errorf("order %d has no user", order.ID)
	}
	return &order, nil
}

func paymentEmailFor(order *model.Order) PaymentEmail {
	p := PaymentEmail{
		To:          order.User.Email,
		UserName:    order.User.Name,
		OrderNumber: order.OrderNumber,
		Method:      order.PaymentMethod,
		Subtotal:    order.TotalAmount,
		Discount:    order.DiscountAmount,
		Total:       order.FinalAmount,
		Reason:      order.RejectionReason,
	}
	if order.Invoice != nil {
		p.InvoiceNumber = order.Invoice.InvoiceNumber
	}
	for _, item := range order.Items {
		p.Lines = append(p.Lines, InvoiceLine{Title: item.CourseTitle, Price: item.Price})
	}
	return p
}

func (h *eventHandlers) paymentConfirmed(ctx context.Context, event *model.OutboxEvent) error {
	order, err := h.loadOrder(ctx, event)
	if err != nil {
		return err
	}
	return delivered(h.emails.SendPaymentApproved(ctx, paymentEmailFor(order)))
}

func (h *eventHandlers) paymentRejected(ctx context.Context, event *model.OutboxEvent) error {
	order, err := h.loadOrder(ctx, event)
	if err != nil {
		return err
	}
	return delivered(h.emails.SendPaymentRejected(ctx, paymentEmailFor(order)))
}

func (h *eventHandlers) userRegistered(ctx context.Context, event *model.OutboxEvent) error {
	var payload UserEvent
	if err := decodePayload(event, &payload); err != nil {
		return err
	}

	var user model.User
	if err := h.db.WithContext(ctx).First(&user, payload.UserID).Error; err != nil {
		// Account deleted before the welcome went out
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load user %d: %w", payload.UserID, err)
	}
	return delivered(h.emails.SendWelcomeEmail(ctx, &user))
}

func (h *eventHandlers) callbackRequested(ctx context.Context, event *model.OutboxEvent) error {
	var payload CallbackEvent
	if err := decodePayload(event, &payload); err != nil {
		return err
	}

	var req model.CallbackRequest
	if err := h.db.WithContext(ctx).Preload("Course").First(&req, payload.CallbackRequestID).Error; err != nil {
		return fmt.Errorf("failed to load callback request %d: %w", payload.CallbackRequestID, err)
	}

	courseTitle := ""
	if req.Course != nil {
		courseTitle = req.Course.Title
	}
	return delivered(h.emails.SendCallbackRequest(ctx, &req, courseTitle))
}
