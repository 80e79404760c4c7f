package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Review outcomes
const (
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
	ReviewSkipped  = "skipped"
	ReviewFailed   = "failed"
)

// DefaultGatewayOrderTTL is how long a gateway order may stay pending
const DefaultGatewayOrderTTL = 30 * time.Minute

// FulfillmentService moves orders through their payment states and performs
// the effects of each transition
type FulfillmentService struct {
	db            *gorm.DB
	invoices      *InvoiceService
	coupons       *CouponService
	notifications *NotificationService
	outbox        *Outbox
	now           func() time.Time
}

// NewFulfillmentService creates a fulfillment service
func NewFulfillmentService(db *gorm.DB, invoices *InvoiceService, coupons *CouponService, notifications *NotificationService, outbox *Outbox) *FulfillmentService {
	return &FulfillmentService{
		db:            db,
		invoices:      invoices,
		coupons:       coupons,
		notifications: notifications,
		outbox:        outbox,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ReviewResult is the outcome of one manual review
type ReviewResult struct {
	TransactionID uint   `json:"transaction_id"`
	OrderNumber   string `json:"order_number,omitempty"`
	Status        string `json:"status"`
	Skipped       bool   `json:"skipped"`
	Error         string `json:"error,omitempty"`
}

// BatchResult summarises a batch review
type BatchResult struct {
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Results   []ReviewResult `json:"results"`
}

// completeOrder moves a pending order to completed and, on the same tx, grants
// enrollments, issues the invoice, redeems the coupon, notifies the user and
// records topic in the outbox.
func (s *FulfillmentService) completeOrder(tx *gorm.DB, order *model.Order, reviewerID *uint, topic string) (*model.Invoice, error) {
	if !order.CanTransitionTo(model.PaymentStatusCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.PaymentStatus, model.PaymentStatusCompleted)
	}

	now := s.now()
	updates := map[string]interface{}{
		"payment_status": model.PaymentStatusCompleted,
		"verified_at":    now,
	}
	if reviewerID != nil {
		updates["verified_by"] = *reviewerID
		order.VerifiedBy = reviewerID
	}
	if err := tx.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}
	order.PaymentStatus = model.PaymentStatusCompleted
	order.VerifiedAt = &now

	if order.Items == nil {
		if err := tx.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
			return nil, fmt.Errorf("failed to load order items: %w", err)
		}
	}

	courseIDs := make([]uint, 0, len(order.Items))
	for _, item := range order.Items {
		if _, err := grantEnrollment(tx, order.UserID, item.CourseID, now); err != nil {
			return nil, err
		}
		courseIDs = append(courseIDs, item.CourseID)
	}

	invoice, err := s.invoices.EnsureInvoice(tx, order)
	if err != nil {
		return nil, err
	}
	if err := s.coupons.RedeemForOrder(tx, order); err != nil {
		return nil, err
	}

	_, err = s.notifications.CreateInTx(tx, CreateNotificationRequest{
		UserID:   order.UserID,
		Type:     model.NotificationTypeSuccess,
		Category: model.NotificationCategoryPayment,
		Title:    "Payment confirmed",
		Message:  fmt.Sprintf("Your payment for order %s was confirmed. Your courses are ready in My Learning.", order.OrderNumber),
		OrderID:  &order.ID,
		Metadata: &model.NotificationMetadata{
			OrderNumber:   order.OrderNumber,
			InvoiceNumber: invoice.InvoiceNumber,
			CourseIDs:     courseIDs,
		},
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.outbox.Enqueue(tx, topic, order.OrderNumber, orderEvent(order)); err != nil {
		return nil, err
	}
	return invoice, nil
}

// grantEnrollment enrolls the user unless an enrollment exists. Only a new
// enrollment bumps the course counter and clears the course from the user's
// wishlist and cart.
func grantEnrollment(tx *gorm.DB, userID, courseID uint, now time.Time) (bool, error) {
	enrollment := model.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		LastAccessedAt: now,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create enrollment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := tx.Model(&model.Course{}).
		Where("id = ?", courseID).
		UpdateColumn("total_enrollments", gorm.Expr("total_enrollments + ?", 1)).Error
	if err != nil {
		return false, fmt.Errorf("failed to update enrollment count: %w", err)
	}

	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).Delete(&model.Wishlist{}).Error; err != nil {
		return false, fmt.Errorf("failed to update wishlist: %w", err)
	}

	carts := tx.Session(&gorm.Session{NewDB: true}).Model(&model.Cart{}).Select("id").Where("user_id = ?", userID)
	if err := tx.Where("course_id = ? AND cart_id IN (?)", courseID, carts).Delete(&model.CartItem{}).Error; err != nil {
		return false, fmt.Errorf("failed to update cart: %w", err)
	}
	return true, nil
}

// afterTransition runs once the transaction that moved order to status committed
func (s *FulfillmentService) afterTransition(order *model.Order, status model.PaymentStatus) {
	metrics.PaymentTransitions.WithLabelValues(string(order.PaymentMethod), string(status)).Inc()
	s.outbox.Nudge()
	logger.L().Info("order status changed",
		"order_number", order.OrderNumber,
		"method", order.PaymentMethod,
		"status", status,
	)
}

// lockForReview row-locks a transaction and its order
func lockForReview(tx *gorm.DB, txnID uint) (*model.PaymentTransaction, *model.Order, error) {
	var txn model.PaymentTransaction
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&txn, txnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}

	var order model.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, txn.OrderID).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &txn, &order, nil
}

func reviewable(txn *model.PaymentTransaction, order *model.Order) bool {
	return txn.IsPending() && order.PaymentStatus == model.PaymentStatusPending
}

// Approve confirms a manual payment. A transaction that was already reviewed is
// skipped without effects, so repeated approvals are safe.
func (s *FulfillmentService) Approve(ctx context.Context, reviewerID, txnID uint, notes string) (*ReviewResult, error) {
	result := &ReviewResult{TransactionID: txnID}
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, o, err := lockForReview(tx, txnID)
		if err != nil {
			return err
		}
		order = o
		result.OrderNumber = o.OrderNumber

		if !reviewable(txn, o) {
			result.Status, result.Skipped = ReviewSkipped, true
			return nil
		}

		err = tx.Model(txn).Updates(map[string]interface{}{
			"status":      model.TransactionStatusSuccess,
			"admin_notes": strings.TrimSpace(notes),
			"verified_by": reviewerID,
			"verified_at": s.now(),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		if _, err := s.completeOrder(tx, o, &reviewerID, model.TopicPaymentApproved); err != nil {
			return err
		}
		result.Status = ReviewApproved
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Skipped {
		s.afterTransition(order, model.PaymentStatusCompleted)
	}
	return result, nil
}

// Reject declines a manual payment. Nothing is granted and no invoice is issued.
func (s *FulfillmentService) Reject(ctx context.Context, reviewerID, txnID uint, reason string) (*ReviewResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newValidationError("reason", "rejection reason is required")
	}

	result := &ReviewResult{TransactionID: txnID}
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txn, o, err := lockForReview(tx, txnID)
		if err != nil {
			return err
		}
		order = o
		result.OrderNumber = o.OrderNumber

		if !reviewable(txn, o) {
			result.Status, result.Skipped = ReviewSkipped, true
			return nil
		}

		now := s.now()
		err = tx.Model(txn).Updates(map[string]interface{}{
			"status":      model.TransactionStatusFailed,
			"admin_notes": reason,
			"verified_by": reviewerID,
			"verified_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		err = tx.Model(o).Updates(map[string]interface{}{
			"payment_status":   model.PaymentStatusFailed,
			"verified_by":      reviewerID,
			"verified_at":      now,
			"rejection_reason": reason,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to reject order: %w", err)
		}
		o.PaymentStatus = model.PaymentStatusFailed
		o.RejectionReason = reason

		_, err = s.notifications.CreateInTx(tx, CreateNotificationRequest{
			UserID:   o.UserID,
			Type:     model.NotificationTypeError,
			Category: model.NotificationCategoryPayment,
			Title:    "Payment rejected",
			Message:  fmt.Sprintf("Your payment for order %s could not be verified: %s", o.OrderNumber, reason),
			OrderID:  &o.ID,
			Metadata: &model.NotificationMetadata{OrderNumber: o.OrderNumber, Reason: reason},
		})
		if err != nil {
			return err
		}

		if _, err := s.outbox.Enqueue(tx, model.TopicPaymentRejected, o.OrderNumber, orderEvent(o)); err != nil {
			return err
		}
		result.Status = ReviewRejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Skipped {
		s.afterTransition(order, model.PaymentStatusFailed)
	}
	return result, nil
}

// BatchApprove approves each transaction in its own database transaction
func (s *FulfillmentService) BatchApprove(ctx context.Context, reviewerID uint, txnIDs []uint, notes string) *BatchResult {
	return s.batch(txnIDs, func(id uint) (*ReviewResult, error) {
		return s.Approve(ctx, reviewerID, id, notes)
	})
}

// BatchReject rejects each transaction in its own database transaction
func (s *FulfillmentService) BatchReject(ctx context.Context, reviewerID uint, txnIDs []uint, reason string) (*BatchResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("reason", "rejection reason is required")
	}
	return s.batch(txnIDs, func(id uint) (*ReviewResult, error) {
		return s.Reject(ctx, reviewerID, id, reason)
	}), nil
}

func (s *FulfillmentService) batch(ids []uint, review func(uint) (*ReviewResult, error)) *BatchResult {
	out := &BatchResult{Results: make([]ReviewResult, 0, len(ids))}
	for _, id := range ids {
		res, err := review(id)
		switch {
		case err != nil:
			out.Failed++
			out.Results = append(out.Results, ReviewResult{TransactionID: id, Status: ReviewFailed, Error: err.Error()})
			logger.L().Warn("batch review item failed", "transaction_id", id, "error", err)
		case res.Skipped:
			out.Skipped++
			out.Results = append(out.Results, *res)
		default:
			out.Processed++
			out.Results = append(out.Results, *res)
		}
	}
	return out
}

// Refund marks a completed order refunded. Money movement and access are untouched.
func (s *FulfillmentService) Refund(ctx context.Context, adminID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", err)
		}
		if !order.CanTransitionTo(model.PaymentStatusRefunded) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.PaymentStatus, model.PaymentStatusRefunded)
		}

		if err := tx.Model(&order).Update("payment_status", model.PaymentStatusRefunded).Error; err != nil {
			return fmt.Errorf("failed to refund order: %w", err)
		}
		order.PaymentStatus = model.PaymentStatusRefunded

		_, err := s.notifications.CreateInTx(tx, CreateNotificationRequest{
			UserID:   order.UserID,
			Type:     model.NotificationTypeInfo,
			Category: model.NotificationCategoryPayment,
			Title:    "Order refunded",
			Message:  fmt.Sprintf("Order %s was refunded.", order.OrderNumber),
			OrderID:  &order.ID,
			Metadata: &model.NotificationMetadata{OrderNumber: order.OrderNumber},
		})
		if err != nil {
			return err
		}

		_, err = s.outbox.Enqueue(tx, model.TopicOrderRefunded, order.OrderNumber, orderEvent(&order))
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("order refunded", "order_number", order.OrderNumber, "admin_id", adminID)
	s.afterTransition(&order, model.PaymentStatusRefunded)
	return &order, nil
}

// ExpireStaleGatewayOrders fails Razorpay orders left pending for longer than
// age and puts their courses back into the buyer's cart
func (s *FulfillmentService) ExpireStaleGatewayOrders(ctx context.Context, age time.Duration) (int, error) {
	if age <= 0 {
		age = DefaultGatewayOrderTTL
	}
	cutoff := s.now().Add(-age)

	var ids []uint
	err := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("payment_method = ? AND payment_status = ? AND created_at < ?",
			model.PaymentMethodRazorpay, model.PaymentStatusPending, cutoff).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find stale orders: %w", err)
	}

	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		order, err := s.expireOrder(ctx, id)
		if err != nil {
			logger.L().Error("failed to expire order", "order_id", id, "error", err)
			continue
		}
		if order != nil {
			expired++
			s.afterTransition(order, model.PaymentStatusFailed)
		}
	}
	return expired, nil
}

func (s *FulfillmentService) expireOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	expired := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
			return fmt.Errorf("failed to fetch order: %w", err)
		}
		// Verified while we were scanning
		if order.PaymentStatus != model.PaymentStatusPending {
			return nil
		}

		const reason = "Payment was not completed in time"
		err := tx.Model(&order).Updates(map[string]interface{}{
			"payment_status":   model.PaymentStatusFailed,
			"rejection_reason": reason,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to expire order: %w", err)
		}
		order.PaymentStatus = model.PaymentStatusFailed
		order.RejectionReason = reason

		err = tx.Model(&model.PaymentTransaction{}).
			Where("order_id = ? AND status = ?", order.ID, model.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":      model.TransactionStatusFailed,
				"admin_notes": "expired",
			}).Error
		if err != nil {
			return fmt.Errorf("failed to expire transactions: %w", err)
		}

		if err := s.coupons.ReleaseForOrder(tx, &order); err != nil {
			return err
		}
		if err := restoreCart(tx, &order); err != nil {
			return err
		}

		if _, err := s.outbox.Enqueue(tx, model.TopicOrderExpired, order.OrderNumber, orderEvent(&order)); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil || !expired {
		return nil, err
	}
	return &order, nil
}

// restoreCart puts the courses of an abandoned order back into the user's cart
func restoreCart(tx *gorm.DB, order *model.Order) error {
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	cart, err := getOrCreateCart(tx, order.UserID, true)
	if err != nil {
		return err
	}

	for _, item := range items {
		enrolled, err := isEnrolled(tx, order.UserID, item.CourseID)
		if err != nil {
			return err
		}
		if enrolled {
			continue
		}
		ci := model.CartItem{CartID: cart.ID, CourseID: item.CourseID}
		if err := tx.Where(model.CartItem{CartID: cart.ID, CourseID: item.CourseID}).FirstOrCreate(&ci).Error; err != nil {
			return fmt.Errorf("failed to restore cart item: %w", err)
		}
	}

	if cart.CouponCode == "" && order.CouponCode != "" && !order.CouponRedeemed {
		if err := tx.Model(cart).Update("coupon_code", order.CouponCode).Error; err != nil {
			return fmt.Errorf("failed to restore coupon: %w", err)
		}
	}
	return nil
}
