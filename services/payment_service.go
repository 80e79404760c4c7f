package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/services/storage"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"github.com/sahilchouksey/codelearn-api/utils/logger"
	"github.com/sahilchouksey/codelearn-api/utils/metrics"
	"github.com/sahilchouksey/codelearn-api/utils/pdfvalidation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentMethod is a checkout strategy. Every strategy starts from a pending
// order created from the cart.
type PaymentMethod interface {
	Name() model.PaymentMethod
	Checkout(ctx context.Context, user *model.User, req CheckoutRequest) (*CheckoutResult, error)
}

// CheckoutRequest carries method specific checkout input
type CheckoutRequest struct {
	// UPI
	TransactionReference string
	ProofFilename        string
	Proof                []byte
}

// RazorpayCheckout is what the client needs to open the Razorpay widget
type RazorpayCheckout struct {
	KeyID       string `json:"key_id"`
	OrderID     string `json:"razorpay_order_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderNumber string `json:"order_number"`
}

// CheckoutResult is the outcome of a checkout
type CheckoutResult struct {
	Order       *model.Order              `json:"order"`
	Transaction *model.PaymentTransaction `json:"transaction"`
	Invoice     *model.Invoice            `json:"invoice,omitempty"`
	Razorpay    *RazorpayCheckout         `json:"razorpay,omitempty"`
}

// RazorpayVerifyRequest is the payload the Razorpay widget hands back
type RazorpayVerifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// PaymentDeps wires the payment strategies
type PaymentDeps struct {
	DB          *gorm.DB
	Orders      *OrderService
	Fulfillment *FulfillmentService
	Configs     *PaymentConfigService
	Razorpay    *RazorpayClient
	Storage     storage.Storage
	ProofLimits pdfvalidation.ProofLimits
}

// PaymentService dispatches checkouts to the registered strategies
type PaymentService struct {
	methods  map[model.PaymentMethod]PaymentMethod
	razorpay *RazorpayPayment
}

// NewPaymentService registers the card, Razorpay and UPI strategies
func NewPaymentService(deps PaymentDeps) *PaymentService {
	if deps.ProofLimits.MaxFileSizeMB == 0 {
		deps.ProofLimits = pdfvalidation.DefaultProofLimits
	}
	rzp := &RazorpayPayment{deps: deps}
	s := &PaymentService{
		methods:  make(map[model.PaymentMethod]PaymentMethod),
		razorpay: rzp,
	}
	s.Register(&CardPayment{deps: deps})
	s.Register(rzp)
	s.Register(&UPIPayment{deps: deps})
	return s
}

// Register adds or replaces a strategy
func (s *PaymentService) Register(m PaymentMethod) {
	s.methods[m.Name()] = m
}

// Checkout runs the strategy registered for method
func (s *PaymentService) Checkout(ctx context.Context, method model.PaymentMethod, user *model.User, req CheckoutRequest) (*CheckoutResult, error) {
	m, ok := s.methods[method]
	if !ok {
		return nil, newValidationError("payment_method", fmt.Sprintf("unsupported payment method %q", method))
	}

	start := time.Now()
	result, err := m.Checkout(ctx, user, req)
	metrics.CheckoutDuration.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	logger.L().Info("checkout completed",
		"user_id", user.ID,
		"method", method,
		"order_number", result.Order.OrderNumber,
		"status", result.Order.PaymentStatus,
	)
	return result, nil
}

// VerifyRazorpay confirms a Razorpay payment
func (s *PaymentService) VerifyRazorpay(ctx context.Context, user *model.User, req RazorpayVerifyRequest) (*CheckoutResult, error) {
	return s.razorpay.Verify(ctx, user, req)
}

func newTransaction(order *model.Order, status model.TransactionStatus) *model.PaymentTransaction {
	return &model.PaymentTransaction{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TransactionID: generator.TransactionID(time.Now().UTC()),
		PaymentMethod: order.PaymentMethod,
		Amount:        order.FinalAmount,
		Currency:      "INR",
		Status:        status,
	}
}

// CardPayment settles immediately. There is no real card processor behind it.
type CardPayment struct {
	deps PaymentDeps
}

func (p *CardPayment) Name() model.PaymentMethod { return model.PaymentMethodCard }

func (p *CardPayment) Checkout(ctx context.Context, user *model.User, _ CheckoutRequest) (*CheckoutResult, error) {
	result := &CheckoutResult{}
	err := p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := p.deps.Orders.CreateOrder(tx, user.ID, model.PaymentMethodCard)
		if err != nil {
			return err
		}

		txn := newTransaction(order, model.TransactionStatusSuccess)
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		invoice, err := p.deps.Fulfillment.completeOrder(tx, order, nil, model.TopicOrderCompleted)
		if err != nil {
			return err
		}
		result.Order, result.Transaction, result.Invoice = order, txn, invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.deps.Fulfillment.afterTransition(result.Order, model.PaymentStatusCompleted)
	return result, nil
}

// RazorpayPayment registers a gateway order at checkout and completes it when
// the signed payment comes back
type RazorpayPayment struct {
	deps PaymentDeps
}

func (p *RazorpayPayment) Name() model.PaymentMethod { return model.PaymentMethodRazorpay }

func (p *RazorpayPayment) Checkout(ctx context.Context, user *model.User, _ CheckoutRequest) (*CheckoutResult, error) {
	creds, err := p.deps.Configs.RazorpayCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: razorpay is not configured", ErrExternal)
	}

	result := &CheckoutResult{}
	err = p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := p.deps.Orders.CreateOrder(tx, user.ID, model.PaymentMethodRazorpay)
		if err != nil {
			return err
		}
		if !order.FinalAmount.IsPositive() {
			return newValidationError("payment_method", "nothing to pay online, use card checkout")
		}
		// The gateway order holds the coupon use until it is paid or expires
		if err := p.deps.Fulfillment.coupons.RedeemForOrder(tx, order); err != nil {
			return err
		}

		gwOrder, err := p.deps.Razorpay.CreateOrder(ctx, creds, order.FinalAmount, order.OrderNumber, map[string]string{
			"user_id":      strconv.FormatUint(uint64(user.ID), 10),
			"order_number": order.OrderNumber,
		})
		if err != nil {
			return err
		}

		if err := tx.Model(order).Update("razorpay_order_id", gwOrder.ID).Error; err != nil {
			return fmt.Errorf("failed to store gateway order: %w", err)
		}
		order.RazorpayOrderID = gwOrder.ID

		txn := newTransaction(order, model.TransactionStatusPending)
		txn.RazorpayOrderID = gwOrder.ID
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result.Order, result.Transaction = order, txn
		result.Razorpay = &RazorpayCheckout{
			KeyID:       creds.KeyID,
			OrderID:     gwOrder.ID,
			Amount:      gwOrder.Amount,
			Currency:    gwOrder.Currency,
			OrderNumber: order.OrderNumber,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Verify checks the payment signature. A mismatch fails the attempt and
// leaves the order pending so the user can pay again.
func (p *RazorpayPayment) Verify(ctx context.Context, user *model.User, req RazorpayVerifyRequest) (*CheckoutResult, error) {
	creds, err := p.deps.Configs.RazorpayCredentials(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result    = &CheckoutResult{}
		sigErr    error
		completed bool
	)
	err = p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("razorpay_order_id = ? AND user_id = ?", req.RazorpayOrderID, user.ID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch order: %w", err)
		}
		result.Order = &order

		// The widget may call back twice for one payment
		if order.IsCompleted() && order.RazorpayPaymentID == req.RazorpayPaymentID {
			var invoice model.Invoice
			if err := tx.Where("order_id = ?", order.ID).First(&invoice).Error; err == nil {
				result.Invoice = &invoice
			}
			return nil
		}
		if order.PaymentStatus != model.PaymentStatusPending {
			return fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.PaymentStatus)
		}

		var txn model.PaymentTransaction
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND razorpay_order_id = ? AND status IN ?", order.ID, req.RazorpayOrderID,
				[]model.TransactionStatus{model.TransactionStatusPending, model.TransactionStatusFailed}).
			Order("id DESC").
			First(&txn).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch transaction: %w", err)
		}
		result.Transaction = &txn

		if !VerifyRazorpaySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, creds.KeySecret) {
			err := tx.Model(&txn).Updates(map[string]interface{}{
				"status":              model.TransactionStatusFailed,
				"razorpay_payment_id": req.RazorpayPaymentID,
				"razorpay_signature":  req.RazorpaySignature,
			}).Error
			if err != nil {
				return fmt.Errorf("failed to record failed payment: %w", err)
			}
			// Commit the failed attempt, then report the mismatch
			sigErr = ErrInvalidSignature
			return nil
		}

		now := time.Now().UTC()
		err = tx.Model(&txn).Updates(map[string]interface{}{
			"status":              model.TransactionStatusSuccess,
			"razorpay_payment_id": req.RazorpayPaymentID,
			"razorpay_signature":  req.RazorpaySignature,
			"verified_at":         now,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		txn.Status = model.TransactionStatusSuccess

		if err := tx.Model(&order).Update("razorpay_payment_id", req.RazorpayPaymentID).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		order.RazorpayPaymentID = req.RazorpayPaymentID

		invoice, err := p.deps.Fulfillment.completeOrder(tx, &order, nil, model.TopicOrderCompleted)
		if err != nil {
			return err
		}
		result.Invoice = invoice
		completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sigErr != nil {
		logger.L().Warn("razorpay signature mismatch",
			"user_id", user.ID,
			"razorpay_order_id", req.RazorpayOrderID,
		)
		return nil, sigErr
	}

	if completed {
		p.deps.Fulfillment.afterTransition(result.Order, model.PaymentStatusCompleted)
	}
	return result, nil
}

// UPIPayment records a manual transfer for admin review. The order stays
// pending until a reviewer approves or rejects it.
type UPIPayment struct {
	deps PaymentDeps
}

func (p *UPIPayment) Name() model.PaymentMethod { return model.PaymentMethodUPI }

func (p *UPIPayment) Checkout(ctx context.Context, user *model.User, req CheckoutRequest) (*CheckoutResult, error) {
	reference := strings.TrimSpace(req.TransactionReference)
	if reference == "" {
		return nil, newValidationError("transaction_reference", "UPI transaction reference is required")
	}
	if len(reference) > 100 {
		return nil, newValidationError("transaction_reference", "UPI transaction reference is too long")
	}

	proofKey, err := p.storeProof(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{}
	err = p.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := p.deps.Orders.CreateOrder(tx, user.ID, model.PaymentMethodUPI)
		if err != nil {
			return err
		}

		txn := newTransaction(order, model.TransactionStatusPending)
		txn.UPITransactionRef = reference
		txn.ProofURL = proofKey
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		// Submitting the transfer uses up the coupon
		if err := p.deps.Fulfillment.coupons.RedeemForOrder(tx, order); err != nil {
			return err
		}

		if _, err := p.deps.Fulfillment.outbox.Enqueue(tx, model.TopicPaymentSubmitted, order.OrderNumber, orderEvent(order)); err != nil {
			return err
		}
		result.Order, result.Transaction = order, txn
		return nil
	})
	if err != nil {
		if proofKey != "" {
			if derr := p.deps.Storage.Delete(context.WithoutCancel(ctx), proofKey); derr != nil {
				logger.L().Warn("failed to remove orphaned payment proof", "key", proofKey, "error", derr)
			}
		}
		return nil, err
	}

	p.deps.Fulfillment.outbox.Nudge()
	return result, nil
}

// storeProof validates and uploads the optional proof, returning its storage key
func (p *UPIPayment) storeProof(ctx context.Context, req CheckoutRequest) (string, error) {
	if len(req.Proof) == 0 {
		return "", nil
	}
	if p.deps.Storage == nil {
		return "", fmt.Errorf("%w: proof storage is not configured", ErrExternal)
	}

	check, err := pdfvalidation.ValidateProof(req.ProofFilename, req.Proof, p.deps.ProofLimits)
	if err != nil {
		return "", fmt.Errorf("failed to inspect payment proof: %w", err)
	}
	if !check.Valid {
		return "", newValidationError("proof", check.Error)
	}

	key := storage.GenerateKey("payment-proofs", check.Extension, time.Now())
	if err := p.deps.Storage.Put(ctx, key, req.Proof, check.ContentType); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExternal, err)
	}
	return key, nil
}
