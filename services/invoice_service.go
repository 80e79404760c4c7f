package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceService issues and reads invoices
type InvoiceService struct {
	db *gorm.DB
}

// NewInvoiceService creates an invoice service
func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// EnsureInvoice returns the order's invoice, creating it on first call
func (s *InvoiceService) EnsureInvoice(tx *gorm.DB, order *model.Order) (*model.Invoice, error) {
	if !order.IsCompleted() {
		return nil, fmt.Errorf("%w: invoice requires a completed order", ErrInvalidTransition)
	}

	var existing model.Invoice
	err := tx.Where("order_id = ?", order.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}

	invoice := &model.Invoice{
		OrderID:        order.ID,
		InvoiceNumber:  generator.InvoiceNumber(time.Now().UTC()),
		Subtotal:       order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		TaxAmount:      decimal.Zero,
		TotalAmount:    order.FinalAmount,
		Notes:          "Payment via " + paymentMethodLabel(order.PaymentMethod),
	}
	if err := tx.Create(invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

// GetForOrder returns the invoice of one of the user's orders
func (s *InvoiceService) GetForOrder(ctx context.Context, userID uint, orderNumber string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := s.db.WithContext(ctx).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Where("orders.order_number = ? AND orders.user_id = ?", orderNumber, userID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return &invoice, nil
}

func paymentMethodLabel(m model.PaymentMethod) string {
	switch m {
	case model.PaymentMethodCard:
		return "Card"
	case model.PaymentMethodRazorpay:
		return "Razorpay"
	case model.PaymentMethodUPI:
		return "UPI"
	default:
		return string(m)
	}
}
