package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/generator"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const orderNumberAttempts = 5

// OrderService turns carts into orders and reads order history
type OrderService struct {
	db    *gorm.DB
	carts *CartService
}

// NewOrderService creates an order service
func NewOrderService(db *gorm.DB, carts *CartService) *OrderService {
	return &OrderService{db: db, carts: carts}
}

// CreateOrder snapshots the user's cart into a pending order and empties the
// cart, all on tx. The cart row stays locked until tx ends, so a concurrent
// checkout of the same cart sees it empty.
func (s *OrderService) CreateOrder(tx *gorm.DB, userID uint, method model.PaymentMethod) (*model.Order, error) {
	cart, err := getOrCreateCart(tx, userID, true)
	if err != nil {
		return nil, err
	}
	q, err := s.carts.quote(tx, cart)
	if err != nil {
		return nil, err
	}
	if len(q.items) == 0 {
		return nil, ErrEmptyCart
	}

	for _, item := range q.items {
		enrolled, err := isEnrolled(tx, userID, item.CourseID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyEnrolled, item.Course.Title)
		}
	}

	order := &model.Order{
		UserID:         userID,
		TotalAmount:    q.subtotal,
		DiscountAmount: q.discount,
		FinalAmount:    q.total(),
		PaymentStatus:  model.PaymentStatusPending,
		PaymentMethod:  method,
	}
	if q.coupon != nil {
		order.CouponCode = q.coupon.Code
	}

	if err := insertWithOrderNumber(tx, order); err != nil {
		return nil, err
	}

	order.Items = make([]model.OrderItem, 0, len(q.items))
	for _, item := range q.items {
		order.Items = append(order.Items, model.OrderItem{
			OrderID:     order.ID,
			CourseID:    item.CourseID,
			CourseTitle: item.Course.Title,
			Price:       item.Course.ActualPrice(),
		})
	}
	if err := tx.Create(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to create order items: %w", err)
	}

	if err := clearCart(tx, cart); err != nil {
		return nil, err
	}
	return order, nil
}

// insertWithOrderNumber retries on an order number collision. Each attempt runs
// in a savepoint so a unique violation does not abort the outer transaction.
func insertWithOrderNumber(tx *gorm.DB, order *model.Order) error {
	for attempt := 1; ; attempt++ {
		order.OrderNumber = generator.OrderNumber()
		err := tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(order).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == orderNumberAttempts {
			return fmt.Errorf("failed to create order: %w", err)
		}
		order.ID = 0
	}
}

// OrderHistory lists the user's orders, newest first
func (s *OrderService) OrderHistory(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	return orders, nil
}

// OrderDetail returns one of the user's orders with its items, payments and invoice
func (s *OrderService) OrderDetail(ctx context.Context, userID uint, orderNumber string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Where("order_number = ? AND user_id = ?", orderNumber, userID).
		Preload("Items").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Invoice").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &order, nil
}

// TransactionFilter narrows the admin transaction list
type TransactionFilter struct {
	Status model.TransactionStatus
	Method model.PaymentMethod
	Page   int
	Limit  int
}

// ListTransactions returns payment transactions for review, newest first
func (s *OrderService) ListTransactions(ctx context.Context, f TransactionFilter) ([]model.PaymentTransaction, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.PaymentTransaction{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Method != "" {
		query = query.Where("payment_method = ?", f.Method)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txns []model.PaymentTransaction
	err := query.
		Preload("Order.Items").
		Preload("User").
		Order("created_at DESC, id DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions: %w", err)
	}
	return txns, total, nil
}

// GetTransaction returns a single transaction for review
func (s *OrderService) GetTransaction(ctx context.Context, id uint) (*model.PaymentTransaction, error) {
	var txn model.PaymentTransaction
	err := s.db.WithContext(ctx).Preload("Order.Items").Preload("User").First(&txn, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch transaction: %w", err)
	}
	return &txn, nil
}
