package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartService manages the per-user cart and its applied coupon
type CartService struct {
	db      *gorm.DB
	coupons *CouponService
}

// NewCartService creates a cart service
func NewCartService(db *gorm.DB, coupons *CouponService) *CartService {
	return &CartService{db: db, coupons: coupons}
}

// CartView is the priced content of a cart
type CartView struct {
	Items       []model.CartItem `json:"items"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	CouponCode  string           `json:"coupon_code,omitempty"`
	CouponError string           `json:"coupon_error,omitempty"`
	Discount    decimal.Decimal  `json:"discount"`
	Total       decimal.Decimal  `json:"total"`
}

// cartQuote is a cart priced at one instant
type cartQuote struct {
	cart      *model.Cart
	items     []model.CartItem
	subtotal  decimal.Decimal
	coupon    *model.Coupon
	couponErr error
	discount  decimal.Decimal
}

func (q *cartQuote) total() decimal.Decimal {
	return q.subtotal.Sub(q.discount)
}

func (q *cartQuote) view() *CartView {
	v := &CartView{
		Items:    q.items,
		Subtotal: q.subtotal,
		Discount: q.discount,
		Total:    q.total(),
	}
	if v.Items == nil {
		v.Items = []model.CartItem{}
	}
	if q.cart != nil {
		v.CouponCode = q.cart.CouponCode
	}
	if q.couponErr != nil {
		v.CouponError = q.couponErr.Error()
	}
	return v
}

// getOrCreateCart returns the user's cart row. With lock set the row is held FOR UPDATE.
func getOrCreateCart(tx *gorm.DB, userID uint, lock bool) (*model.Cart, error) {
	cart := model.Cart{UserID: userID}
	if err := tx.Where(model.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if lock {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cart, cart.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to lock cart: %w", err)
		}
	}
	return &cart, nil
}

// quote prices a cart at read time. An applied coupon that no longer
// validates yields a zero discount and is reported in couponErr.
func (s *CartService) quote(tx *gorm.DB, cart *model.Cart) (*cartQuote, error) {
	var items []model.CartItem
	err := tx.Where("cart_id = ?", cart.ID).
		Preload("Course").
		Order("created_at, id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	q := &cartQuote{cart: cart, subtotal: decimal.Zero, discount: decimal.Zero}
	for _, item := range items {
		// Deleted courses drop out of the cart
		if item.Course == nil {
			continue
		}
		q.items = append(q.items, item)
		q.subtotal = q.subtotal.Add(item.Course.ActualPrice())
	}

	if cart.CouponCode != "" {
		discount, coupon, err := s.coupons.evaluate(tx, cart.CouponCode, q.subtotal)
		switch {
		case err == nil:
			q.coupon, q.discount = coupon, discount
		case isCouponRejection(err):
			q.couponErr = err
		default:
			return nil, err
		}
	}
	return q, nil
}

func isCouponRejection(err error) bool {
	return errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInactive) || errors.Is(err, ErrLimitReached)
}

// View returns the priced cart
func (s *CartService) View(ctx context.Context, userID uint) (*CartView, error) {
	db := s.db.WithContext(ctx)
	cart, err := getOrCreateCart(db, userID, false)
	if err != nil {
		return nil, err
	}
	q, err := s.quote(db, cart)
	if err != nil {
		return nil, err
	}
	return q.view(), nil
}

// Add puts a course in the cart. Adding a course twice is a no-op.
func (s *CartService) Add(ctx context.Context, userID, courseID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPurchasable(tx, userID, courseID); err != nil {
			return err
		}
		cart, err := getOrCreateCart(tx, userID, false)
		if err != nil {
			return err
		}
		item = model.CartItem{CartID: cart.ID, CourseID: courseID}
		return tx.Where(model.CartItem{CartID: cart.ID, CourseID: courseID}).FirstOrCreate(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Remove deletes an item from the user's own cart
func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to fetch cart item: %w", err)
		}

		var cart model.Cart
		if err := tx.First(&cart, item.CartID).Error; err != nil {
			return fmt.Errorf("failed to fetch cart: %w", err)
		}
		if cart.UserID != userID {
			return ErrForbidden
		}

		return tx.Delete(&item).Error
	})
}

// BuyNow replaces the cart contents with a single course
func (s *CartService) BuyNow(ctx context.Context, userID, courseID uint) (*CartView, error) {
	var view *CartView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkPurchasable(tx, userID, courseID); err != nil {
			return err
		}
		cart, err := getOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to empty cart: %w", err)
		}
		if err := tx.Create(&model.CartItem{CartID: cart.ID, CourseID: courseID}).Error; err != nil {
			return fmt.Errorf("failed to add course: %w", err)
		}
		q, err := s.quote(tx, cart)
		if err != nil {
			return err
		}
		view = q.view()
		return nil
	})
	return view, err
}

// ApplyCoupon validates code against the current subtotal and stores it on the
// cart. A rejected code leaves the previously applied coupon in place.
func (s *CartService) ApplyCoupon(ctx context.Context, userID uint, code string) (*CartView, error) {
	var view *CartView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := getOrCreateCart(tx, userID, true)
		if err != nil {
			return err
		}
		q, err := s.quote(tx, cart)
		if err != nil {
			return err
		}
		if len(q.items) == 0 {
			return ErrEmptyCart
		}

		discount, coupon, err := s.coupons.evaluate(tx, code, q.subtotal)
		if err != nil {
			return err
		}

		if err := tx.Model(cart).Update("coupon_code", coupon.Code).Error; err != nil {
			return fmt.Errorf("failed to apply coupon: %w", err)
		}
		q.coupon, q.discount, q.couponErr = coupon, discount, nil
		view = q.view()
		return nil
	})
	return view, err
}

// RemoveCoupon clears the applied coupon
func (s *CartService) RemoveCoupon(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.Cart{}).
		Where("user_id = ?", userID).
		Update("coupon_code", "").Error
}

// clearCart deletes every item and the applied coupon
func clearCart(tx *gorm.DB, cart *model.Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	if err := tx.Model(cart).Update("coupon_code", "").Error; err != nil {
		return fmt.Errorf("failed to clear cart coupon: %w", err)
	}
	return nil
}

func (s *CartService) checkPurchasable(tx *gorm.DB, userID, courseID uint) error {
	var course model.Course
	if err := tx.Where("id = ? AND is_published = ?", courseID, true).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch course: %w", err)
	}

	enrolled, err := isEnrolled(tx, userID, courseID)
	if err != nil {
		return err
	}
	if enrolled {
		return ErrAlreadyEnrolled
	}
	return nil
}

func isEnrolled(tx *gorm.DB, userID, courseID uint) (bool, error) {
	var count int64
	err := tx.Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return count > 0, nil
}
