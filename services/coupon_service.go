package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService evaluates and administers discount codes
type CouponService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCouponService creates a coupon service
func NewCouponService(db *gorm.DB) *CouponService {
	return &CouponService{db: db, now: time.Now}
}

// CouponInput is the admin form for a coupon
type CouponInput struct {
	Code          string             `json:"code" validate:"required,coupon"`
	Description   string             `json:"description"`
	DiscountType  model.DiscountType `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	ValidFrom     time.Time          `json:"valid_from" validate:"required"`
	ValidUntil    time.Time          `json:"valid_until" validate:"required"`
	UsageLimit    int                `json:"usage_limit" validate:"gte=0"`
	IsActive      *bool              `json:"is_active"`
}

// NormalizeCode trims and upper-cases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate returns the discount code grants on subtotal right now
func (s *CouponService) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, *model.Coupon, error) {
	return s.evaluate(s.db.WithContext(ctx), code, subtotal)
}

func (s *CouponService) evaluate(tx *gorm.DB, code string, subtotal decimal.Decimal) (decimal.Decimal, *model.Coupon, error) {
	coupon, err := s.lookup(tx, code)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if err := couponStateError(coupon.State(s.now())); err != nil {
		return decimal.Zero, coupon, err
	}
	return coupon.DiscountFor(subtotal), coupon, nil
}

func (s *CouponService) lookup(tx *gorm.DB, code string) (*model.Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	var coupon model.Coupon
	if err := tx.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	return &coupon, nil
}

func couponStateError(state model.CouponState) error {
	switch state {
	case model.CouponStateInactive:
		return ErrInactive
	case model.CouponStateExpired:
		return ErrExpired
	case model.CouponStateLimitReached:
		return ErrLimitReached
	default:
		return nil
	}
}

// RedeemForOrder counts one use of the order's coupon. It is a no-op when the
// order has no coupon or already redeemed it, so callers may invoke it on every
// finalization path. The increment only lands while the coupon has uses left;
// otherwise it returns ErrLimitReached and the caller's transaction rolls back.
func (s *CouponService) RedeemForOrder(tx *gorm.DB, order *model.Order) error {
	if order.CouponCode == "" || order.CouponRedeemed {
		return nil
	}

	res := tx.Model(&model.Coupon{}).
		Where("code = ? AND (usage_limit = 0 OR used_count < usage_limit)", order.CouponCode).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to redeem coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLimitReached
	}

	if err := tx.Model(order).UpdateColumn("coupon_redeemed", true).Error; err != nil {
		return fmt.Errorf("failed to mark coupon redeemed: %w", err)
	}
	order.CouponRedeemed = true
	return nil
}

// ReleaseForOrder hands back the use an abandoned order took
func (s *CouponService) ReleaseForOrder(tx *gorm.DB, order *model.Order) error {
	if order.CouponCode == "" || !order.CouponRedeemed {
		return nil
	}

	err := tx.Model(&model.Coupon{}).
		Where("code = ? AND used_count > 0", order.CouponCode).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to release coupon: %w", err)
	}

	if err := tx.Model(order).UpdateColumn("coupon_redeemed", false).Error; err != nil {
		return fmt.Errorf("failed to mark coupon released: %w", err)
	}
	order.CouponRedeemed = false
	return nil
}

// List returns coupons, newest first
func (s *CouponService) List(ctx context.Context, page, limit int) ([]model.Coupon, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	var coupons []model.Coupon
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&coupons).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch coupons: %w", err)
	}
	return coupons, total, nil
}

// Create adds a coupon
func (s *CouponService) Create(ctx context.Context, in CouponInput) (*model.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}

	coupon := &model.Coupon{IsActive: true}
	applyCouponInput(coupon, in)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(coupon).Error; err != nil {
			return err
		}
		// is_active has a column default, so false needs an explicit write
		if !coupon.IsActive {
			return tx.Model(coupon).Update("is_active", false).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coupon %s already exists", ErrConflict, coupon.Code)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}
	return coupon, nil
}

// Update replaces a coupon's settings. used_count is never touched.
func (s *CouponService) Update(ctx context.Context, id uint, in CouponInput) (*model.Coupon, error) {
	if err := validateCouponInput(in); err != nil {
		return nil, err
	}

	var coupon model.Coupon
	if err := s.db.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	applyCouponInput(&coupon, in)

	err := s.db.WithContext(ctx).Model(&coupon).
		Select("code", "description", "discount_type", "discount_value", "valid_from", "valid_until", "usage_limit", "is_active").
		Updates(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coupon %s already exists", ErrConflict, coupon.Code)
		}
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return &coupon, nil
}

// Deactivate switches a coupon off
func (s *CouponService) Deactivate(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func validateCouponInput(in CouponInput) error {
	if !in.DiscountValue.IsPositive() {
		return newValidationError("discount_value", "discount value must be positive")
	}
	if in.DiscountType == model.DiscountTypePercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return newValidationError("discount_value", "percentage cannot exceed 100")
	}
	if in.ValidUntil.Before(in.ValidFrom) {
		return newValidationError("valid_until", "valid_until must not be before valid_from")
	}
	return nil
}

func applyCouponInput(c *model.Coupon, in CouponInput) {
	c.Code = NormalizeCode(in.Code)
	c.Description = in.Description
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue.Round(2)
	c.ValidFrom = in.ValidFrom.UTC()
	c.ValidUntil = in.ValidUntil.UTC()
	c.UsageLimit = in.UsageLimit
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}
