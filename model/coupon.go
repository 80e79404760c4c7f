package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is applied
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// CouponState is the outcome of checking a coupon against a point in time
type CouponState string

const (
	CouponStateValid        CouponState = "valid"
	CouponStateInactive     CouponState = "inactive"
	CouponStateExpired      CouponState = "expired"
	CouponStateLimitReached CouponState = "limit_reached"
)

// Coupon is a discount code
type Coupon struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Code          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Description   string          `gorm:"type:text" json:"description"`
	DiscountType  DiscountType    `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discount_value"`
	ValidFrom     time.Time       `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time       `gorm:"not null" json:"valid_until"`
	UsageLimit    int             `gorm:"default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount     int             `gorm:"default:0" json:"used_count"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
}

// State evaluates the coupon at now. Both window bounds are inclusive.
func (c *Coupon) State(now time.Time) CouponState {
	switch {
	case !c.IsActive:
		return CouponStateInactive
	case now.Before(c.ValidFrom) || now.After(c.ValidUntil):
		return CouponStateExpired
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return CouponStateLimitReached
	default:
		return CouponStateValid
	}
}

// IsValid reports whether the coupon can be redeemed at now
func (c *Coupon) IsValid(now time.Time) bool {
	return c.State(now) == CouponStateValid
}

// DiscountFor returns the discount on subtotal, rounded to paise and never more than the subtotal
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	case DiscountTypeFixed:
		discount = c.DiscountValue
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, subtotal).Round(2)
}
