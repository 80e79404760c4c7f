package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCouponWindowIsInclusive(t *testing.T) {
	db := testutil.NewDB(t)
	from := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	until := from.Add(48 * time.Hour)
	testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "WINDOW", Value: "10", ValidFrom: from, ValidUntil: until})

	svc := NewCouponService(db)
	subtotal := decimal.NewFromInt(200)

	cases := []struct {
		name string
		at   time.Time
		err  error
	}{
		{"one second before start", from.Add(-time.Second), ErrExpired},
		{"exactly at start", from, nil},
		{"inside window", from.Add(time.Hour), nil},
		{"exactly at end", until, nil},
		{"one second after end", until.Add(time.Second), ErrExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc.now = func() time.Time { return tc.at }
			discount, _, err := svc.Evaluate(context.Background(), "window", subtotal)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(20).Equal(discount), "got %s", discount)
		})
	}
}

func TestCouponRejections(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "OFF", Value: "10", Inactive: true})
	testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "USEDUP", Value: "10", UsageLimit: 2, UsedCount: 2})
	testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "UNLIMITED", Value: "10", UsageLimit: 0, UsedCount: 500})

	svc := NewCouponService(db)
	ctx := context.Background()
	subtotal := decimal.NewFromInt(100)

	_, _, err := svc.Evaluate(ctx, "NOPE", subtotal)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, _, err = svc.Evaluate(ctx, "  ", subtotal)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, _, err = svc.Evaluate(ctx, "OFF", subtotal)
	assert.ErrorIs(t, err, ErrInactive)

	_, _, err = svc.Evaluate(ctx, "USEDUP", subtotal)
	assert.ErrorIs(t, err, ErrLimitReached)

	discount, _, err := svc.Evaluate(ctx, "unlimited", subtotal)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(discount))
}

func TestCouponDiscountNeverExceedsSubtotal(t *testing.T) {
	fixed := &model.Coupon{DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(500)}
	assert.True(t, decimal.NewFromInt(120).Equal(fixed.DiscountFor(decimal.NewFromInt(120))))

	pct := &model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.RequireFromString("33.33")}
	assert.Equal(t, "33.33", pct.DiscountFor(decimal.NewFromInt(100)).StringFixed(2))
	assert.Equal(t, "3.33", pct.DiscountFor(decimal.RequireFromString("9.99")).StringFixed(2))
}

func TestRedeemForOrderIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	coupon := testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "ONCE", Value: "10"})
	user := testutil.CreateUser(t, db, "buyer@example.com", model.RoleStudent)

	order := &model.Order{
		OrderNumber:    "ORD-REDEEM-1",
		UserID:         user.ID,
		PaymentStatus:  model.PaymentStatusPending,
		PaymentMethod:  model.PaymentMethodCard,
		CouponCode:     "ONCE",
		TotalAmount:    decimal.NewFromInt(100),
		DiscountAmount: decimal.NewFromInt(10),
		FinalAmount:    decimal.NewFromInt(90),
	}
	require.NoError(t, db.Create(order).Error)

	svc := NewCouponService(db)
	require.NoError(t, svc.RedeemForOrder(db, order))
	require.NoError(t, svc.RedeemForOrder(db, order))

	var reloaded model.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestRedeemForOrderStopsAtUsageLimit(t *testing.T) {
	db := testutil.NewDB(t)
	coupon := testutil.CreateCoupon(t, db, testutil.CouponOpts{Code: "SINGLE", Value: "10", UsageLimit: 1})
	user := testutil.CreateUser(t, db, "limit@example.com", model.RoleStudent)

	newOrder := func(number string) *model.Order {
		order := &model.Order{
			OrderNumber:   number,
			UserID:        user.ID,
			PaymentStatus: model.PaymentStatusPending,
			PaymentMethod: model.PaymentMethodRazorpay,
			CouponCode:    "SINGLE",
			TotalAmount:   decimal.NewFromInt(100),
			FinalAmount:   decimal.NewFromInt(90),
		}
		require.NoError(t, db.Create(order).Error)
		return order
	}
	first, second := newOrder("ORD-LIMIT-1"), newOrder("ORD-LIMIT-2")

	svc := NewCouponService(db)
	require.NoError(t, svc.RedeemForOrder(db, first))
	assert.ErrorIs(t, svc.RedeemForOrder(db, second), ErrLimitReached)
	assert.False(t, second.CouponRedeemed)

	var reloaded model.Coupon
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)

	require.NoError(t, svc.ReleaseForOrder(db, first))
	require.NoError(t, svc.ReleaseForOrder(db, first))
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 0, reloaded.UsedCount)
	assert.False(t, first.CouponRedeemed)

	require.NoError(t, svc.RedeemForOrder(db, second))
	require.NoError(t, db.First(&reloaded, coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsedCount)
}

func TestCouponAdminLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCouponService(db)
	ctx := context.Background()
	now := time.Now().UTC()

	in := CouponInput{
		Code:          " launch20 ",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(20),
		ValidFrom:     now,
		ValidUntil:    now.Add(24 * time.Hour),
	}
	coupon, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "LAUNCH20", coupon.Code)
	assert.True(t, coupon.IsActive)

	_, err = svc.Create(ctx, in)
	assert.ErrorIs(t, err, ErrConflict)

	bad := in
	bad.Code = "TOOMUCH"
	bad.DiscountValue = decimal.NewFromInt(101)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, ErrValidation)

	inverted := in
	inverted.Code = "BACKWARDS"
	inverted.ValidUntil = now.Add(-time.Hour)
	_, err = svc.Create(ctx, inverted)
	assert.ErrorIs(t, err, ErrValidation)

	in.UsageLimit = 50
	updated, err := svc.Update(ctx, coupon.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.UsageLimit)

	require.NoError(t, svc.Deactivate(ctx, coupon.ID))
	_, _, err = svc.Evaluate(ctx, "LAUNCH20", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInactive)

	assert.ErrorIs(t, svc.Deactivate(ctx, 9999), ErrNotFound)

	list, total, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)
}
