package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartTotalsWithPercentageCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "buyer@example.com")

	a := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "120", DiscountPrice: "90"})
	b := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "50"})
	env.fillCart(t, user, a, b)
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "SAVE20", Value: "20"})

	view, err := env.carts.ApplyCoupon(ctx, user.ID, "save20")
	require.NoError(t, err)

	assert.Len(t, view.Items, 2)
	assert.Equal(t, "140.00", view.Subtotal.StringFixed(2))
	assert.Equal(t, "28.00", view.Discount.StringFixed(2))
	assert.Equal(t, "112.00", view.Total.StringFixed(2))
	assert.Equal(t, "SAVE20", view.CouponCode)
}

func TestRejectedCouponKeepsPreviousCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "buyer@example.com")

	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"})
	env.fillCart(t, user, course)
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "GOOD", Value: "10"})
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{
		Code:       "OLD",
		Value:      "50",
		ValidFrom:  time.Now().UTC().Add(-48 * time.Hour),
		ValidUntil: time.Now().UTC().Add(-24 * time.Hour),
	})

	_, err := env.carts.ApplyCoupon(ctx, user.ID, "GOOD")
	require.NoError(t, err)

	_, err = env.carts.ApplyCoupon(ctx, user.ID, "OLD")
	assert.ErrorIs(t, err, ErrExpired)

	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "GOOD", view.CouponCode)
	assert.Equal(t, "90.00", view.Total.StringFixed(2))
}

func TestCouponOnEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.student(t, "buyer@example.com")
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "GOOD", Value: "10"})

	_, err := env.carts.ApplyCoupon(context.Background(), user.ID, "GOOD")
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCartAddRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "buyer@example.com")

	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"})
	draft := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100", Unpublished: true})
	owned := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"})
	testutil.Enroll(t, env.db, user.ID, owned.ID)

	first, err := env.carts.Add(ctx, user.ID, course.ID)
	require.NoError(t, err)
	second, err := env.carts.Add(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = env.carts.Add(ctx, user.ID, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.carts.Add(ctx, user.ID, owned.ID)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	other := env.student(t, "other@example.com")
	assert.ErrorIs(t, env.carts.Remove(ctx, other.ID, first.ID), ErrForbidden)
	require.NoError(t, env.carts.Remove(ctx, user.ID, first.ID))

	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}

func TestBuyNowReplacesCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.student(t, "buyer@example.com")

	a := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"})
	b := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "40"})
	env.fillCart(t, user, a)

	view, err := env.carts.BuyNow(context.Background(), user.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, b.ID, view.Items[0].CourseID)
	assert.Equal(t, "40.00", view.Total.StringFixed(2))
}
