package services

import (
	"context"
	"testing"
	"time"

	"github.com/sahilchouksey/codelearn-api/model"
	"github.com/sahilchouksey/codelearn-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardCheckoutCompletesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "card@example.com")

	a := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "90", Lectures: 2})
	b := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "50", Lectures: 1})
	env.fillCart(t, user, a, b)
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "SAVE20", Value: "20"})
	_, err := env.carts.ApplyCoupon(ctx, user.ID, "SAVE20")
	require.NoError(t, err)

	res, err := env.payments.Checkout(ctx, model.PaymentMethodCard, user, CheckoutRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusCompleted, res.Order.PaymentStatus)
	assert.Equal(t, "112.00", res.Order.FinalAmount.StringFixed(2))
	assert.Equal(t, model.TransactionStatusSuccess, res.Transaction.Status)
	require.NotNil(t, res.Invoice)
	assert.Equal(t, "112.00", res.Invoice.TotalAmount.StringFixed(2))

	assert.EqualValues(t, 2, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Coupon{}, "code = ? AND used_count = 1", "SAVE20"))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.OutboxEvent{}, "topic = ?", model.TopicOrderCompleted))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.UserNotification{}, "user_id = ?", user.ID))

	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Empty(t, view.CouponCode)
}

func TestSecondCheckoutSeesEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "twice@example.com")
	env.fillCart(t, user, testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "10"}))

	_, err := env.payments.Checkout(ctx, model.PaymentMethodCard, user, CheckoutRequest{})
	require.NoError(t, err)

	_, err = env.payments.Checkout(ctx, model.PaymentMethodCard, user, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Order{}, "user_id = ?", user.ID))
}

func TestRazorpayVerifyMismatchThenSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "rzp@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "499.50"})
	env.fillCart(t, user, course)

	res, err := env.payments.Checkout(ctx, model.PaymentMethodRazorpay, user, CheckoutRequest{})
	require.NoError(t, err)
	require.NotNil(t, res.Razorpay)
	assert.Equal(t, testRazorpayKeyID, res.Razorpay.KeyID)
	assert.EqualValues(t, 49950, res.Razorpay.Amount)
	assert.Equal(t, model.PaymentStatusPending, res.Order.PaymentStatus)

	gatewayOrderID := res.Razorpay.OrderID
	_, err = env.payments.VerifyRazorpay(ctx, user, RazorpayVerifyRequest{
		RazorpayOrderID:   gatewayOrderID,
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "forged",
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	var order model.Order
	require.NoError(t, env.db.First(&order, res.Order.ID).Error)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.EqualValues(t, 0, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))

	good := RazorpayVerifyRequest{
		RazorpayOrderID:   gatewayOrderID,
		RazorpayPaymentID: "pay_2",
		RazorpaySignature: RazorpaySignature(gatewayOrderID, "pay_2", testRazorpaySecret),
	}
	done, err := env.payments.VerifyRazorpay(ctx, user, good)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, done.Order.PaymentStatus)
	require.NotNil(t, done.Invoice)

	// A repeated callback for the same payment is answered from the stored state
	again, err := env.payments.VerifyRazorpay(ctx, user, good)
	require.NoError(t, err)
	assert.Equal(t, done.Invoice.InvoiceNumber, again.Invoice.InvoiceNumber)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Invoice{}, "order_id = ?", res.Order.ID))
}

func TestRazorpayRejectsFreeOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "free@example.com")
	env.fillCart(t, user, testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"}))
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "ALL", Value: "100"})
	_, err := env.carts.ApplyCoupon(ctx, user.ID, "ALL")
	require.NoError(t, err)

	_, err = env.payments.Checkout(ctx, model.PaymentMethodRazorpay, user, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	// The failed checkout rolled back, so the cart is intact
	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
}

func TestRazorpayCheckoutTakesOneUseCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"})
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "ONCE", Value: "10", UsageLimit: 1})

	a := env.student(t, "a@example.com")
	b := env.student(t, "b@example.com")
	for _, u := range []*model.User{a, b} {
		env.fillCart(t, u, course)
		_, err := env.carts.ApplyCoupon(ctx, u.ID, "ONCE")
		require.NoError(t, err)
	}

	first, err := env.payments.Checkout(ctx, model.PaymentMethodRazorpay, a, CheckoutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "10.00", first.Order.DiscountAmount.StringFixed(2))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Coupon{}, "code = ? AND used_count = 1", "ONCE"))

	// The only use is held by the first gateway order, so the second pays full price
	second, err := env.payments.Checkout(ctx, model.PaymentMethodRazorpay, b, CheckoutRequest{})
	require.NoError(t, err)
	assert.True(t, second.Order.DiscountAmount.IsZero())
	assert.Empty(t, second.Order.CouponCode)
	assert.EqualValues(t, 10000, second.Razorpay.Amount)

	for _, pair := range []struct {
		user *model.User
		res  *CheckoutResult
	}{{a, first}, {b, second}} {
		gatewayOrderID := pair.res.Razorpay.OrderID
		_, err := env.payments.VerifyRazorpay(ctx, pair.user, RazorpayVerifyRequest{
			RazorpayOrderID:   gatewayOrderID,
			RazorpayPaymentID: "pay_" + pair.user.Email,
			RazorpaySignature: RazorpaySignature(gatewayOrderID, "pay_"+pair.user.Email, testRazorpaySecret),
		})
		require.NoError(t, err)
	}

	var coupon model.Coupon
	require.NoError(t, env.db.Where("code = ?", "ONCE").First(&coupon).Error)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestExpiredGatewayOrderReleasesCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "idle@example.com")
	env.fillCart(t, user, testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "100"}))
	testutil.CreateCoupon(t, env.db, testutil.CouponOpts{Code: "ONCE", Value: "10", UsageLimit: 1})
	_, err := env.carts.ApplyCoupon(ctx, user.ID, "ONCE")
	require.NoError(t, err)

	res, err := env.payments.Checkout(ctx, model.PaymentMethodRazorpay, user, CheckoutRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Coupon{}, "code = ? AND used_count = 1", "ONCE"))

	env.fulfillment.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	n, err := env.fulfillment.ExpireStaleGatewayOrders(ctx, DefaultGatewayOrderTTL)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Coupon{}, "code = ? AND used_count = 0", "ONCE"))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Order{}, "id = ? AND coupon_redeemed = ?", res.Order.ID, false))

	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ONCE", view.CouponCode)
	assert.Equal(t, "10.00", view.Discount.StringFixed(2))
}

func upiCheckout(t *testing.T, env *testEnv, user *model.User, courses ...*model.Course) *CheckoutResult {
	t.Helper()
	env.fillCart(t, user, courses...)
	res, err := env.payments.Checkout(context.Background(), model.PaymentMethodUPI, user, CheckoutRequest{
		TransactionReference: "UTR123456789",
		ProofFilename:        "proof.png",
		Proof:                pngProof,
	})
	require.NoError(t, err)
	return res
}

func TestUPIApproveIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	user := env.student(t, "upi@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "300"})

	res := upiCheckout(t, env, user, course)
	assert.Equal(t, model.PaymentStatusPending, res.Order.PaymentStatus)
	assert.NotEmpty(t, res.Transaction.ProofURL)
	assert.EqualValues(t, 0, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))

	first, err := env.fulfillment.Approve(ctx, admin.ID, res.Transaction.ID, "matched bank statement")
	require.NoError(t, err)
	assert.Equal(t, ReviewApproved, first.Status)
	assert.False(t, first.Skipped)

	second, err := env.fulfillment.Approve(ctx, admin.ID, res.Transaction.ID, "again")
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	rejected, err := env.fulfillment.Reject(ctx, admin.ID, res.Transaction.ID, "too late")
	require.NoError(t, err)
	assert.True(t, rejected.Skipped)

	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.Invoice{}, "order_id = ?", res.Order.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.OutboxEvent{}, "topic = ?", model.TopicPaymentApproved))

	var order model.Order
	require.NoError(t, env.db.First(&order, res.Order.ID).Error)
	assert.Equal(t, model.PaymentStatusCompleted, order.PaymentStatus)
	require.NotNil(t, order.VerifiedBy)
	assert.Equal(t, admin.ID, *order.VerifiedBy)
}

func TestUPIRejectGrantsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	user := env.student(t, "upi@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "300"})
	res := upiCheckout(t, env, user, course)

	_, err := env.fulfillment.Reject(ctx, admin.ID, res.Transaction.ID, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	out, err := env.fulfillment.Reject(ctx, admin.ID, res.Transaction.ID, "reference not found")
	require.NoError(t, err)
	assert.Equal(t, ReviewRejected, out.Status)

	var order model.Order
	require.NoError(t, env.db.First(&order, res.Order.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, order.PaymentStatus)
	assert.Equal(t, "reference not found", order.RejectionReason)

	assert.EqualValues(t, 0, testutil.Count(t, env.db, &model.Enrollment{}, "user_id = ?", user.ID))
	assert.EqualValues(t, 0, testutil.Count(t, env.db, &model.Invoice{}, "order_id = ?", res.Order.ID))
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.OutboxEvent{}, "topic = ?", model.TopicPaymentRejected))
}

func TestUPIRequiresReferenceAndValidProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "upi@example.com")
	env.fillCart(t, user, testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "300"}))

	_, err := env.payments.Checkout(ctx, model.PaymentMethodUPI, user, CheckoutRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.payments.Checkout(ctx, model.PaymentMethodUPI, user, CheckoutRequest{
		TransactionReference: "UTR1",
		ProofFilename:        "notes.txt",
		Proof:                []byte("just some text"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.EqualValues(t, 0, testutil.Count(t, env.db, &model.Order{}, ""))
}

func TestBatchApproveReportsEachItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)

	a := upiCheckout(t, env, env.student(t, "a@example.com"), testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "10"}))
	b := upiCheckout(t, env, env.student(t, "b@example.com"), testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "20"}))
	_, err := env.fulfillment.Approve(ctx, admin.ID, b.Transaction.ID, "")
	require.NoError(t, err)

	out := env.fulfillment.BatchApprove(ctx, admin.ID, []uint{a.Transaction.ID, b.Transaction.ID, 9999}, "batch")
	assert.Equal(t, 1, out.Processed)
	assert.Equal(t, 1, out.Skipped)
	assert.Equal(t, 1, out.Failed)
	require.Len(t, out.Results, 3)
	assert.Equal(t, ReviewFailed, out.Results[2].Status)
}

func TestRefundOnlyFromCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	user := env.student(t, "refund@example.com")
	env.fillCart(t, user, testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "10"}))

	res, err := env.payments.Checkout(ctx, model.PaymentMethodCard, user, CheckoutRequest{})
	require.NoError(t, err)

	order, err := env.fulfillment.Refund(ctx, admin.ID, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, order.PaymentStatus)

	_, err = env.fulfillment.Refund(ctx, admin.ID, res.Order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.fulfillment.Refund(ctx, admin.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpireStaleGatewayOrdersRestoresCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.student(t, "slow@example.com")
	course := testutil.CreateCourse(t, env.db, testutil.CourseOpts{Price: "200"})
	env.fillCart(t, user, course)

	res, err := env.payments.Checkout(ctx, model.PaymentMethodRazorpay, user, CheckoutRequest{})
	require.NoError(t, err)

	n, err := env.fulfillment.ExpireStaleGatewayOrders(ctx, DefaultGatewayOrderTTL)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.fulfillment.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	n, err = env.fulfillment.ExpireStaleGatewayOrders(ctx, DefaultGatewayOrderTTL)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var order model.Order
	require.NoError(t, env.db.First(&order, res.Order.ID).Error)
	assert.Equal(t, model.PaymentStatusFailed, order.PaymentStatus)
	assert.EqualValues(t, 1, testutil.Count(t, env.db, &model.PaymentTransaction{}, "order_id = ? AND status = ?", order.ID, model.TransactionStatusFailed))

	view, err := env.carts.View(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, course.ID, view.Items[0].CourseID)
}
