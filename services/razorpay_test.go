package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpaySignature(t *testing.T) {
	sig := RazorpaySignature("order_1", "pay_1", "secret")
	assert.Len(t, sig, 64)
	assert.True(t, VerifyRazorpaySignature("order_1", "pay_1", sig, "secret"))
	assert.False(t, VerifyRazorpaySignature("order_1", "pay_2", sig, "secret"))
	assert.False(t, VerifyRazorpaySignature("order_1", "pay_1", sig, "other"))
	assert.False(t, VerifyRazorpaySignature("order_1", "pay_1", "", "secret"))
	assert.False(t, VerifyRazorpaySignature("order_1", "pay_1", sig, ""))
}

func TestToPaise(t *testing.T) {
	assert.EqualValues(t, 49950, ToPaise(decimal.RequireFromString("499.50")))
	assert.EqualValues(t, 100, ToPaise(decimal.RequireFromString("0.995")))
	assert.EqualValues(t, 0, ToPaise(decimal.Zero))
}

func TestRazorpayCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key" || pass != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
			return
		}
		assert.Equal(t, "/orders", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_abc","entity":"order","amount":12000,"currency":"INR","receipt":"ORD-1","status":"created"}`))
	}))
	defer srv.Close()

	client := NewRazorpayClient(srv.URL)
	ctx := context.Background()

	order, err := client.CreateOrder(ctx, RazorpayCredentials{KeyID: "key", KeySecret: "secret"}, decimal.NewFromInt(120), "ORD-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.EqualValues(t, 12000, order.Amount)

	_, err = client.CreateOrder(ctx, RazorpayCredentials{KeyID: "key", KeySecret: "wrong"}, decimal.NewFromInt(120), "ORD-1", nil)
	assert.ErrorIs(t, err, ErrExternal)
	assert.Contains(t, err.Error(), "Authentication failed")

	_, err = client.CreateOrder(ctx, RazorpayCredentials{}, decimal.NewFromInt(120), "ORD-1", nil)
	assert.ErrorIs(t, err, ErrExternal)
}
