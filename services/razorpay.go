package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// RazorpayCredentials authenticate calls to the Razorpay API
type RazorpayCredentials struct {
	KeyID     string
	KeySecret string
}

// Configured reports whether both halves of the key pair are present
func (c RazorpayCredentials) Configured() bool {
	return c.KeyID != "" && c.KeySecret != ""
}

// RazorpayOrder is the gateway side order created before checkout
type RazorpayOrder struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"` // paise
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// RazorpayClient talks to the Razorpay orders API
type RazorpayClient struct {
	client *resty.Client
}

// NewRazorpayClient creates a client for baseURL, normally https://api.razorpay.com/v1
func NewRazorpayClient(baseURL string) *RazorpayClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")
	return &RazorpayClient{client: client}
}

// CreateOrder registers amount (in rupees) with the gateway. Razorpay does not
// deduplicate orders, so the request is not retried.
func (c *RazorpayClient) CreateOrder(ctx context.Context, creds RazorpayCredentials, amount decimal.Decimal, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: razorpay is not configured", ErrExternal)
	}

	var (
		order  RazorpayOrder
		apiErr razorpayError
	)
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(creds.KeyID, creds.KeySecret).
		SetBody(map[string]interface{}{
			"amount":   ToPaise(amount),
			"currency": "INR",
			"receipt":  receipt,
			"notes":    notes,
		}).
		SetResult(&order).
		SetError(&apiErr).
		Post("/orders")
	if err != nil {
		return nil, fmt.Errorf("%w: razorpay request failed: %v", ErrExternal, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: razorpay returned %d: %s", ErrExternal, resp.StatusCode(), apiErr.Error.Description)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: razorpay returned no order id", ErrExternal)
	}
	return &order, nil
}

// ToPaise converts rupees to the integer minor unit the gateway expects
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// RazorpaySignature computes the checkout signature: hex HMAC-SHA256 of "order_id|payment_id"
func RazorpaySignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpaySignature compares signature with the expected value in constant time
func VerifyRazorpaySignature(orderID, paymentID, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := RazorpaySignature(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
