package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a single payment attempt
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// PaymentTransaction records one payment attempt against an order
type PaymentTransaction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	OrderID           uint              `gorm:"not null;index" json:"order_id"`
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	TransactionID     string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_id"`
	PaymentMethod     PaymentMethod     `gorm:"type:varchar(20);not null" json:"payment_method"`
	Amount            decimal.Decimal   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency          string            `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Status            TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	UPITransactionRef string            `gorm:"type:varchar(100)" json:"upi_transaction_ref,omitempty"`
	ProofURL          string            `gorm:"type:varchar(500)" json:"proof_url,omitempty"`
	RazorpayOrderID   string            `gorm:"type:varchar(100);index" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string            `gorm:"type:varchar(100)" json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string            `gorm:"type:varchar(200)" json:"-"`
	AdminNotes        string            `gorm:"type:text" json:"admin_notes,omitempty"`
	VerifiedBy        *uint             `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`

	// Relationships
	Order *Order `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order,omitempty"`
	User  *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// IsPending reports whether a reviewer can still act on the transaction
func (t *PaymentTransaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// PaymentConfig holds the merchant payment settings. A single row is used.
type PaymentConfig struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
	UPIID                   string    `gorm:"column:upi_id;type:varchar(100)" json:"upi_id"`
	UPIQRURL                string    `gorm:"column:upi_qr_url;type:varchar(500)" json:"upi_qr_url"`
	RazorpayKeyID           string    `gorm:"type:varchar(100)" json:"razorpay_key_id"`
	RazorpayKeySecretCipher string    `gorm:"type:text" json:"-"` // AES-GCM encrypted
	RazorpayKeySecretSalt   string    `gorm:"type:varchar(64)" json:"-"`
	RazorpayTestMode        bool      `gorm:"default:true" json:"razorpay_test_mode"`
	UpdatedBy               *uint     `json:"updated_by,omitempty"`
}

// TableName specifies the table name for PaymentConfig
func (PaymentConfig) TableName() string {
	return "payment_config"
}
