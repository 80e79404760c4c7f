package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is the strategy used to pay for an order
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodUPI      PaymentMethod = "upi"
)

var orderTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

// Order is an immutable snapshot of a purchase intent
type Order struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	OrderNumber       string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	DiscountAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_amount"`
	FinalAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"final_amount"`
	CouponCode        string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	CouponRedeemed    bool            `gorm:"default:false" json:"-"`
	PaymentStatus     PaymentStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`
	PaymentMethod     PaymentMethod   `gorm:"type:varchar(20);not null" json:"payment_method"`
	RazorpayOrderID   string          `gorm:"type:varchar(100);index" json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string          `gorm:"type:varchar(100)" json:"razorpay_payment_id,omitempty"`
	VerifiedBy        *uint           `json:"verified_by,omitempty"`
	VerifiedAt        *time.Time      `json:"verified_at,omitempty"`
	RejectionReason   string          `gorm:"type:text" json:"rejection_reason,omitempty"`

	// Relationships
	User         *User                `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Items        []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Transactions []PaymentTransaction `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	Invoice      *Invoice             `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"invoice,omitempty"`
}

// CanTransitionTo reports whether the order may move to next. Statuses only move forward.
func (o *Order) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range orderTransitions[o.PaymentStatus] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsCompleted reports whether payment for the order was confirmed
func (o *Order) IsCompleted() bool {
	return o.PaymentStatus == PaymentStatusCompleted
}

// OrderItem is a line of an order. Price and title are frozen at creation.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	OrderID     uint            `gorm:"not null;index" json:"order_id"`
	CourseID    uint            `gorm:"not null;index" json:"course_id"`
	CourseTitle string          `gorm:"type:varchar(200)" json:"course_title"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:RESTRICT" json:"course,omitempty"`
}
