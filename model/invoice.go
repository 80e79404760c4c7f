package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing document of a completed order
type Invoice struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time       `json:"issued_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	OrderID        uint            `gorm:"uniqueIndex;not null" json:"order_id"`
	InvoiceNumber  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"invoice_number"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	Notes          string          `gorm:"type:text" json:"notes,omitempty"`
}
