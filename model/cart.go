package model

import "time"

// Cart is a user's pre-purchase basket. It also carries the coupon the user
// applied, so the discount survives across requests without server memory.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	CouponCode string     `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	Items      []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// CartItem is a single course in a cart
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"added_at"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_item_course" json:"cart_id"`
	CourseID  uint      `gorm:"not null;uniqueIndex:idx_cart_item_course" json:"course_id"`

	Course *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
}
