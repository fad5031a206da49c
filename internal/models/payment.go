package models

import (
	"time"
)

// Payment is the single payment record attached to a booking. The
// M-Pesa correlation fields are set only for mobile-money payments.
type Payment struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID         int64      `gorm:"uniqueIndex;not null" json:"booking_id"`
	UserID            int64      `gorm:"index;not null" json:"user_id"`
	Amount            float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Method            string     `gorm:"type:varchar(20);not null" json:"method"`
	Status            string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CheckoutRequestID *string    `gorm:"type:varchar(64);index" json:"checkout_request_id,omitempty"`
	MerchantRequestID *string    `gorm:"type:varchar(64)" json:"merchant_request_id,omitempty"`
	ReceiptNumber     *string    `gorm:"type:varchar(32)" json:"receipt_number,omitempty"`
	PhoneNumber       *string    `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	TransactionDate   *time.Time `json:"transaction_date,omitempty"`
	FailureReason     *string    `gorm:"type:varchar(255)" json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name.
func (Payment) TableName() string {
	return "payments"
}

// PaymentMethod values
const (
	PaymentMethodCreditCard   = "credit_card"
	PaymentMethodMpesa        = "mpesa"
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
)

// PaymentStatus values
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// IsValidPaymentMethod reports whether method is a known payment method.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCreditCard, PaymentMethodMpesa, PaymentMethodCash, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// IsValidPaymentStatus reports whether status is a known payment status.
func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsFinal reports whether the payment amount is immutable.
func (p *Payment) IsFinal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusRefunded
}
