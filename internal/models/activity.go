package models

import (
	"time"
)

// ActivityLog is an append-only audit record of a user or staff action.
type ActivityLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      *int64    `gorm:"index" json:"user_id,omitempty"`
	Action      string    `gorm:"type:varchar(100);not null;index" json:"action"`
	TargetType  *string   `gorm:"type:varchar(50)" json:"target_type,omitempty"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Metadata    JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	IP          *string   `gorm:"type:varchar(45)" json:"ip,omitempty"`
	UserAgent   *string   `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name.
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// Activity actions
const (
	ActionUserRegistered   = "user.registered"
	ActionUserLogin        = "user.login"
	ActionBookingCreated   = "booking.created"
	ActionBookingUpdated   = "booking.updated"
	ActionBookingCancelled = "booking.cancelled"
	ActionBookingDeleted   = "booking.deleted"
	ActionRoomCreated      = "room.created"
	ActionRoomUpdated      = "room.updated"
	ActionRoomDeleted      = "room.deleted"
	ActionPaymentCreated   = "payment.created"
	ActionPaymentUpdated   = "payment.updated"
	ActionPaymentDeleted   = "payment.deleted"
	ActionMpesaInitiated   = "mpesa.initiated"
	ActionMpesaCompleted   = "mpesa.completed"
	ActionMpesaFailed      = "mpesa.failed"
)
