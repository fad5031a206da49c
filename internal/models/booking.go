package models

import (
	"time"
)

// Booking reserves a room for a half-open date range [check_in, check_out).
type Booking struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	RoomID         int64     `gorm:"index;not null" json:"room_id"`
	CheckIn        time.Time `gorm:"type:date;not null;index" json:"check_in"`
	CheckOut       time.Time `gorm:"type:date;not null;index" json:"check_out"`
	Adults         int       `gorm:"not null;default:1" json:"adults"`
	Children       int       `gorm:"not null;default:0" json:"children"`
	NumberOfGuests int       `gorm:"not null" json:"number_of_guests"`
	TotalPrice     float64   `gorm:"type:decimal(12,2);not null" json:"total_price"`
	Status         string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Room    *Room    `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Payment *Payment `gorm:"foreignKey:BookingID" json:"payment,omitempty"`
}

// TableName overrides the table name.
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatus values
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusCheckedIn  = "checked_in"
	BookingStatusCheckedOut = "checked_out"
	BookingStatusCancelled  = "cancelled"
)

// ActiveBookingStatuses are the statuses that hold a room's dates.
// Cancelled and checked-out bookings release their range.
var ActiveBookingStatuses = []string{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCheckedIn,
}

// IsValidBookingStatus reports whether status is a known booking status.
func IsValidBookingStatus(status string) bool {
	switch status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCheckedIn,
		BookingStatusCheckedOut, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCheckedOut || b.Status == BookingStatusCancelled
}

// Nights returns the length of stay in nights.
func (b *Booking) Nights() int {
	return int(b.CheckOut.Sub(b.CheckIn).Hours() / 24)
}
