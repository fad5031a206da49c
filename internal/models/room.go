package models

import (
	"time"
)

// Room is a bookable hotel room.
type Room struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	RoomNumber    string      `gorm:"type:varchar(20);uniqueIndex;not null" json:"room_number"`
	RoomType      string      `gorm:"type:varchar(50);not null" json:"room_type"`
	PricePerNight float64     `gorm:"type:decimal(10,2);not null" json:"price_per_night"`
	Status        string      `gorm:"type:varchar(20);not null;default:'Available'" json:"status"`
	Description   *string     `gorm:"type:text" json:"description,omitempty"`
	Images        StringArray `gorm:"type:jsonb" json:"images,omitempty"`
	CreatedAt     time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time   `gorm:"autoUpdateTime" json:"updated_at"`

	// Associations
	Bookings []Booking `gorm:"foreignKey:RoomID" json:"bookings,omitempty"`
}

// TableName overrides the table name.
func (Room) TableName() string {
	return "rooms"
}

// RoomStatus values. Occupied is derived from bookings; Maintenance is
// set by staff and survives only until the next recomputation.
const (
	RoomStatusAvailable   = "Available"
	RoomStatusOccupied    = "Occupied"
	RoomStatusMaintenance = "Maintenance"
)

// RoomType values
const (
	RoomTypeSingle = "single"
	RoomTypeDouble = "double"
	RoomTypeDeluxe = "deluxe"
	RoomTypeSuite  = "suite"
)

// IsValidRoomStatus reports whether status is a known room status.
func IsValidRoomStatus(status string) bool {
	switch status {
	case RoomStatusAvailable, RoomStatusOccupied, RoomStatusMaintenance:
		return true
	}
	return false
}

// IsValidRoomType reports whether roomType is a known room type.
func IsValidRoomType(roomType string) bool {
	switch roomType {
	case RoomTypeSingle, RoomTypeDouble, RoomTypeDeluxe, RoomTypeSuite:
		return true
	}
	return false
}
