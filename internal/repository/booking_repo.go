package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

// BookingRepository persists bookings.
type BookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a booking repository.
func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *BookingRepository) WithTx(tx *gorm.DB) *BookingRepository {
	return &BookingRepository{db: tx}
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID fetches a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDWithDetails fetches a booking with its user, room and payment.
func (r *BookingRepository) GetByIDWithDetails(ctx context.Context, id int64) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Room").
		Preload("Payment").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update saves the full booking record.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Save(booking).Error
}

// UpdateFields updates selected booking fields.
func (r *BookingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus updates the booking status.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateStatusIf updates the booking status only when the current
// status matches from. Returns whether a row changed.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id int64, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Booking{}, id).Error
}

// FindOverlapping returns active bookings on the room whose half-open
// date range [check_in, check_out) intersects the given range.
// excludeID skips the booking being updated.
func (r *BookingRepository) FindOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("status IN ?", models.ActiveBookingStatuses).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Order("check_in ASC").Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// HasCheckedIn reports whether the room has a checked-in booking.
func (r *BookingRepository) HasCheckedIn(ctx context.Context, roomID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("room_id = ? AND status = ?", roomID, models.BookingStatusCheckedIn).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByRoom counts the room's bookings still holding dates.
func (r *BookingRepository) CountActiveByRoom(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("room_id = ? AND status IN ?", roomID, models.ActiveBookingStatuses).
		Count(&count).Error
	return count, err
}

// List returns bookings matching the filters with pagination.
func (r *BookingRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Booking, int64, error) {
	var bookings []*models.Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if roomID, ok := filters["room_id"].(int64); ok && roomID > 0 {
		query = query.Where("room_id = ?", roomID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if from, ok := filters["check_in_from"].(time.Time); ok && !from.IsZero() {
		query = query.Where("check_in >= ?", from)
	}
	if to, ok := filters["check_in_to"].(time.Time); ok && !to.IsZero() {
		query = query.Where("check_in <= ?", to)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Room").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Booking, int64, error) {
	return r.List(ctx, offset, limit, map[string]interface{}{"user_id": userID})
}
