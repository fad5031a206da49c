package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

// RoomRepository persists rooms.
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository creates a room repository.
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *RoomRepository) WithTx(tx *gorm.DB) *RoomRepository {
	return &RoomRepository{db: tx}
}

// Create inserts a room.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

// GetByID fetches a room by ID.
func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByIDForUpdate fetches a room by ID with a row lock. Must run
// inside a transaction; it serializes concurrent booking attempts on
// the same room. SQLite has no FOR UPDATE and locks the whole database
// per write transaction, so the clause is skipped there.
func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Room, error) {
	tx := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var room models.Room
	if err := tx.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetByRoomNumber fetches a room by its room number.
func (r *RoomRepository) GetByRoomNumber(ctx context.Context, roomNumber string) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("room_number = ?", roomNumber).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ExistsByRoomNumber reports whether another room already uses the
// room number. excludeID skips the room being updated.
func (r *RoomRepository) ExistsByRoomNumber(ctx context.Context, roomNumber string, excludeID int64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Where("room_number = ?", roomNumber)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// Update saves the full room record.
func (r *RoomRepository) Update(ctx context.Context, room *models.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// UpdateFields updates selected room fields.
func (r *RoomRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus updates the room status.
func (r *RoomRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes a room.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Room{}, id).Error
}

// List returns rooms matching the filters with pagination.
func (r *RoomRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Room, int64, error) {
	var rooms []*models.Room
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Room{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if roomType, ok := filters["room_type"].(string); ok && roomType != "" {
		query = query.Where("room_type = ?", roomType)
	}
	if minPrice, ok := filters["min_price"].(float64); ok && minPrice > 0 {
		query = query.Where("price_per_night >= ?", minPrice)
	}
	if maxPrice, ok := filters["max_price"].(float64); ok && maxPrice > 0 {
		query = query.Where("price_per_night <= ?", maxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("room_number ASC").
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error
	if err != nil {
		return nil, 0, err
	}
	return rooms, total, nil
}

// ListAll returns every room ordered by room number.
func (r *RoomRepository) ListAll(ctx context.Context) ([]*models.Room, error) {
	var rooms []*models.Room
	err := r.db.WithContext(ctx).
		Order("room_number ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListIDs returns the IDs of all rooms.
func (r *RoomRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Room{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Count returns the total number of rooms.
func (r *RoomRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Count(&count).Error
	return count, err
}
