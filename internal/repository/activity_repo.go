package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

// ActivityRepository persists the append-only activity log.
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates an activity repository.
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an activity record.
func (r *ActivityRepository) Create(ctx context.Context, log *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByID fetches an activity record.
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.ActivityLog, error) {
	var log models.ActivityLog
	err := r.db.WithContext(ctx).Preload("User").First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// List returns activity records matching the filters, newest first.
func (r *ActivityRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.ActivityLog, int64, error) {
	var logs []*models.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})

	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if action, ok := filters["action"].(string); ok && action != "" {
		query = query.Where("action = ?", action)
	}
	if targetType, ok := filters["target_type"].(string); ok && targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	if targetID, ok := filters["target_id"].(int64); ok && targetID > 0 {
		query = query.Where("target_id = ?", targetID)
	}
	if start, ok := filters["start_time"].(time.Time); ok && !start.IsZero() {
		query = query.Where("created_at >= ?", start)
	}
	if end, ok := filters["end_time"].(time.Time); ok && !end.IsZero() {
		query = query.Where("created_at <= ?", end)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// DeleteBefore removes activity records older than the cutoff.
func (r *ActivityRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ActivityLog{})
	return res.RowsAffected, res.Error
}
