// Package activity provides the activity log service.
package activity

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
)

// Service records and queries activity log entries.
type Service struct {
	repo *repository.ActivityRepository
}

// NewService creates the activity service.
func NewService(repo *repository.ActivityRepository) *Service {
	return &Service{repo: repo}
}

// Entry describes one activity log record.
type Entry struct {
	UserID      *int64
	Action      string
	TargetType  string
	TargetID    *int64
	Description string
	Metadata    map[string]interface{}
	IP          string
	UserAgent   string
}

// Record appends an entry. Persistence failures are logged and swallowed;
// the log is best-effort and never fails the calling mutation.
func (s *Service) Record(ctx context.Context, e *Entry) {
	entry := &models.ActivityLog{
		UserID:      e.UserID,
		Action:      e.Action,
		TargetID:    e.TargetID,
		Description: e.Description,
		Metadata:    e.Metadata,
	}
	if e.TargetType != "" {
		targetType := e.TargetType
		entry.TargetType = &targetType
	}
	if e.IP != "" {
		ip := e.IP
		entry.IP = &ip
	}
	if e.UserAgent != "" {
		userAgent := e.UserAgent
		entry.UserAgent = &userAgent
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Warn("failed to record activity",
			logger.Action(e.Action),
			logger.Err(err),
		)
	}
}

// ActivityInfo is the API view of an activity log entry.
type ActivityInfo struct {
	ID          int64                  `json:"id"`
	UserID      *int64                 `json:"user_id,omitempty"`
	Action      string                 `json:"action"`
	TargetType  *string                `json:"target_type,omitempty"`
	TargetID    *int64                 `json:"target_id,omitempty"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IP          *string                `json:"ip,omitempty"`
	UserAgent   *string                `json:"user_agent,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ListRequest filters the activity log.
type ListRequest struct {
	UserID     int64      `form:"user_id"`
	Action     string     `form:"action"`
	TargetType string     `form:"target_type"`
	TargetID   int64      `form:"target_id"`
	StartTime  *time.Time `form:"-"`
	EndTime    *time.Time `form:"-"`
}

// List returns activity entries matching the filters, newest first.
func (s *Service) List(ctx context.Context, req *ListRequest, offset, limit int) ([]*ActivityInfo, int64, error) {
	filters := map[string]interface{}{}
	if req.UserID > 0 {
		filters["user_id"] = req.UserID
	}
	if req.Action != "" {
		filters["action"] = req.Action
	}
	if req.TargetType != "" {
		filters["target_type"] = req.TargetType
	}
	if req.TargetID > 0 {
		filters["target_id"] = req.TargetID
	}
	if req.StartTime != nil {
		filters["start_time"] = *req.StartTime
	}
	if req.EndTime != nil {
		filters["end_time"] = *req.EndTime
	}

	entries, total, err := s.repo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*ActivityInfo, 0, len(entries))
	for _, entry := range entries {
		result = append(result, convertInfo(entry))
	}
	return result, total, nil
}

// Get returns one entry by ID.
func (s *Service) Get(ctx context.Context, id int64) (*ActivityInfo, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return convertInfo(entry), nil
}

// Purge removes entries created before the cutoff.
func (s *Service) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return deleted, nil
}

func convertInfo(entry *models.ActivityLog) *ActivityInfo {
	return &ActivityInfo{
		ID:          entry.ID,
		UserID:      entry.UserID,
		Action:      entry.Action,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Description: entry.Description,
		Metadata:    entry.Metadata,
		IP:          entry.IP,
		UserAgent:   entry.UserAgent,
		CreatedAt:   entry.CreatedAt,
	}
}
