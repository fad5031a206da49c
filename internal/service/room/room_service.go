// Package room provides the room registry service.
package room

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
)

// Service manages the room registry.
type Service struct {
	db          *gorm.DB
	roomRepo    *repository.RoomRepository
	bookingRepo *repository.BookingRepository
	activity    *activity.Service
}

// NewService creates the room service.
func NewService(
	db *gorm.DB,
	roomRepo *repository.RoomRepository,
	bookingRepo *repository.BookingRepository,
	activitySvc *activity.Service,
) *Service {
	return &Service{
		db:          db,
		roomRepo:    roomRepo,
		bookingRepo: bookingRepo,
		activity:    activitySvc,
	}
}

// CreateRoomRequest creates a room.
type CreateRoomRequest struct {
	RoomNumber    string   `json:"room_number" binding:"required,max=20"`
	RoomType      string   `json:"room_type" binding:"required"`
	PricePerNight float64  `json:"price_per_night" binding:"required"`
	Description   *string  `json:"description"`
	Images        []string `json:"images"`
}

// UpdateRoomRequest updates a room. Nil fields are left unchanged.
type UpdateRoomRequest struct {
	RoomNumber    *string  `json:"room_number"`
	RoomType      *string  `json:"room_type"`
	PricePerNight *float64 `json:"price_per_night"`
	Status        *string  `json:"status"`
	Description   *string  `json:"description"`
	Images        []string `json:"images"`
}

// ListRoomsRequest filters the room list.
type ListRoomsRequest struct {
	Status   string  `form:"status"`
	RoomType string  `form:"room_type"`
	MinPrice float64 `form:"min_price"`
	MaxPrice float64 `form:"max_price"`
}

// RoomInfo is the API view of a room.
type RoomInfo struct {
	ID            int64     `json:"id"`
	RoomNumber    string    `json:"room_number"`
	RoomType      string    `json:"room_type"`
	PricePerNight float64   `json:"price_per_night"`
	Status        string    `json:"status"`
	Description   *string   `json:"description,omitempty"`
	Images        []string  `json:"images,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRoom registers a room. Room numbers are unique and the nightly
// price must be positive.
func (s *Service) CreateRoom(ctx context.Context, actor models.Actor, req *CreateRoomRequest) (*RoomInfo, error) {
	if !models.IsValidRoomType(req.RoomType) {
		return nil, errors.ErrInvalidParams.WithMessage("unknown room type")
	}
	if req.PricePerNight <= 0 {
		return nil, errors.ErrRoomPriceInvalid
	}

	exists, err := s.roomRepo.ExistsByRoomNumber(ctx, req.RoomNumber, 0)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrRoomNumberExists
	}

	room := &models.Room{
		RoomNumber:    req.RoomNumber,
		RoomType:      req.RoomType,
		PricePerNight: req.PricePerNight,
		Status:        models.RoomStatusAvailable,
		Description:   req.Description,
		Images:        req.Images,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionRoomCreated,
		TargetType:  "room",
		TargetID:    &room.ID,
		Description: "room " + room.RoomNumber + " created",
	})

	return convertRoomInfo(room), nil
}

// GetRoom returns one room.
func (s *Service) GetRoom(ctx context.Context, id int64) (*RoomInfo, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return convertRoomInfo(room), nil
}

// ListRooms returns rooms matching the filters.
func (s *Service) ListRooms(ctx context.Context, req *ListRoomsRequest, offset, limit int) ([]*RoomInfo, int64, error) {
	filters := map[string]interface{}{}
	if req.Status != "" {
		if !models.IsValidRoomStatus(req.Status) {
			return nil, 0, errors.ErrRoomStatusInvalid
		}
		filters["status"] = req.Status
	}
	if req.RoomType != "" {
		filters["room_type"] = req.RoomType
	}
	if req.MinPrice > 0 {
		filters["min_price"] = req.MinPrice
	}
	if req.MaxPrice > 0 {
		filters["max_price"] = req.MaxPrice
	}

	rooms, total, err := s.roomRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		result = append(result, convertRoomInfo(room))
	}
	return result, total, nil
}

// UpdateRoom applies a partial update.
func (s *Service) UpdateRoom(ctx context.Context, actor models.Actor, id int64, req *UpdateRoomRequest) (*RoomInfo, error) {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.RoomNumber != nil && *req.RoomNumber != room.RoomNumber {
		exists, err := s.roomRepo.ExistsByRoomNumber(ctx, *req.RoomNumber, id)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if exists {
			return nil, errors.ErrRoomNumberExists
		}
		room.RoomNumber = *req.RoomNumber
	}
	if req.RoomType != nil {
		if !models.IsValidRoomType(*req.RoomType) {
			return nil, errors.ErrInvalidParams.WithMessage("unknown room type")
		}
		room.RoomType = *req.RoomType
	}
	if req.PricePerNight != nil {
		if *req.PricePerNight <= 0 {
			return nil, errors.ErrRoomPriceInvalid
		}
		room.PricePerNight = *req.PricePerNight
	}
	if req.Status != nil {
		if !models.IsValidRoomStatus(*req.Status) {
			return nil, errors.ErrRoomStatusInvalid
		}
		room.Status = *req.Status
	}
	if req.Description != nil {
		room.Description = req.Description
	}
	if req.Images != nil {
		room.Images = req.Images
	}

	if err := s.roomRepo.Update(ctx, room); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionRoomUpdated,
		TargetType:  "room",
		TargetID:    &room.ID,
		Description: "room " + room.RoomNumber + " updated",
	})

	return convertRoomInfo(room), nil
}

// SetStatus places a room in an explicit status. Used by staff to take a
// room into or out of maintenance; booking mutations overwrite it on the
// next recomputation.
func (s *Service) SetStatus(ctx context.Context, actor models.Actor, id int64, status string) error {
	if !models.IsValidRoomStatus(status) {
		return errors.ErrRoomStatusInvalid
	}

	if _, err := s.roomRepo.GetByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRoomNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := s.roomRepo.UpdateStatus(ctx, id, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionRoomUpdated,
		TargetType:  "room",
		TargetID:    &id,
		Description: "room status set to " + status,
	})

	return nil
}

// DeleteRoom removes a room. Rooms holding non-terminal bookings cannot
// be deleted.
func (s *Service) DeleteRoom(ctx context.Context, actor models.Actor, id int64) error {
	room, err := s.roomRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrRoomNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	count, err := s.bookingRepo.CountActiveByRoom(ctx, id)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if count > 0 {
		return errors.ErrRoomInUse
	}

	if err := s.roomRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionRoomDeleted,
		TargetType:  "room",
		TargetID:    &id,
		Description: "room " + room.RoomNumber + " deleted",
	})

	return nil
}

// CountOccupied returns the number of rooms currently marked Occupied.
func (s *Service) CountOccupied(ctx context.Context) (int64, error) {
	_, total, err := s.roomRepo.List(ctx, 0, 1, map[string]interface{}{
		"status": models.RoomStatusOccupied,
	})
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}
	return total, nil
}

func convertRoomInfo(room *models.Room) *RoomInfo {
	return &RoomInfo{
		ID:            room.ID,
		RoomNumber:    room.RoomNumber,
		RoomType:      room.RoomType,
		PricePerNight: room.PricePerNight,
		Status:        room.Status,
		Description:   room.Description,
		Images:        room.Images,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
}
