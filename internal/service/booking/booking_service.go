// Package booking provides the booking engine: creation with conflict
// detection, lifecycle transitions and room status recomputation.
package booking

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/common/utils"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
)

// Service is the booking engine.
type Service struct {
	db          *gorm.DB
	bookingRepo *repository.BookingRepository
	roomRepo    *repository.RoomRepository
	userRepo    *repository.UserRepository
	activity    *activity.Service
	rules       config.BookingConfig
	now         func() time.Time
}

// NewService creates the booking service.
func NewService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	roomRepo *repository.RoomRepository,
	userRepo *repository.UserRepository,
	activitySvc *activity.Service,
	rules config.BookingConfig,
) *Service {
	return &Service{
		db:          db,
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
		activity:    activitySvc,
		rules:       rules,
		now:         time.Now,
	}
}

// CreateBookingRequest creates a booking.
type CreateBookingRequest struct {
	RoomID         int64     `json:"room_id" binding:"required"`
	CheckIn        time.Time `json:"check_in" binding:"required" time_format:"2006-01-02"`
	CheckOut       time.Time `json:"check_out" binding:"required" time_format:"2006-01-02"`
	Adults         int       `json:"adults" binding:"required,min=1"`
	Children       int       `json:"children" binding:"min=0"`
	NumberOfGuests int       `json:"number_of_guests" binding:"required,min=1"`
}

// UpdateBookingRequest reschedules a booking. Nil fields are unchanged.
type UpdateBookingRequest struct {
	CheckIn        *time.Time `json:"check_in" time_format:"2006-01-02"`
	CheckOut       *time.Time `json:"check_out" time_format:"2006-01-02"`
	Adults         *int       `json:"adults"`
	Children       *int       `json:"children"`
	NumberOfGuests *int       `json:"number_of_guests"`
}

// ListBookingsRequest filters the booking list.
type ListBookingsRequest struct {
	UserID      int64      `form:"user_id"`
	RoomID      int64      `form:"room_id"`
	Status      string     `form:"status"`
	CheckInFrom *time.Time `form:"-"`
	CheckInTo   *time.Time `form:"-"`
}

// ConflictRange describes a booking occupying part of a requested range.
type ConflictRange struct {
	BookingID int64     `json:"booking_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Status    string    `json:"status"`
}

// BookingInfo is the API view of a booking.
type BookingInfo struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"user_id"`
	RoomID         int64          `json:"room_id"`
	Room           *RoomSummary   `json:"room,omitempty"`
	CheckIn        time.Time      `json:"check_in"`
	CheckOut       time.Time      `json:"check_out"`
	Nights         int            `json:"nights"`
	Adults         int            `json:"adults"`
	Children       int            `json:"children"`
	NumberOfGuests int            `json:"number_of_guests"`
	TotalPrice     float64        `json:"total_price"`
	Status         string         `json:"status"`
	Payment        *PaymentStatus `json:"payment,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RoomSummary is the embedded room view.
type RoomSummary struct {
	ID            int64   `json:"id"`
	RoomNumber    string  `json:"room_number"`
	RoomType      string  `json:"room_type"`
	PricePerNight float64 `json:"price_per_night"`
}

// PaymentStatus is the embedded payment view.
type PaymentStatus struct {
	ID     int64   `json:"id"`
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Status string  `json:"status"`
}

// AvailabilityInfo answers an availability check.
type AvailabilityInfo struct {
	RoomID     int64           `json:"room_id"`
	Available  bool            `json:"available"`
	Nights     int             `json:"nights"`
	TotalPrice float64         `json:"total_price"`
	Conflicts  []ConflictRange `json:"conflicts,omitempty"`
}

// CreateBooking validates the request, then checks and inserts inside one
// transaction holding a row lock on the room, so two concurrent requests
// for the same room cannot both pass the overlap check.
func (s *Service) CreateBooking(ctx context.Context, actor models.Actor, req *CreateBookingRequest) (*BookingInfo, error) {
	checkIn := utils.DateOnly(req.CheckIn)
	checkOut := utils.DateOnly(req.CheckOut)

	if err := s.validateDates(checkIn, checkOut); err != nil {
		return nil, err
	}
	if err := s.validateGuests(req.Adults, req.Children, req.NumberOfGuests); err != nil {
		return nil, err
	}

	hasDetail, err := s.userRepo.HasCustomerDetail(ctx, actor.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !hasDetail {
		return nil, errors.ErrCustomerDetailMissing
	}

	var booking *models.Booking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, req.RoomID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrRoomNotFound
			}
			return errors.ErrDatabaseError.WithError(err)
		}
		overlaps, err := s.bookingRepo.WithTx(tx).FindOverlapping(ctx, req.RoomID, checkIn, checkOut, 0)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if len(overlaps) > 0 {
			return errors.ErrBookingConflict.WithData(conflictRanges(overlaps))
		}

		nights := utils.NightsBetween(checkIn, checkOut)
		booking = &models.Booking{
			UserID:         actor.ID,
			RoomID:         req.RoomID,
			CheckIn:        checkIn,
			CheckOut:       checkOut,
			Adults:         req.Adults,
			Children:       req.Children,
			NumberOfGuests: req.NumberOfGuests,
			TotalPrice:     float64(nights) * room.PricePerNight,
			Status:         models.BookingStatusPending,
		}
		if err := s.bookingRepo.WithTx(tx).Create(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		booking.Room = room
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionBookingCreated,
		TargetType:  "booking",
		TargetID:    &booking.ID,
		Description: "booking created",
	})

	return convertBookingInfo(booking), nil
}

// GetBooking returns one booking. Customers may only read their own.
func (s *Service) GetBooking(ctx context.Context, actor models.Actor, id int64) (*BookingInfo, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && booking.UserID != actor.ID {
		return nil, errors.ErrPermissionDenied
	}
	return convertBookingInfo(booking), nil
}

// ListBookings returns bookings matching the filters. Staff only.
func (s *Service) ListBookings(ctx context.Context, req *ListBookingsRequest, offset, limit int) ([]*BookingInfo, int64, error) {
	filters := map[string]interface{}{}
	if req.UserID > 0 {
		filters["user_id"] = req.UserID
	}
	if req.RoomID > 0 {
		filters["room_id"] = req.RoomID
	}
	if req.Status != "" {
		if !models.IsValidBookingStatus(req.Status) {
			return nil, 0, errors.ErrBookingStatusError
		}
		filters["status"] = req.Status
	}
	if req.CheckInFrom != nil {
		filters["check_in_from"] = *req.CheckInFrom
	}
	if req.CheckInTo != nil {
		filters["check_in_to"] = *req.CheckInTo
	}

	bookings, total, err := s.bookingRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return convertBookingInfos(bookings), total, nil
}

// ListMyBookings returns the caller's bookings, newest first.
func (s *Service) ListMyBookings(ctx context.Context, userID int64, offset, limit int) ([]*BookingInfo, int64, error) {
	bookings, total, err := s.bookingRepo.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return convertBookingInfos(bookings), total, nil
}

// CancelBooking is the customer-facing cancel. Checked-in stays and
// finalized bookings cannot be cancelled here.
func (s *Service) CancelBooking(ctx context.Context, actor models.Actor, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrBookingNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && booking.UserID != actor.ID {
		return errors.ErrPermissionDenied
	}

	// Checked-in stays are only cancellable through the staff status
	// update; this path stops at confirmed.
	switch booking.Status {
	case models.BookingStatusPending, models.BookingStatusConfirmed:
	default:
		return errors.ErrBookingCannotCancel
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.bookingRepo.WithTx(tx).UpdateStatusIf(ctx, id, booking.Status, models.BookingStatusCancelled)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !updated {
			return errors.ErrBookingCannotCancel
		}
		return s.recomputeRoomStatus(ctx, tx, booking.RoomID)
	})
	if err != nil {
		return asAppError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionBookingCancelled,
		TargetType:  "booking",
		TargetID:    &id,
		Description: "booking cancelled",
	})
	return nil
}

// allowedTransitions are the staff-driven forward transitions.
var allowedTransitions = map[string][]string{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCheckedIn, models.BookingStatusCancelled},
	models.BookingStatusCheckedIn: {models.BookingStatusCheckedOut, models.BookingStatusCancelled},
}

// UpdateStatus applies a staff lifecycle transition. Requesting the
// current state is a no-op; terminal states accept nothing else.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id int64, status string) (*BookingInfo, error) {
	if !models.IsValidBookingStatus(status) {
		return nil, errors.ErrBookingStatusError
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if booking.Status == status {
		return convertBookingInfo(booking), nil
	}
	if booking.IsTerminal() {
		return nil, errors.ErrBookingTerminal
	}
	if !utils.Contains(allowedTransitions[booking.Status], status) {
		return nil, errors.ErrBookingTransition
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.bookingRepo.WithTx(tx).UpdateStatusIf(ctx, id, booking.Status, status)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !updated {
			return errors.ErrBookingTransition
		}
		return s.recomputeRoomStatus(ctx, tx, booking.RoomID)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	action := models.ActionBookingUpdated
	if status == models.BookingStatusCancelled {
		action = models.ActionBookingCancelled
	}
	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      action,
		TargetType:  "booking",
		TargetID:    &id,
		Description: "booking status changed to " + status,
	})

	booking.Status = status
	return convertBookingInfo(booking), nil
}

// UpdateBooking reschedules a booking, re-running the full validation and
// overlap check with the booking itself excluded. Admin only; terminal
// bookings are immutable.
func (s *Service) UpdateBooking(ctx context.Context, actor models.Actor, id int64, req *UpdateBookingRequest) (*BookingInfo, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if booking.IsTerminal() {
		return nil, errors.ErrBookingTerminal
	}

	checkIn := booking.CheckIn
	checkOut := booking.CheckOut
	if req.CheckIn != nil {
		checkIn = utils.DateOnly(*req.CheckIn)
	}
	if req.CheckOut != nil {
		checkOut = utils.DateOnly(*req.CheckOut)
	}
	adults := booking.Adults
	children := booking.Children
	guests := booking.NumberOfGuests
	if req.Adults != nil {
		adults = *req.Adults
	}
	if req.Children != nil {
		children = *req.Children
	}
	if req.NumberOfGuests != nil {
		guests = *req.NumberOfGuests
	}

	datesChanged := !checkIn.Equal(booking.CheckIn) || !checkOut.Equal(booking.CheckOut)
	if datesChanged {
		if err := s.validateDates(checkIn, checkOut); err != nil {
			return nil, err
		}
	}
	if err := s.validateGuests(adults, children, guests); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := s.roomRepo.WithTx(tx).GetByIDForUpdate(ctx, booking.RoomID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		if datesChanged {
			overlaps, err := s.bookingRepo.WithTx(tx).FindOverlapping(ctx, booking.RoomID, checkIn, checkOut, id)
			if err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if len(overlaps) > 0 {
				return errors.ErrBookingConflict.WithData(conflictRanges(overlaps))
			}
		}

		nights := utils.NightsBetween(checkIn, checkOut)
		booking.CheckIn = checkIn
		booking.CheckOut = checkOut
		booking.Adults = adults
		booking.Children = children
		booking.NumberOfGuests = guests
		booking.TotalPrice = float64(nights) * room.PricePerNight
		if err := s.bookingRepo.WithTx(tx).Update(ctx, booking); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return s.recomputeRoomStatus(ctx, tx, booking.RoomID)
	})
	if err != nil {
		return nil, asAppError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionBookingUpdated,
		TargetType:  "booking",
		TargetID:    &id,
		Description: "booking rescheduled",
	})

	return convertBookingInfo(booking), nil
}

// DeleteBooking removes a booking outright. Admin only.
func (s *Service) DeleteBooking(ctx context.Context, actor models.Actor, id int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrBookingNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.bookingRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return s.recomputeRoomStatus(ctx, tx, booking.RoomID)
	})
	if err != nil {
		return asAppError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionBookingDeleted,
		TargetType:  "booking",
		TargetID:    &id,
		Description: "booking deleted",
	})
	return nil
}

// CheckAvailability is a pure read: it reports whether the range is free
// of overlapping bookings and quotes the total price. Room status never
// factors in. The answer can be stale by the time a create runs; the
// create re-checks under the room lock.
func (s *Service) CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (*AvailabilityInfo, error) {
	checkIn = utils.DateOnly(checkIn)
	checkOut = utils.DateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return nil, errors.ErrBookingDatesInvalid
	}

	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrRoomNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	overlaps, err := s.bookingRepo.FindOverlapping(ctx, roomID, checkIn, checkOut, 0)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	nights := utils.NightsBetween(checkIn, checkOut)
	return &AvailabilityInfo{
		RoomID:     roomID,
		Available:  len(overlaps) == 0,
		Nights:     nights,
		TotalPrice: float64(nights) * room.PricePerNight,
		Conflicts:  conflictRanges(overlaps),
	}, nil
}

// recomputeRoomStatus derives the room status from its booking set: any
// checked-in stay marks the room Occupied, otherwise it is Available.
// Runs inside the caller's transaction.
func (s *Service) recomputeRoomStatus(ctx context.Context, tx *gorm.DB, roomID int64) error {
	occupied, err := s.bookingRepo.WithTx(tx).HasCheckedIn(ctx, roomID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	status := models.RoomStatusAvailable
	if occupied {
		status = models.RoomStatusOccupied
	}
	if err := s.roomRepo.WithTx(tx).UpdateStatus(ctx, roomID, status); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

func (s *Service) validateDates(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return errors.ErrBookingDatesInvalid
	}
	today := utils.DateOnly(s.now())
	if checkIn.Before(today) {
		return errors.ErrBookingDatePast
	}
	nights := utils.NightsBetween(checkIn, checkOut)
	if s.rules.MaxStayNights > 0 && nights > s.rules.MaxStayNights {
		return errors.ErrInvalidParams.WithMessage("stay exceeds the maximum length")
	}
	if s.rules.AdvanceDaysMax > 0 {
		limit := today.AddDate(0, 0, s.rules.AdvanceDaysMax)
		if checkIn.After(limit) {
			return errors.ErrInvalidParams.WithMessage("check-in date is too far in the future")
		}
	}
	return nil
}

func (s *Service) validateGuests(adults, children, total int) error {
	if adults < 1 || children < 0 {
		return errors.ErrBookingGuestsInvalid
	}
	if adults+children != total {
		return errors.ErrBookingGuestsInvalid.WithMessage("number_of_guests must equal adults plus children")
	}
	maxGuests := s.rules.MaxGuests
	if maxGuests <= 0 {
		maxGuests = 4
	}
	if total < 1 || total > maxGuests {
		return errors.ErrBookingGuestsInvalid
	}
	return nil
}

func conflictRanges(bookings []*models.Booking) []ConflictRange {
	if len(bookings) == 0 {
		return nil
	}
	ranges := make([]ConflictRange, 0, len(bookings))
	for _, b := range bookings {
		ranges = append(ranges, ConflictRange{
			BookingID: b.ID,
			CheckIn:   b.CheckIn,
			CheckOut:  b.CheckOut,
			Status:    b.Status,
		})
	}
	return ranges
}

func asAppError(err error) error {
	if _, ok := err.(*errors.AppError); ok {
		return err
	}
	return errors.ErrDatabaseError.WithError(err)
}

func convertBookingInfo(b *models.Booking) *BookingInfo {
	info := &BookingInfo{
		ID:             b.ID,
		UserID:         b.UserID,
		RoomID:         b.RoomID,
		CheckIn:        b.CheckIn,
		CheckOut:       b.CheckOut,
		Nights:         b.Nights(),
		Adults:         b.Adults,
		Children:       b.Children,
		NumberOfGuests: b.NumberOfGuests,
		TotalPrice:     b.TotalPrice,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.Room != nil {
		info.Room = &RoomSummary{
			ID:            b.Room.ID,
			RoomNumber:    b.Room.RoomNumber,
			RoomType:      b.Room.RoomType,
			PricePerNight: b.Room.PricePerNight,
		}
	}
	if b.Payment != nil {
		info.Payment = &PaymentStatus{
			ID:     b.Payment.ID,
			Amount: b.Payment.Amount,
			Method: b.Payment.Method,
			Status: b.Payment.Status,
		}
	}
	return info
}

func convertBookingInfos(bookings []*models.Booking) []*BookingInfo {
	result := make([]*BookingInfo, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, convertBookingInfo(b))
	}
	return result
}
