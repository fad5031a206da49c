// Package payment provides the payment ledger: one payment per booking
// with guarded status transitions.
package payment

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
)

// Service is the payment ledger.
type Service struct {
	db          *gorm.DB
	paymentRepo *repository.PaymentRepository
	bookingRepo *repository.BookingRepository
	activity    *activity.Service
	now         func() time.Time
}

// NewService creates the payment service.
func NewService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	activitySvc *activity.Service,
) *Service {
	return &Service{
		db:          db,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		activity:    activitySvc,
		now:         time.Now,
	}
}

// CreatePaymentRequest creates a payment.
type CreatePaymentRequest struct {
	BookingID int64   `json:"booking_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required"`
	Method    string  `json:"method" binding:"required"`
}

// ListPaymentsRequest filters the payment list.
type ListPaymentsRequest struct {
	UserID    int64  `form:"user_id"`
	BookingID int64  `form:"booking_id"`
	Method    string `form:"method"`
	Status    string `form:"status"`
}

// PaymentInfo is the API view of a payment.
type PaymentInfo struct {
	ID                int64      `json:"id"`
	BookingID         int64      `json:"booking_id"`
	UserID            int64      `json:"user_id"`
	Amount            float64    `json:"amount"`
	Method            string     `json:"method"`
	Status            string     `json:"status"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	CheckoutRequestID *string    `json:"checkout_request_id,omitempty"`
	ReceiptNumber     *string    `json:"receipt_number,omitempty"`
	PhoneNumber       *string    `json:"phone_number,omitempty"`
	TransactionDate   *time.Time `json:"transaction_date,omitempty"`
	FailureReason     *string    `json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// CreatePayment records a pending payment against a booking. A booking
// carries at most one payment; a second create is a conflict.
func (s *Service) CreatePayment(ctx context.Context, actor models.Actor, req *CreatePaymentRequest) (*PaymentInfo, error) {
	if req.Amount <= 0 {
		return nil, errors.ErrPaymentAmountInvalid
	}
	if !models.IsValidPaymentMethod(req.Method) {
		return nil, errors.ErrPaymentMethodError
	}

	booking, err := s.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && booking.UserID != actor.ID {
		return nil, errors.ErrPermissionDenied
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, errors.ErrBookingStatusError.WithMessage("cancelled bookings cannot be paid")
	}

	exists, err := s.paymentRepo.ExistsByBookingID(ctx, req.BookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrPaymentExists
	}

	payment := &models.Payment{
		BookingID: req.BookingID,
		UserID:    booking.UserID,
		Amount:    req.Amount,
		Method:    req.Method,
		Status:    models.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionPaymentCreated,
		TargetType:  "payment",
		TargetID:    &payment.ID,
		Description: "payment created",
	})

	return convertPaymentInfo(payment), nil
}

// UpdateStatus applies a ledger transition. Completing a payment stamps
// paid_at and confirms a still-pending parent booking in the same
// transaction; completed and refunded rows accept nothing except
// completed to refunded.
func (s *Service) UpdateStatus(ctx context.Context, actor models.Actor, id int64, status string) (*PaymentInfo, error) {
	if !models.IsValidPaymentStatus(status) {
		return nil, errors.ErrPaymentStatusError
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if payment.Status == status {
		return convertPaymentInfo(payment), nil
	}

	switch {
	case payment.Status == models.PaymentStatusPending && status == models.PaymentStatusCompleted:
		if err := s.Complete(ctx, payment.ID, payment.BookingID, nil); err != nil {
			return nil, err
		}
	case payment.Status == models.PaymentStatusPending && status == models.PaymentStatusFailed:
		updated, err := s.paymentRepo.UpdateFieldsIfPending(ctx, id, map[string]interface{}{
			"status": models.PaymentStatusFailed,
		})
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if !updated {
			return nil, errors.ErrPaymentImmutable
		}
	case payment.Status == models.PaymentStatusCompleted && status == models.PaymentStatusRefunded:
		if err := s.paymentRepo.UpdateFields(ctx, id, map[string]interface{}{
			"status": models.PaymentStatusRefunded,
		}); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	case payment.IsFinal():
		return nil, errors.ErrPaymentImmutable
	default:
		return nil, errors.ErrPaymentStatusError.WithMessage("transition not allowed")
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionPaymentUpdated,
		TargetType:  "payment",
		TargetID:    &id,
		Description: "payment status changed to " + status,
	})

	refreshed, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return convertPaymentInfo(refreshed), nil
}

// Complete moves a pending payment to completed and confirms its
// still-pending booking, in one transaction. The pending guard makes it
// idempotent under racing callers, so the gateway callback, the status
// poll and the manual path all funnel through here. extraFields lets
// the gateway attach receipt data atomically.
func (s *Service) Complete(ctx context.Context, paymentID, bookingID int64, extraFields map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]interface{}{
			"status":  models.PaymentStatusCompleted,
			"paid_at": s.now(),
		}
		for k, v := range extraFields {
			fields[k] = v
		}
		updated, err := s.paymentRepo.WithTx(tx).UpdateFieldsIfPending(ctx, paymentID, fields)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if !updated {
			return errors.ErrPaymentImmutable
		}
		// Confirm the booking only if it is still pending; a booking
		// already confirmed or checked in stays where it is.
		if _, err := s.bookingRepo.WithTx(tx).UpdateStatusIf(ctx, bookingID,
			models.BookingStatusPending, models.BookingStatusConfirmed); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	})
}

// UpdateAmount corrects the amount on a payment that has not settled.
func (s *Service) UpdateAmount(ctx context.Context, actor models.Actor, id int64, amount float64) (*PaymentInfo, error) {
	if amount <= 0 {
		return nil, errors.ErrPaymentAmountInvalid
	}

	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.IsFinal() {
		return nil, errors.ErrPaymentImmutable
	}

	if err := s.paymentRepo.UpdateFields(ctx, id, map[string]interface{}{
		"amount": amount,
	}); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionPaymentUpdated,
		TargetType:  "payment",
		TargetID:    &id,
		Description: "payment amount corrected",
	})

	payment.Amount = amount
	return convertPaymentInfo(payment), nil
}

// DeletePayment removes a payment. Completed payments are never deleted;
// they are refunded so the ledger keeps its history.
func (s *Service) DeletePayment(ctx context.Context, actor models.Actor, id int64) error {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrPaymentNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if payment.Status == models.PaymentStatusCompleted {
		return errors.ErrPaymentDeleteDenied
	}

	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionPaymentDeleted,
		TargetType:  "payment",
		TargetID:    &id,
		Description: "payment deleted",
	})
	return nil
}

// GetPayment returns one payment. Customers may only read their own.
func (s *Service) GetPayment(ctx context.Context, actor models.Actor, id int64) (*PaymentInfo, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && payment.UserID != actor.ID {
		return nil, errors.ErrPermissionDenied
	}
	return convertPaymentInfo(payment), nil
}

// GetPaymentByBooking returns the payment attached to a booking.
func (s *Service) GetPaymentByBooking(ctx context.Context, actor models.Actor, bookingID int64) (*PaymentInfo, error) {
	payment, err := s.paymentRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && payment.UserID != actor.ID {
		return nil, errors.ErrPermissionDenied
	}
	return convertPaymentInfo(payment), nil
}

// ListPayments returns payments matching the filters. Staff only.
func (s *Service) ListPayments(ctx context.Context, req *ListPaymentsRequest, offset, limit int) ([]*PaymentInfo, int64, error) {
	filters := map[string]interface{}{}
	if req.UserID > 0 {
		filters["user_id"] = req.UserID
	}
	if req.BookingID > 0 {
		filters["booking_id"] = req.BookingID
	}
	if req.Method != "" {
		filters["method"] = req.Method
	}
	if req.Status != "" {
		if !models.IsValidPaymentStatus(req.Status) {
			return nil, 0, errors.ErrPaymentStatusError
		}
		filters["status"] = req.Status
	}

	payments, total, err := s.paymentRepo.List(ctx, offset, limit, filters)
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return convertPaymentInfos(payments), total, nil
}

// ListMyPayments returns the caller's payments.
func (s *Service) ListMyPayments(ctx context.Context, userID int64, offset, limit int) ([]*PaymentInfo, int64, error) {
	payments, total, err := s.paymentRepo.List(ctx, offset, limit, map[string]interface{}{
		"user_id": userID,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return convertPaymentInfos(payments), total, nil
}

// Statistics aggregates the ledger, optionally bounded by paid_at.
func (s *Service) Statistics(ctx context.Context, from, to *time.Time) (*repository.PaymentStatistics, error) {
	stats, err := s.paymentRepo.Statistics(ctx, from, to)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return stats, nil
}

func convertPaymentInfo(p *models.Payment) *PaymentInfo {
	return &PaymentInfo{
		ID:                p.ID,
		BookingID:         p.BookingID,
		UserID:            p.UserID,
		Amount:            p.Amount,
		Method:            p.Method,
		Status:            p.Status,
		PaidAt:            p.PaidAt,
		CheckoutRequestID: p.CheckoutRequestID,
		ReceiptNumber:     p.ReceiptNumber,
		PhoneNumber:       p.PhoneNumber,
		TransactionDate:   p.TransactionDate,
		FailureReason:     p.FailureReason,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func convertPaymentInfos(payments []*models.Payment) []*PaymentInfo {
	result := make([]*PaymentInfo, 0, len(payments))
	for _, p := range payments {
		result = append(result, convertPaymentInfo(p))
	}
	return result
}
