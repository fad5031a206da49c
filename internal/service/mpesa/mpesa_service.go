// Package mpesa drives the M-Pesa STK push flow: initiating the phone
// prompt, settling asynchronous callbacks, and reconciling payments the
// gateway never called back about.
package mpesa

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/common/config"
	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/common/logger"
	"github.com/safarinest/hotel-booking-backend/internal/common/metrics"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
	"github.com/safarinest/hotel-booking-backend/internal/service/payment"
	"github.com/safarinest/hotel-booking-backend/pkg/daraja"
)

// Gateway is the Daraja surface this service needs. *daraja.Client
// satisfies it.
type Gateway interface {
	STKPush(ctx context.Context, req *daraja.STKPushRequest) (*daraja.STKPushResponse, error)
	STKQuery(ctx context.Context, checkoutRequestID string) (*daraja.STKQueryResponse, error)
}

// Service orchestrates M-Pesa payments on top of the payment ledger.
// All settle paths, callback, timeout, query and reconcile, funnel
// through the ledger's guarded pending transition, so whichever path
// arrives first wins and the rest become no-ops.
type Service struct {
	db          *gorm.DB
	paymentRepo *repository.PaymentRepository
	bookingRepo *repository.BookingRepository
	payments    *payment.Service
	activity    *activity.Service
	gateway     Gateway
	cfg         *config.MpesaConfig
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewService creates the M-Pesa service.
func NewService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	bookingRepo *repository.BookingRepository,
	paymentSvc *payment.Service,
	activitySvc *activity.Service,
	gateway Gateway,
	cfg *config.MpesaConfig,
) *Service {
	return &Service{
		db:          db,
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		payments:    paymentSvc,
		activity:    activitySvc,
		gateway:     gateway,
		cfg:         cfg,
		metrics:     metrics.GetMetrics(),
		now:         time.Now,
	}
}

// InitiatePushRequest starts an STK push for a booking.
type InitiatePushRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

// PushInfo is the synchronous result of an STK push. The payment stays
// pending until the callback, a status query, or the reconciler settles
// it.
type PushInfo struct {
	PaymentID         int64   `json:"payment_id"`
	BookingID         int64   `json:"booking_id"`
	Amount            float64 `json:"amount"`
	Phone             string  `json:"phone"`
	CheckoutRequestID string  `json:"checkout_request_id"`
	MerchantRequestID string  `json:"merchant_request_id"`
	CustomerMessage   string  `json:"customer_message"`
}

// InitiatePush sends the payment prompt to the customer's phone and
// records (or re-arms) the pending payment. The amount always comes
// from the booking, never from the client.
func (s *Service) InitiatePush(ctx context.Context, actor models.Actor, req *InitiatePushRequest) (*PushInfo, error) {
	phone, err := daraja.FormatPhone(req.Phone)
	if err != nil {
		return nil, errors.ErrGatewayPhoneFormat.WithError(err)
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

	pay, err := s.paymentRepo.GetByBookingID(ctx, req.BookingID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if pay != nil {
		if pay.IsFinal() {
			return nil, errors.ErrPaymentExists
		}
		if pay.Method != models.PaymentMethodMpesa {
			return nil, errors.ErrPaymentMethodError.WithMessage(
				fmt.Sprintf("booking already has a %s payment", pay.Method))
		}
	}

	resp, err := s.gateway.STKPush(ctx, &daraja.STKPushRequest{
		Phone:            phone,
		Amount:           booking.TotalPrice,
		AccountReference: fmt.Sprintf("Booking-%d", booking.ID),
		Description:      "Hotel booking payment",
	})
	if err != nil {
		return nil, mapGatewayError(err)
	}

	if pay == nil {
		pay = &models.Payment{
			BookingID:         booking.ID,
			UserID:            booking.UserID,
			Amount:            booking.TotalPrice,
			Method:            models.PaymentMethodMpesa,
			Status:            models.PaymentStatusPending,
			PhoneNumber:       &phone,
			CheckoutRequestID: &resp.CheckoutRequestID,
			MerchantRequestID: &resp.MerchantRequestID,
		}
		if err := s.paymentRepo.Create(ctx, pay); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	} else {
		// Re-arm a pending or failed payment for the new push. The
		// previous checkout id is overwritten; a late callback for it
		// will no longer correlate, which is the safe outcome.
		fields := map[string]interface{}{
			"status":              models.PaymentStatusPending,
			"amount":              booking.TotalPrice,
			"phone_number":        phone,
			"checkout_request_id": resp.CheckoutRequestID,
			"merchant_request_id": resp.MerchantRequestID,
			"failure_reason":      nil,
		}
		if err := s.paymentRepo.UpdateFields(ctx, pay.ID, fields); err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	s.activity.Record(ctx, &activity.Entry{
		UserID:      &actor.ID,
		Action:      models.ActionMpesaInitiated,
		TargetType:  "payment",
		TargetID:    &pay.ID,
		Description: fmt.Sprintf("stk push sent for booking %d", booking.ID),
	})
	logger.Info("stk push initiated",
		logger.BookingID(booking.ID),
		logger.PaymentID(pay.ID),
		logger.CheckoutRequestID(resp.CheckoutRequestID))

	return &PushInfo{
		PaymentID:         pay.ID,
		BookingID:         booking.ID,
		Amount:            booking.TotalPrice,
		Phone:             phone,
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

// HandleCallback settles the asynchronous STK result. Unknown checkout
// ids and already-settled payments return nil so the handler always
// acknowledges; Daraja retries anything it considers unacknowledged.
func (s *Service) HandleCallback(ctx context.Context, body io.Reader) error {
	cb, err := daraja.ParseCallback(body)
	if err != nil {
		s.metrics.RecordMpesaCallback("invalid")
		return errors.ErrGatewayCallback.WithError(err)
	}

	pay, err := s.paymentRepo.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("callback for unknown checkout request",
				logger.CheckoutRequestID(cb.CheckoutRequestID))
			s.metrics.RecordMpesaCallback("unknown")
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if cb.Succeeded() {
		return s.settleSuccess(ctx, pay, cb)
	}
	return s.settleFailure(ctx, pay, cb.ResultDesc, "failed")
}

// HandleTimeout marks a push as failed after the gateway's timeout URL
// fires. Idempotent: a payment settled by an earlier callback is left
// alone.
func (s *Service) HandleTimeout(ctx context.Context, checkoutRequestID string) error {
	pay, err := s.paymentRepo.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn("timeout for unknown checkout request",
				logger.CheckoutRequestID(checkoutRequestID))
			s.metrics.RecordMpesaCallback("unknown")
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return s.settleFailure(ctx, pay, "request timed out", "timeout")
}

// QueryStatus returns the payment's settled state, asking the gateway
// first when it is still pending. A definitive gateway answer is
// applied to the ledger before returning.
func (s *Service) QueryStatus(ctx context.Context, actor models.Actor, checkoutRequestID string) (*payment.PaymentInfo, error) {
	pay, err := s.paymentRepo.GetByCheckoutRequestID(ctx, checkoutRequestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if !actor.IsStaff() && pay.UserID != actor.ID {
		return nil, errors.ErrPermissionDenied
	}

	if pay.Status == models.PaymentStatusPending {
		if err := s.reconcileOne(ctx, pay); err != nil {
			return nil, err
		}
	}
	return s.payments.GetPayment(ctx, actor, pay.ID)
}

// ReconcileStale sweeps pending M-Pesa payments older than the STK
// timeout and settles them from the gateway's answer. Run periodically
// by the scheduler; returns how many payments it settled.
func (s *Service) ReconcileStale(ctx context.Context, limit int) (int, error) {
	cutoff := s.now().Add(-s.cfg.StkTimeout())
	stale, err := s.paymentRepo.ListStalePending(ctx, cutoff, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	settled := 0
	for _, pay := range stale {
		if pay.CheckoutRequestID == nil {
			continue
		}
		before := pay.Status
		if err := s.reconcileOne(ctx, pay); err != nil {
			logger.Warn("reconcile failed",
				logger.PaymentID(pay.ID),
				logger.Err(err))
			continue
		}
		fresh, err := s.paymentRepo.GetByID(ctx, pay.ID)
		if err == nil && fresh.Status != before {
			settled++
		}
	}
	return settled, nil
}

// reconcileOne queries the gateway for a pending payment and applies a
// definitive answer. A gateway error that means "still processing" (or
// any transport failure) leaves the payment untouched for a later pass.
func (s *Service) reconcileOne(ctx context.Context, pay *models.Payment) error {
	resp, err := s.gateway.STKQuery(ctx, *pay.CheckoutRequestID)
	if err != nil {
		var apiErr *daraja.APIError
		if stderrors.As(err, &apiErr) {
			// The gateway knows the push but has no outcome yet.
			return nil
		}
		return mapGatewayError(err)
	}

	if resp.Succeeded() {
		return s.settleSuccess(ctx, pay, nil)
	}
	return s.settleFailure(ctx, pay, resp.ResultDesc, "failed")
}

// settleSuccess completes the payment and confirms its booking through
// the ledger's guarded transition. cb may be nil when the outcome came
// from a status query, which carries no receipt metadata.
func (s *Service) settleSuccess(ctx context.Context, pay *models.Payment, cb *daraja.STKCallback) error {
	extra := map[string]interface{}{}
	if cb != nil {
		if receipt, ok := cb.ReceiptNumber(); ok {
			extra["receipt_number"] = receipt
		}
		if phone, ok := cb.PhoneNumber(); ok {
			extra["phone_number"] = phone
		}
		if txDate, ok := cb.TransactionDate(time.Local); ok {
			extra["transaction_date"] = txDate
		}
	}

	err := s.payments.Complete(ctx, pay.ID, pay.BookingID, extra)
	if err != nil {
		if errors.IsCode(err, errors.ErrPaymentImmutable.Code) {
			// Another settle path won the race.
			s.metrics.RecordMpesaCallback("duplicate")
			return nil
		}
		return err
	}

	s.metrics.RecordMpesaCallback("success")
	s.metrics.RecordPayment(models.PaymentMethodMpesa, models.PaymentStatusCompleted)
	s.activity.Record(ctx, &activity.Entry{
		UserID:      &pay.UserID,
		Action:      models.ActionMpesaCompleted,
		TargetType:  "payment",
		TargetID:    &pay.ID,
		Description: "mpesa payment completed",
	})
	logger.Info("mpesa payment completed",
		logger.PaymentID(pay.ID),
		logger.BookingID(pay.BookingID))
	return nil
}

// settleFailure marks a still-pending payment failed. The pending guard
// makes it a no-op when the payment was already settled.
func (s *Service) settleFailure(ctx context.Context, pay *models.Payment, reason, result string) error {
	updated, err := s.paymentRepo.UpdateFieldsIfPending(ctx, pay.ID, map[string]interface{}{
		"status":         models.PaymentStatusFailed,
		"failure_reason": reason,
	})
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if !updated {
		s.metrics.RecordMpesaCallback("duplicate")
		return nil
	}

	s.metrics.RecordMpesaCallback(result)
	s.metrics.RecordPayment(models.PaymentMethodMpesa, models.PaymentStatusFailed)
	s.activity.Record(ctx, &activity.Entry{
		UserID:      &pay.UserID,
		Action:      models.ActionMpesaFailed,
		TargetType:  "payment",
		TargetID:    &pay.ID,
		Description: reason,
	})
	logger.Info("mpesa payment failed",
		logger.PaymentID(pay.ID),
		logger.String("reason", reason))
	return nil
}

// mapGatewayError translates Daraja client errors into business codes.
func mapGatewayError(err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.ErrGatewayTimeout.WithError(err)
	}
	var apiErr *daraja.APIError
	if stderrors.As(err, &apiErr) {
		return errors.ErrGatewayRejected.WithError(err)
	}
	return errors.ErrGatewayRequest.WithError(err)
}
