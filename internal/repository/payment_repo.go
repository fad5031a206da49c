package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

// PaymentRepository persists payments.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a payment repository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID fetches a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDWithBooking fetches a payment with its booking.
func (r *PaymentRepository) GetByIDWithBooking(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Booking").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByBookingID fetches the payment attached to a booking.
func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByCheckoutRequestID fetches a payment by its gateway correlation ID.
func (r *PaymentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ExistsByBookingID reports whether the booking already has a payment.
func (r *PaymentRepository) ExistsByBookingID(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("booking_id = ?", bookingID).
		Count(&count).Error
	return count > 0, err
}

// Update saves the full payment record.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// UpdateFields updates selected payment fields.
func (r *PaymentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateFieldsIfPending updates the payment only while it is still
// pending. Returns whether a row changed; callbacks and the timeout
// path race on this guard, so the first writer wins.
func (r *PaymentRepository) UpdateFieldsIfPending(ctx context.Context, id int64, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentStatusPending).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// Delete removes a payment.
func (r *PaymentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Payment{}, id).Error
}

// List returns payments matching the filters with pagination.
func (r *PaymentRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Payment{})

	if userID, ok := filters["user_id"].(int64); ok && userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if bookingID, ok := filters["booking_id"].(int64); ok && bookingID > 0 {
		query = query.Where("booking_id = ?", bookingID)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if method, ok := filters["method"].(string); ok && method != "" {
		query = query.Where("method = ?", method)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// ListStalePending returns mobile-money payments stuck in pending
// past the cutoff, oldest first. The scheduler reconciles these
// against the gateway.
func (r *PaymentRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PaymentStatusPending).
		Where("method = ?", models.PaymentMethodMpesa).
		Where("checkout_request_id IS NOT NULL").
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// PaymentStatistics aggregates the ledger.
type PaymentStatistics struct {
	TotalRevenue   float64 `json:"total_revenue"`
	CompletedCount int64   `json:"completed_count"`
	PendingCount   int64   `json:"pending_count"`
	FailedCount    int64   `json:"failed_count"`
	RefundedCount  int64   `json:"refunded_count"`
	RefundedAmount float64 `json:"refunded_amount"`
}

// Statistics computes ledger totals, optionally bounded by paid_at.
func (r *PaymentRepository) Statistics(ctx context.Context, from, to *time.Time) (*PaymentStatistics, error) {
	stats := &PaymentStatistics{}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Payment{})
		if from != nil {
			q = q.Where("paid_at >= ?", *from)
		}
		if to != nil {
			q = q.Where("paid_at <= ?", *to)
		}
		return q
	}

	row := base().
		Where("status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS cnt").
		Row()
	if err := row.Scan(&stats.TotalRevenue, &stats.CompletedCount); err != nil {
		return nil, err
	}

	row = base().
		Where("status = ?", models.PaymentStatusRefunded).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS cnt").
		Row()
	if err := row.Scan(&stats.RefundedAmount, &stats.RefundedCount); err != nil {
		return nil, err
	}

	counts := r.db.WithContext(ctx).Model(&models.Payment{})
	if err := counts.Where("status = ?", models.PaymentStatusPending).Count(&stats.PendingCount).Error; err != nil {
		return nil, err
	}
	counts = r.db.WithContext(ctx).Model(&models.Payment{})
	if err := counts.Where("status = ?", models.PaymentStatusFailed).Count(&stats.FailedCount).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
