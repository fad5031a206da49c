package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appErrors "github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
	"github.com/safarinest/hotel-booking-backend/internal/service/activity"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Booking{},
		&models.Payment{},
		&models.ActivityLog{},
	))
	return db
}

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	booking  *models.Booking
	customer models.Actor
	staff    models.Actor
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	svc := NewService(
		db,
		repository.NewPaymentRepository(db),
		repository.NewBookingRepository(db),
		activity.NewService(repository.NewActivityRepository(db)),
	)

	user := &models.User{Name: "Guest", Email: "guest@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(user).Error)
	room := &models.Room{RoomNumber: "101", RoomType: models.RoomTypeDouble, PricePerNight: 5000, Status: models.RoomStatusAvailable}
	require.NoError(t, db.Create(room).Error)
	booking := &models.Booking{
		UserID:         user.ID,
		RoomID:         room.ID,
		CheckIn:        time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Adults:         2,
		NumberOfGuests: 2,
		TotalPrice:     10000,
		Status:         models.BookingStatusPending,
	}
	require.NoError(t, db.Create(booking).Error)

	return &testEnv{
		db:       db,
		svc:      svc,
		booking:  booking,
		customer: models.Actor{ID: user.ID, Role: models.RoleCustomer},
		staff:    models.Actor{ID: 99, Role: models.RoleStaff},
	}
}

func (env *testEnv) createPayment(t *testing.T) *PaymentInfo {
	t.Helper()
	info, err := env.svc.CreatePayment(context.Background(), env.customer, &CreatePaymentRequest{
		BookingID: env.booking.ID,
		Amount:    10000,
		Method:    models.PaymentMethodCash,
	})
	require.NoError(t, err)
	return info
}

func (env *testEnv) bookingStatus(t *testing.T) string {
	t.Helper()
	var booking models.Booking
	require.NoError(t, env.db.First(&booking, env.booking.ID).Error)
	return booking.Status
}

func TestCreatePayment_Success(t *testing.T) {
	env := setupTestEnv(t)

	info := env.createPayment(t)
	assert.Equal(t, models.PaymentStatusPending, info.Status)
	assert.Equal(t, env.booking.ID, info.BookingID)
	assert.Equal(t, env.customer.ID, info.UserID)
	assert.Nil(t, info.PaidAt)
}

func TestCreatePayment_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.CreatePayment(ctx, env.customer, &CreatePaymentRequest{
		BookingID: env.booking.ID, Amount: 0, Method: models.PaymentMethodCash,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentAmountInvalid.Code))

	_, err = env.svc.CreatePayment(ctx, env.customer, &CreatePaymentRequest{
		BookingID: env.booking.ID, Amount: 100, Method: "barter",
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentMethodError.Code))

	_, err = env.svc.CreatePayment(ctx, env.customer, &CreatePaymentRequest{
		BookingID: 404, Amount: 100, Method: models.PaymentMethodCash,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrBookingNotFound.Code))
}

func TestCreatePayment_OnePerBooking(t *testing.T) {
	env := setupTestEnv(t)
	env.createPayment(t)

	_, err := env.svc.CreatePayment(context.Background(), env.customer, &CreatePaymentRequest{
		BookingID: env.booking.ID, Amount: 10000, Method: models.PaymentMethodMpesa,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentExists.Code))
}

func TestCreatePayment_CancelledBookingRejected(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.db.Model(env.booking).Update("status", models.BookingStatusCancelled).Error)

	_, err := env.svc.CreatePayment(context.Background(), env.customer, &CreatePaymentRequest{
		BookingID: env.booking.ID, Amount: 10000, Method: models.PaymentMethodCash,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrBookingStatusError.Code))
}

func TestCreatePayment_OtherCustomerDenied(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.CreatePayment(context.Background(), models.Actor{ID: 999, Role: models.RoleCustomer}, &CreatePaymentRequest{
		BookingID: env.booking.ID, Amount: 10000, Method: models.PaymentMethodCash,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPermissionDenied.Code))
}

func TestUpdateStatus_CompleteConfirmsBooking(t *testing.T) {
	env := setupTestEnv(t)
	info := env.createPayment(t)

	completed, err := env.svc.UpdateStatus(context.Background(), env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, completed.Status)
	assert.NotNil(t, completed.PaidAt)
	assert.Equal(t, models.BookingStatusConfirmed, env.bookingStatus(t))
}

func TestUpdateStatus_CompleteLeavesConfirmedBookingAlone(t *testing.T) {
	env := setupTestEnv(t)
	info := env.createPayment(t)
	require.NoError(t, env.db.Model(env.booking).Update("status", models.BookingStatusCheckedIn).Error)

	_, err := env.svc.UpdateStatus(context.Background(), env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCheckedIn, env.bookingStatus(t))
}

func TestUpdateStatus_FailThenRetryThroughPendingOnly(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	failed, err := env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, failed.Status)
	assert.Equal(t, models.BookingStatusPending, env.bookingStatus(t))

	// Failed is terminal for the status path.
	_, err = env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentStatusError.Code))
}

func TestUpdateStatus_RefundOnlyFromCompleted(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	_, err := env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusRefunded)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentStatusError.Code))

	_, err = env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)

	refunded, err := env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)

	// Refunded accepts nothing further.
	_, err = env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentImmutable.Code))
}

func TestUpdateStatus_SameStateIsNoOp(t *testing.T) {
	env := setupTestEnv(t)
	info := env.createPayment(t)

	again, err := env.svc.UpdateStatus(context.Background(), env.staff, info.ID, models.PaymentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, again.Status)
}

func TestComplete_IdempotentUnderRacingCallers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	require.NoError(t, env.svc.Complete(ctx, info.ID, info.BookingID, nil))

	err := env.svc.Complete(ctx, info.ID, info.BookingID, nil)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentImmutable.Code))
}

func TestComplete_AttachesExtraFields(t *testing.T) {
	env := setupTestEnv(t)
	info := env.createPayment(t)

	require.NoError(t, env.svc.Complete(context.Background(), info.ID, info.BookingID, map[string]interface{}{
		"receipt_number": "QK12XYZ",
	}))

	var pay models.Payment
	require.NoError(t, env.db.First(&pay, info.ID).Error)
	require.NotNil(t, pay.ReceiptNumber)
	assert.Equal(t, "QK12XYZ", *pay.ReceiptNumber)
	assert.NotNil(t, pay.PaidAt)
}

func TestUpdateAmount(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	updated, err := env.svc.UpdateAmount(ctx, env.staff, info.ID, 12000)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, updated.Amount)

	_, err = env.svc.UpdateAmount(ctx, env.staff, info.ID, -5)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentAmountInvalid.Code))

	_, err = env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)
	_, err = env.svc.UpdateAmount(ctx, env.staff, info.ID, 9000)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentImmutable.Code))
}

func TestDeletePayment_CompletedDenied(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)
	_, err := env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)

	err = env.svc.DeletePayment(ctx, env.staff, info.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentDeleteDenied.Code))
}

func TestDeletePayment_PendingAllowed(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	require.NoError(t, env.svc.DeletePayment(ctx, env.staff, info.ID))
	_, err := env.svc.GetPayment(ctx, env.staff, info.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPaymentNotFound.Code))
}

func TestGetPayment_Ownership(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)

	_, err := env.svc.GetPayment(ctx, models.Actor{ID: 999, Role: models.RoleCustomer}, info.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPermissionDenied.Code))

	got, err := env.svc.GetPaymentByBooking(ctx, env.customer, env.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
}

func TestStatistics(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	info := env.createPayment(t)
	_, err := env.svc.UpdateStatus(ctx, env.staff, info.ID, models.PaymentStatusCompleted)
	require.NoError(t, err)

	stats, err := env.svc.Statistics(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.CompletedCount)
	assert.Equal(t, 10000.0, stats.TotalRevenue)
	assert.Zero(t, stats.PendingCount)
}
