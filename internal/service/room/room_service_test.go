package room

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
		&models.ActivityLog{},
	))
	return db
}

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewService(
		db,
		repository.NewRoomRepository(db),
		repository.NewBookingRepository(db),
		activity.NewService(repository.NewActivityRepository(db)),
	)
	return svc, db
}

var staff = models.Actor{ID: 1, Role: models.RoleStaff}

func createRoom(t *testing.T, svc *Service, number string) *RoomInfo {
	t.Helper()
	info, err := svc.CreateRoom(context.Background(), staff, &CreateRoomRequest{
		RoomNumber:    number,
		RoomType:      models.RoomTypeDouble,
		PricePerNight: 5000,
	})
	require.NoError(t, err)
	return info
}

func TestCreateRoom(t *testing.T) {
	svc, _ := setupService(t)

	info := createRoom(t, svc, "101")
	assert.Equal(t, "101", info.RoomNumber)
	assert.Equal(t, models.RoomStatusAvailable, info.Status)

	_, err := svc.CreateRoom(context.Background(), staff, &CreateRoomRequest{
		RoomNumber: "101", RoomType: models.RoomTypeSingle, PricePerNight: 3000,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomNumberExists.Code))

	_, err = svc.CreateRoom(context.Background(), staff, &CreateRoomRequest{
		RoomNumber: "102", RoomType: models.RoomTypeSingle, PricePerNight: 0,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomPriceInvalid.Code))

	_, err = svc.CreateRoom(context.Background(), staff, &CreateRoomRequest{
		RoomNumber: "102", RoomType: "penthouse", PricePerNight: 3000,
	})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidParams.Code))
}

func TestListRooms_Filters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	createRoom(t, svc, "101")
	_, err := svc.CreateRoom(ctx, staff, &CreateRoomRequest{
		RoomNumber: "201", RoomType: models.RoomTypeSuite, PricePerNight: 12000,
	})
	require.NoError(t, err)

	suites, total, err := svc.ListRooms(ctx, &ListRoomsRequest{RoomType: models.RoomTypeSuite}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, suites, 1)
	assert.Equal(t, "201", suites[0].RoomNumber)

	cheap, total, err := svc.ListRooms(ctx, &ListRoomsRequest{MaxPrice: 6000}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, cheap, 1)
	assert.Equal(t, "101", cheap[0].RoomNumber)

	_, _, err = svc.ListRooms(ctx, &ListRoomsRequest{Status: "nonsense"}, 0, 10)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomStatusInvalid.Code))
}

func TestUpdateRoom(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	first := createRoom(t, svc, "101")
	createRoom(t, svc, "102")

	price := 6500.0
	updated, err := svc.UpdateRoom(ctx, staff, first.ID, &UpdateRoomRequest{PricePerNight: &price})
	require.NoError(t, err)
	assert.Equal(t, 6500.0, updated.PricePerNight)

	taken := "102"
	_, err = svc.UpdateRoom(ctx, staff, first.ID, &UpdateRoomRequest{RoomNumber: &taken})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomNumberExists.Code))

	_, err = svc.UpdateRoom(ctx, staff, 404, &UpdateRoomRequest{PricePerNight: &price})
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomNotFound.Code))
}

func TestSetStatus_Maintenance(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	info := createRoom(t, svc, "101")

	require.NoError(t, svc.SetStatus(ctx, staff, info.ID, models.RoomStatusMaintenance))
	got, err := svc.GetRoom(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusMaintenance, got.Status)

	err = svc.SetStatus(ctx, staff, info.ID, "nonsense")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomStatusInvalid.Code))

	err = svc.SetStatus(ctx, staff, 404, models.RoomStatusAvailable)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomNotFound.Code))
}

func TestDeleteRoom_BlockedByActiveBookings(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	info := createRoom(t, svc, "101")

	booking := &models.Booking{
		UserID:         1,
		RoomID:         info.ID,
		CheckIn:        time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:       time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Adults:         1,
		NumberOfGuests: 1,
		TotalPrice:     10000,
		Status:         models.BookingStatusConfirmed,
	}
	require.NoError(t, db.Create(booking).Error)

	err := svc.DeleteRoom(ctx, staff, info.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomInUse.Code))

	// Terminal bookings no longer hold the room.
	require.NoError(t, db.Model(booking).Update("status", models.BookingStatusCancelled).Error)
	require.NoError(t, svc.DeleteRoom(ctx, staff, info.ID))

	_, err = svc.GetRoom(ctx, info.ID)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrRoomNotFound.Code))
}

func TestCountOccupied(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	first := createRoom(t, svc, "101")
	createRoom(t, svc, "102")

	require.NoError(t, svc.SetStatus(ctx, staff, first.ID, models.RoomStatusOccupied))

	count, err := svc.CountOccupied(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
