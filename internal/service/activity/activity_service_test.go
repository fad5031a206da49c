package activity

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
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.ActivityLog{}))
	return NewService(repository.NewActivityRepository(db)), db
}

func record(svc *Service, userID int64, action, targetType string, targetID int64) {
	svc.Record(context.Background(), &Entry{
		UserID:      &userID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    &targetID,
		Description: action,
		Metadata:    map[string]interface{}{"source": "test"},
		IP:          "10.0.0.1",
		UserAgent:   "go-test",
	})
}

func TestRecordAndGet(t *testing.T) {
	svc, db := setupService(t)
	record(svc, 7, models.ActionBookingCreated, "booking", 42)

	var stored models.ActivityLog
	require.NoError(t, db.First(&stored).Error)

	info, err := svc.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActionBookingCreated, info.Action)
	require.NotNil(t, info.UserID)
	assert.Equal(t, int64(7), *info.UserID)
	require.NotNil(t, info.TargetID)
	assert.Equal(t, int64(42), *info.TargetID)
	assert.Equal(t, "test", info.Metadata["source"])
	require.NotNil(t, info.IP)
	assert.Equal(t, "10.0.0.1", *info.IP)

	_, err = svc.Get(context.Background(), 404)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestRecord_SwallowsPersistenceFailure(t *testing.T) {
	svc, db := setupService(t)
	require.NoError(t, db.Migrator().DropTable(&models.ActivityLog{}))

	// Must not panic or error; the log is best-effort.
	record(svc, 7, models.ActionUserLogin, "user", 7)
}

func TestList_Filters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	record(svc, 1, models.ActionBookingCreated, "booking", 10)
	record(svc, 1, models.ActionBookingCancelled, "booking", 10)
	record(svc, 2, models.ActionRoomCreated, "room", 3)

	byUser, total, err := svc.List(ctx, &ListRequest{UserID: 1}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byUser, 2)

	byAction, total, err := svc.List(ctx, &ListRequest{Action: models.ActionRoomCreated}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byAction, 1)
	require.NotNil(t, byAction[0].UserID)
	assert.Equal(t, int64(2), *byAction[0].UserID)

	byTarget, total, err := svc.List(ctx, &ListRequest{TargetType: "booking", TargetID: 10}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, byTarget, 2)
}

func TestList_NewestFirstWithPagination(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	record(svc, 1, "first", "booking", 1)
	record(svc, 1, "second", "booking", 2)
	record(svc, 1, "third", "booking", 3)

	page, total, err := svc.List(ctx, &ListRequest{}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "third", page[0].Action)
}

func TestPurge(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()
	record(svc, 1, "old", "booking", 1)
	record(svc, 1, "new", "booking", 2)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("action = ?", "old").
		UpdateColumn("created_at", old).Error)

	deleted, err := svc.Purge(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := svc.List(ctx, &ListRequest{}, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
