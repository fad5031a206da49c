package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safarinest/hotel-booking-backend/internal/models"
)

func setupActivityTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.ActivityLog{})
	require.NoError(t, err)

	return db
}

func TestActivityRepository_CreateAndList(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	user := &models.User{Name: "Staff", Email: "staff@example.com", PasswordHash: "h", Role: models.RoleStaff, Status: 1}
	require.NoError(t, db.Create(user).Error)

	targetType := "booking"
	targetID := int64(42)
	log := &models.ActivityLog{
		UserID:      &user.ID,
		Action:      models.ActionBookingCreated,
		TargetType:  &targetType,
		TargetID:    &targetID,
		Description: "booking 42 created for room 101",
		Metadata:    models.JSON{"room_id": 101},
	}
	require.NoError(t, repo.Create(ctx, log))
	assert.NotZero(t, log.ID)

	other := &models.ActivityLog{
		Action:      models.ActionUserLogin,
		Description: "user logged in",
	}
	require.NoError(t, repo.Create(ctx, other))

	logs, total, err := repo.List(ctx, 0, 10, map[string]interface{}{"action": models.ActionBookingCreated})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].User)
	assert.Equal(t, "staff@example.com", logs[0].User.Email)

	logs, total, err = repo.List(ctx, 0, 10, map[string]interface{}{"target_type": "booking", "target_id": int64(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, logs, 1)

	_, total, err = repo.List(ctx, 0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestActivityRepository_DeleteBefore(t *testing.T) {
	db := setupActivityTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ActivityLog{
		Action: models.ActionUserLogin, Description: "old entry",
	}))

	removed, err := repo.DeleteBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = repo.DeleteBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, total, err := repo.List(ctx, 0, 10, nil)
	require.NoError(t, err)
	assert.Zero(t, total)
}
