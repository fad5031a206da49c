package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
)

func setupActivityLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ActivityLog{},
	))
	return db
}

func waitForActivityLog(t *testing.T, db *gorm.DB, where string, args ...interface{}) *models.ActivityLog {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var entry models.ActivityLog
		err := db.Where(where, args...).Order("id DESC").First(&entry).Error
		if err == nil {
			return &entry
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("activity log not created: %s", where)
	return nil
}

func TestActivityLogger_RecordsWriteOperations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupActivityLogTestDB(t)

	repo := repository.NewActivityRepository(db)
	al := NewActivityLogger(repo)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Set("user_id", int64(1))
		c.Next()
	})
	api.Use(al.Log())

	api.POST("/bookings", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })
	api.POST("/bookings/:id/cancel", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })

	body, _ := json.Marshal(map[string]interface{}{"room_id": 3, "check_in": "2026-09-01"})
	req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	entry := waitForActivityLog(t, db, "action = ?", models.ActionBookingCreated)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(1), *entry.UserID)
	require.NotNil(t, entry.TargetType)
	assert.Equal(t, "booking", *entry.TargetType)
	assert.Nil(t, entry.TargetID)
	assert.Equal(t, float64(3), entry.Metadata["room_id"])

	req2, _ := http.NewRequest("POST", "/api/v1/bookings/42/cancel", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)
	require.Equal(t, http.StatusOK, w2.Code)

	entry2 := waitForActivityLog(t, db, "action = ? AND target_id = ?", models.ActionBookingCancelled, 42)
	require.NotNil(t, entry2.UserID)
	assert.Equal(t, int64(1), *entry2.UserID)
}

func TestActivityLogger_SkipsReads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupActivityLogTestDB(t)

	repo := repository.NewActivityRepository(db)
	al := NewActivityLogger(repo)

	r := gin.New()
	r.Use(al.Log())
	r.GET("/rooms", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })

	req, _ := http.NewRequest("GET", "/rooms", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestActivityLogger_MasksSensitiveFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupActivityLogTestDB(t)

	repo := repository.NewActivityRepository(db)
	al := NewActivityLogger(repo)

	r := gin.New()
	r.Use(al.Log())
	r.POST("/auth/register", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })

	body, _ := json.Marshal(map[string]interface{}{
		"email":    "jane@example.com",
		"password": "s3cret",
	})
	req, _ := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	entry := waitForActivityLog(t, db, "action = ?", models.ActionUserRegistered)
	assert.Equal(t, "jane@example.com", entry.Metadata["email"])
	assert.Equal(t, "***", entry.Metadata["password"])
}

func TestActivityLogger_IgnoresUnmappedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupActivityLogTestDB(t)

	repo := repository.NewActivityRepository(db)
	al := NewActivityLogger(repo)

	r := gin.New()
	r.Use(al.Log())
	r.POST("/internal/reindex", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0}) })

	req, _ := http.NewRequest("POST", "/internal/reindex", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Count(&count).Error)
	assert.Zero(t, count)
}
