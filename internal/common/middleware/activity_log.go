// Package middleware provides middleware shared across route groups.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/models"
	"github.com/safarinest/hotel-booking-backend/internal/repository"
)

// ActivityLogger records write operations to the activity log.
type ActivityLogger struct {
	repo *repository.ActivityRepository
}

// NewActivityLogger creates the activity log middleware.
func NewActivityLogger(repo *repository.ActivityRepository) *ActivityLogger {
	return &ActivityLogger{repo: repo}
}

// ActivityConfig maps a route onto an activity entry.
type ActivityConfig struct {
	Action      string
	TargetType  string
	Description string
	GetTargetID func(*gin.Context) *int64
}

var routeActionMap = map[string]ActivityConfig{
	"POST /rooms": {
		Action:      models.ActionRoomCreated,
		TargetType:  "room",
		Description: "room created",
	},
	"PUT /rooms/:id": {
		Action:      models.ActionRoomUpdated,
		TargetType:  "room",
		Description: "room updated",
	},
	"DELETE /rooms/:id": {
		Action:      models.ActionRoomDeleted,
		TargetType:  "room",
		Description: "room deleted",
	},
	"POST /bookings": {
		Action:      models.ActionBookingCreated,
		TargetType:  "booking",
		Description: "booking created",
	},
	"PUT /bookings/:id": {
		Action:      models.ActionBookingUpdated,
		TargetType:  "booking",
		Description: "booking updated",
	},
	"PUT /bookings/:id/status": {
		Action:      models.ActionBookingUpdated,
		TargetType:  "booking",
		Description: "booking status changed",
	},
	"POST /bookings/:id/cancel": {
		Action:      models.ActionBookingCancelled,
		TargetType:  "booking",
		Description: "booking cancelled",
	},
	"DELETE /bookings/:id": {
		Action:      models.ActionBookingDeleted,
		TargetType:  "booking",
		Description: "booking deleted",
	},
	"POST /payments": {
		Action:      models.ActionPaymentCreated,
		TargetType:  "payment",
		Description: "payment created",
	},
	"PUT /payments/:id/status": {
		Action:      models.ActionPaymentUpdated,
		TargetType:  "payment",
		Description: "payment status changed",
	},
	"POST /auth/register": {
		Action:      models.ActionUserRegistered,
		Description: "user registered",
	},
	"POST /auth/login": {
		Action:      models.ActionUserLogin,
		Description: "user logged in",
	},
	"POST /payments/mpesa/initiate": {
		Action:      models.ActionMpesaInitiated,
		TargetType:  "payment",
		Description: "mobile money payment initiated",
	},
}

// Log records write requests after the handler runs. Persisting is
// asynchronous and never affects the response.
func (l *ActivityLogger) Log() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWrite(c.Request.Method) {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		go l.record(c.Copy(), requestBody)
	}
}

func isWrite(method string) bool {
	return method == "POST" || method == "PUT" || method == "DELETE" || method == "PATCH"
}

func (l *ActivityLogger) record(c *gin.Context, requestBody []byte) {
	if l.repo == nil {
		return
	}

	path := c.FullPath()
	routeKey := c.Request.Method + " " + path
	config, ok := routeActionMap[routeKey]
	if !ok && strings.HasPrefix(path, "/api/v1") {
		// Gin full paths carry the route group prefix.
		altKey := c.Request.Method + " " + strings.TrimPrefix(path, "/api/v1")
		config, ok = routeActionMap[altKey]
	}
	if !ok {
		return
	}

	entry := &models.ActivityLog{
		Action:      config.Action,
		Description: config.Description,
	}

	if userID := getContextUserID(c); userID > 0 {
		entry.UserID = &userID
	}

	ip := c.ClientIP()
	if ip != "" {
		entry.IP = &ip
	}
	userAgent := c.Request.UserAgent()
	if userAgent != "" {
		entry.UserAgent = &userAgent
	}

	if config.TargetType != "" {
		targetType := config.TargetType
		entry.TargetType = &targetType
		if config.GetTargetID != nil {
			entry.TargetID = config.GetTargetID(c)
		} else {
			entry.TargetID = paramID(c)
		}
	}

	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			if mapData, ok := filterSensitive(data).(map[string]interface{}); ok {
				entry.Metadata = mapData
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.repo.Create(ctx, entry)
}

func getContextUserID(c *gin.Context) int64 {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

func paramID(c *gin.Context) *int64 {
	idStr := c.Param("id")
	if idStr == "" {
		return nil
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

var sensitiveFields = []string{
	"password", "old_password", "new_password", "confirm_password",
	"token", "access_token", "refresh_token",
	"secret", "consumer_key", "consumer_secret", "passkey",
	"national_id",
}

func filterSensitive(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, value := range v {
			lowerKey := strings.ToLower(key)
			masked := false
			for _, sf := range sensitiveFields {
				if strings.Contains(lowerKey, sf) {
					masked = true
					break
				}
			}
			if masked {
				result[key] = "***"
			} else {
				result[key] = filterSensitive(value)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = filterSensitive(item)
		}
		return result
	default:
		return data
	}
}

// LogWithConfig records requests on a route with an explicit mapping.
func (l *ActivityLogger) LogWithConfig(config ActivityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		go l.recordWithConfig(c.Copy(), requestBody, config)
	}
}

func (l *ActivityLogger) recordWithConfig(c *gin.Context, requestBody []byte, config ActivityConfig) {
	if l.repo == nil {
		return
	}

	entry := &models.ActivityLog{
		Action:      config.Action,
		Description: config.Description,
	}

	if userID := getContextUserID(c); userID > 0 {
		entry.UserID = &userID
	}

	ip := c.ClientIP()
	if ip != "" {
		entry.IP = &ip
	}
	userAgent := c.Request.UserAgent()
	if userAgent != "" {
		entry.UserAgent = &userAgent
	}

	if config.TargetType != "" {
		targetType := config.TargetType
		entry.TargetType = &targetType
	}
	if config.GetTargetID != nil {
		entry.TargetID = config.GetTargetID(c)
	} else {
		entry.TargetID = paramID(c)
	}

	if len(requestBody) > 0 {
		var data interface{}
		if err := json.Unmarshal(requestBody, &data); err == nil {
			if mapData, ok := filterSensitive(data).(map[string]interface{}); ok {
				entry.Metadata = mapData
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.repo.Create(ctx, entry)
}
