// Package handler provides shared helpers for API handlers:
// unified error responses, auth checks, parameter parsing, pagination.
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/safarinest/hotel-booking-backend/internal/common/errors"
	"github.com/safarinest/hotel-booking-backend/internal/common/response"
	"github.com/safarinest/hotel-booking-backend/internal/common/utils"
	"github.com/safarinest/hotel-booking-backend/internal/middleware"
	"github.com/safarinest/hotel-booking-backend/internal/models"
)

// HandleError writes an error response when err is non-nil.
// Returns true when a response was written and the caller should return.
//
// Usage:
//
//	result, err := service.DoSomething()
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		if appErr.Data != nil {
			response.ErrorWithData(c, appErr.Code, appErr.Message, appErr.Data)
		} else {
			response.Error(c, appErr.Code, appErr.Message)
		}
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// HandleErrorWithMessage is HandleError with a custom message for
// non-AppError errors, hiding internal details from the client.
func HandleErrorWithMessage(c *gin.Context, err error, message string) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(c, appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, message)
	return true
}

// MustSucceed writes an error response on err, a success response otherwise.
// The caller must return after calling it.
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedWithMessage is MustSucceed with a custom success message.
func MustSucceedWithMessage(c *gin.Context, err error, message string, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.SuccessWithMessage(c, message, data)
}

// MustSucceedPage is the paginated variant of MustSucceed.
//
// Usage:
//
//	list, total, err := service.GetList(offset, limit)
//	MustSucceedPage(c, err, list, total, page, pageSize)
//	return
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// RequireUserID returns the authenticated user id, or writes a 401
// response and returns false.
//
// Usage:
//
//	userID, ok := handler.RequireUserID(c)
//	if !ok {
//	    return
//	}
func RequireUserID(c *gin.Context) (int64, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "please log in first")
		return 0, false
	}
	return userID, true
}

// RequireActor returns the authenticated actor (id + role), or writes
// a 401 response and returns false.
func RequireActor(c *gin.Context) (models.Actor, bool) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		response.Unauthorized(c, "please log in first")
		return models.Actor{}, false
	}
	return models.Actor{ID: userID, Role: middleware.GetUserRole(c)}, true
}

// GetOptionalUserID returns the user id or 0 when unauthenticated,
// without writing a response. For endpoints where auth is optional.
func GetOptionalUserID(c *gin.Context) int64 {
	return middleware.GetUserID(c)
}

// ParseID parses the "id" path parameter as int64.
// Returns false after writing a 400 response on failure.
//
// Usage:
//
//	id, ok := handler.ParseID(c, "booking")
//	if !ok {
//	    return
//	}
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID parses the named path parameter as int64.
// resourceName is used in the error message.
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid "+resourceName+" id")
		return 0, false
	}
	return id, true
}

// ParseQueryID parses an optional ID query parameter.
// Returns (nil, true) when absent, (nil, false) after a 400 response
// on parse failure, (*id, true) on success.
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid "+resourceName+" id")
		return nil, false
	}
	return &id, true
}

// ParseRequiredQueryID parses a required ID query parameter.
// Returns (0, false) after a 400 response when absent or malformed.
func ParseRequiredQueryID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		response.BadRequest(c, resourceName+" id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid "+resourceName+" id")
		return 0, false
	}
	return id, true
}

// Time format constants.
const (
	DateFormat         = "2006-01-02"
	DateTimeFormat     = "2006-01-02 15:04:05"
	DateTimeFormatISO  = "2006-01-02T15:04:05Z07:00"
	DateTimeFormatISO2 = "2006-01-02T15:04:05"
	DateTimeFormatMin  = "2006-01-02 15:04"
)

var dateTimeFormats = []string{
	DateTimeFormatISO,
	DateTimeFormat,
	DateTimeFormatISO2,
	DateTimeFormatMin,
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}

// ParseDateTime parses a datetime string, trying several formats.
func ParseDateTime(s string) (time.Time, error) {
	for _, format := range dateTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.ErrInvalidParams.WithMessage("invalid datetime format")
}

// ParseQueryDate parses an optional date query parameter.
// Returns (nil, true) when absent, (nil, false) after a 400 response
// on parse failure.
func ParseQueryDate(c *gin.Context, paramName, errorMsg string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, err := ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, errorMsg)
		return nil, false
	}
	return &t, true
}

// ParseQueryDateRange parses optional start_date and end_date query
// parameters. The end date is pushed to the last second of the day.
func ParseQueryDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	startStr := c.Query("start_date")
	if startStr != "" {
		t, err := ParseDate(startStr)
		if err != nil {
			response.BadRequest(c, "invalid start date format")
			return nil, nil, false
		}
		start = &t
	}

	endStr := c.Query("end_date")
	if endStr != "" {
		t, err := ParseDate(endStr)
		if err != nil {
			response.BadRequest(c, "invalid end date format")
			return nil, nil, false
		}
		endOfDay := t.Add(24*time.Hour - time.Second)
		end = &endOfDay
	}

	return start, end, true
}

// ParseRequiredQueryDateRange parses required start_date and end_date
// query parameters. Returns false after a 400 response when either is
// absent or malformed.
func ParseRequiredQueryDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr == "" || endStr == "" {
		response.BadRequest(c, "start and end dates are required")
		return time.Time{}, time.Time{}, false
	}

	startDate, err := ParseDate(startStr)
	if err != nil {
		response.BadRequest(c, "invalid start date format")
		return time.Time{}, time.Time{}, false
	}

	endDate, err := ParseDate(endStr)
	if err != nil {
		response.BadRequest(c, "invalid end date format")
		return time.Time{}, time.Time{}, false
	}

	endDate = endDate.Add(24*time.Hour - time.Second)

	return startDate, endDate, true
}

// BindPagination binds and normalizes pagination query parameters.
// Defaults: page=1, page_size=10, capped at 100.
//
// Usage:
//
//	p := handler.BindPagination(c)
//	list, total, err := service.GetList(p.GetOffset(), p.GetLimit())
//	MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}

// BindPaginationWithDefaults binds pagination with custom defaults.
func BindPaginationWithDefaults(c *gin.Context, defaultPage, defaultPageSize int) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	p.Normalize()
	return p
}

// RequireUserAndParseID combines the login check and ID parsing.
//
// Usage:
//
//	userID, bookingID, ok := handler.RequireUserAndParseID(c, "booking")
//	if !ok {
//	    return
//	}
func RequireUserAndParseID(c *gin.Context, resourceName string) (userID, resourceID int64, ok bool) {
	userID, ok = RequireUserID(c)
	if !ok {
		return 0, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return 0, 0, false
	}
	return userID, resourceID, true
}

// RequireActorAndParseID combines the actor check and ID parsing.
func RequireActorAndParseID(c *gin.Context, resourceName string) (actor models.Actor, resourceID int64, ok bool) {
	actor, ok = RequireActor(c)
	if !ok {
		return models.Actor{}, 0, false
	}
	resourceID, ok = ParseID(c, resourceName)
	if !ok {
		return models.Actor{}, 0, false
	}
	return actor, resourceID, true
}
