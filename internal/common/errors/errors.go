// Package errors defines business error codes and error handling.
package errors

import (
	"fmt"
)

// AppError is a coded application error. Data optionally carries
// structured detail for the client, such as conflicting date ranges.
type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an application error.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an underlying error with a code and message.
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage returns a copy with a different message.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Data:    e.Data,
		Err:     e.Err,
	}
}

// WithError returns a copy carrying the underlying error.
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Data:    e.Data,
		Err:     err,
	}
}

// WithData returns a copy carrying client-visible detail.
func (e *AppError) WithData(data interface{}) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Data:    data,
		Err:     e.Err,
	}
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code int) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}

// General error codes (1000-1999)
var (
	ErrUnknown         = New(1000, "unknown error")
	ErrInvalidParams   = New(1001, "invalid parameters")
	ErrNotFound        = New(1002, "resource not found")
	ErrAlreadyExists   = New(1003, "resource already exists")
	ErrDatabaseError   = New(1004, "database error")
	ErrCacheError      = New(1005, "cache error")
	ErrInternalError   = New(1006, "internal error")
	ErrExternalService = New(1007, "external service error")
	ErrRateLimitExceed = New(1008, "too many requests")
	ErrOperationFailed = New(1009, "operation failed")
)

// Auth error codes (2000-2999)
var (
	ErrUnauthorized     = New(2000, "not logged in")
	ErrTokenExpired     = New(2001, "login expired")
	ErrTokenInvalid     = New(2002, "invalid token")
	ErrTokenRefreshFail = New(2003, "failed to refresh token")
	ErrPermissionDenied = New(2004, "permission denied")
	ErrAccountDisabled  = New(2005, "account disabled")
	ErrPasswordError    = New(2006, "invalid email or password")
)

// User error codes (3000-3999)
var (
	ErrUserNotFound           = New(3000, "user not found")
	ErrUserExists             = New(3001, "user already exists")
	ErrEmailExists            = New(3002, "email already registered")
	ErrPhoneInvalid           = New(3003, "invalid phone number")
	ErrCustomerDetailMissing  = New(3004, "customer details required before booking")
	ErrCustomerDetailNotFound = New(3005, "customer details not found")
)

// Room error codes (4000-4999)
var (
	ErrRoomNotFound      = New(4000, "room not found")
	ErrRoomNumberExists  = New(4001, "room number already exists")
	ErrRoomStatusInvalid = New(4002, "invalid room status")
	ErrRoomPriceInvalid  = New(4003, "room price must be positive")
	ErrRoomInUse         = New(4004, "room has bookings and cannot be deleted")
)

// Booking error codes (5000-5999)
var (
	ErrBookingNotFound      = New(5000, "booking not found")
	ErrBookingStatusError   = New(5001, "invalid booking status")
	ErrBookingConflict      = New(5002, "room already booked for the selected dates")
	ErrBookingTerminal      = New(5003, "booking is already finalized")
	ErrBookingCannotCancel  = New(5004, "booking cannot be cancelled")
	ErrBookingDatesInvalid  = New(5005, "check-out date must be after check-in date")
	ErrBookingDatePast      = New(5006, "check-in date cannot be in the past")
	ErrBookingGuestsInvalid = New(5007, "guest counts are invalid")
	ErrBookingTransition    = New(5008, "booking status transition not allowed")
)

// Payment error codes (6000-6999)
var (
	ErrPaymentNotFound      = New(6000, "payment not found")
	ErrPaymentExists        = New(6001, "payment already exists for this booking")
	ErrPaymentAmountInvalid = New(6002, "payment amount must be positive")
	ErrPaymentMethodError   = New(6003, "invalid payment method")
	ErrPaymentStatusError   = New(6004, "invalid payment status")
	ErrPaymentImmutable     = New(6005, "completed or refunded payments cannot be modified")
	ErrPaymentDeleteDenied  = New(6006, "completed payments cannot be deleted, use refund instead")
	ErrPaymentFailed        = New(6007, "payment failed")
)

// Gateway error codes (7000-7999)
var (
	ErrGatewayAuth        = New(7000, "failed to authorize with payment gateway")
	ErrGatewayRequest     = New(7001, "payment gateway request failed")
	ErrGatewayRejected    = New(7002, "payment gateway rejected the request")
	ErrGatewayCallback    = New(7003, "invalid gateway callback payload")
	ErrGatewayPhoneFormat = New(7004, "phone number cannot be formatted for mobile money")
	ErrGatewayTimeout     = New(7005, "payment gateway request timed out")
)

// IsAppError reports whether err is an AppError.
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError converts err to an AppError, wrapping unknown errors.
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
