package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(1001, "invalid parameters")
	require.NotNil(t, err)
	assert.Equal(t, 1001, err.Code)
	assert.Equal(t, "invalid parameters", err.Message)
	assert.Nil(t, err.Err)
}

func TestWrap(t *testing.T) {
	originalErr := stderrors.New("database connection failed")
	err := Wrap(1004, "database error", originalErr)

	require.NotNil(t, err)
	assert.Equal(t, 1004, err.Code)
	assert.Equal(t, "database error", err.Message)
	assert.Equal(t, originalErr, err.Err)
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "Error without underlying error",
			appError: New(1001, "invalid parameters"),
			want:     "[1001] invalid parameters",
		},
		{
			name:     "Error with underlying error",
			appError: Wrap(1004, "database error", stderrors.New("connection timeout")),
			want:     "[1004] database error: connection timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appError.Error()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := stderrors.New("original error")
	err := Wrap(1000, "wrapped error", originalErr)

	unwrapped := err.Unwrap()
	assert.Equal(t, originalErr, unwrapped)
}

func TestAppError_WithMessage(t *testing.T) {
	original := New(1001, "original message")
	modified := original.WithMessage("modified message")

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "modified message", modified.Message)
	assert.Nil(t, modified.Err)

	// Original must stay untouched.
	assert.Equal(t, "original message", original.Message)
}

func TestAppError_WithError(t *testing.T) {
	original := New(1001, "invalid parameters")
	underlyingErr := stderrors.New("validation failed")
	modified := original.WithError(underlyingErr)

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "invalid parameters", modified.Message)
	assert.Equal(t, underlyingErr, modified.Err)

	assert.Nil(t, original.Err)
}

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUnknown", ErrUnknown, 1000},
		{"ErrInvalidParams", ErrInvalidParams, 1001},
		{"ErrNotFound", ErrNotFound, 1002},
		{"ErrAlreadyExists", ErrAlreadyExists, 1003},
		{"ErrDatabaseError", ErrDatabaseError, 1004},
		{"ErrCacheError", ErrCacheError, 1005},
		{"ErrInternalError", ErrInternalError, 1006},
		{"ErrExternalService", ErrExternalService, 1007},
		{"ErrRateLimitExceed", ErrRateLimitExceed, 1008},
		{"ErrOperationFailed", ErrOperationFailed, 1009},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUnauthorized", ErrUnauthorized, 2000},
		{"ErrTokenExpired", ErrTokenExpired, 2001},
		{"ErrTokenInvalid", ErrTokenInvalid, 2002},
		{"ErrTokenRefreshFail", ErrTokenRefreshFail, 2003},
		{"ErrPermissionDenied", ErrPermissionDenied, 2004},
		{"ErrAccountDisabled", ErrAccountDisabled, 2005},
		{"ErrPasswordError", ErrPasswordError, 2006},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestUserErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrUserNotFound", ErrUserNotFound, 3000},
		{"ErrUserExists", ErrUserExists, 3001},
		{"ErrEmailExists", ErrEmailExists, 3002},
		{"ErrPhoneInvalid", ErrPhoneInvalid, 3003},
		{"ErrCustomerDetailMissing", ErrCustomerDetailMissing, 3004},
		{"ErrCustomerDetailNotFound", ErrCustomerDetailNotFound, 3005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestRoomErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrRoomNotFound", ErrRoomNotFound, 4000},
		{"ErrRoomNumberExists", ErrRoomNumberExists, 4001},
		{"ErrRoomStatusInvalid", ErrRoomStatusInvalid, 4002},
		{"ErrRoomPriceInvalid", ErrRoomPriceInvalid, 4003},
		{"ErrRoomInUse", ErrRoomInUse, 4004},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestBookingErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrBookingNotFound", ErrBookingNotFound, 5000},
		{"ErrBookingStatusError", ErrBookingStatusError, 5001},
		{"ErrBookingConflict", ErrBookingConflict, 5002},
		{"ErrBookingTerminal", ErrBookingTerminal, 5003},
		{"ErrBookingCannotCancel", ErrBookingCannotCancel, 5004},
		{"ErrBookingDatesInvalid", ErrBookingDatesInvalid, 5005},
		{"ErrBookingDatePast", ErrBookingDatePast, 5006},
		{"ErrBookingGuestsInvalid", ErrBookingGuestsInvalid, 5007},
		{"ErrBookingTransition", ErrBookingTransition, 5008},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestPaymentErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrPaymentNotFound", ErrPaymentNotFound, 6000},
		{"ErrPaymentExists", ErrPaymentExists, 6001},
		{"ErrPaymentAmountInvalid", ErrPaymentAmountInvalid, 6002},
		{"ErrPaymentMethodError", ErrPaymentMethodError, 6003},
		{"ErrPaymentStatusError", ErrPaymentStatusError, 6004},
		{"ErrPaymentImmutable", ErrPaymentImmutable, 6005},
		{"ErrPaymentDeleteDenied", ErrPaymentDeleteDenied, 6006},
		{"ErrPaymentFailed", ErrPaymentFailed, 6007},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestGatewayErrors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code int
	}{
		{"ErrGatewayAuth", ErrGatewayAuth, 7000},
		{"ErrGatewayRequest", ErrGatewayRequest, 7001},
		{"ErrGatewayRejected", ErrGatewayRejected, 7002},
		{"ErrGatewayCallback", ErrGatewayCallback, 7003},
		{"ErrGatewayPhoneFormat", ErrGatewayPhoneFormat, 7004},
		{"ErrGatewayTimeout", ErrGatewayTimeout, 7005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestIsAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"AppError", ErrUnknown, true},
		{"AppError created by New", New(1001, "test"), true},
		{"Standard error", stderrors.New("standard error"), false},
		{"Nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAppError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetAppError(t *testing.T) {
	t.Run("From AppError", func(t *testing.T) {
		original := ErrInvalidParams
		got := GetAppError(original)
		assert.Equal(t, original, got)
	})

	t.Run("From standard error", func(t *testing.T) {
		standardErr := stderrors.New("standard error")
		got := GetAppError(standardErr)

		assert.Equal(t, ErrUnknown.Code, got.Code)
		assert.Equal(t, standardErr, got.Err)
	})

	t.Run("Preserves underlying error", func(t *testing.T) {
		underlyingErr := stderrors.New("database failed")
		appErr := Wrap(1004, "database error", underlyingErr)

		got := GetAppError(appErr)
		assert.Equal(t, appErr, got)
	})
}

func TestErrorChaining(t *testing.T) {
	originalErr := stderrors.New("connection timeout")
	wrappedErr := Wrap(1004, "database error", originalErr)

	unwrapped := wrappedErr.Unwrap()
	assert.Equal(t, originalErr, unwrapped)

	assert.Contains(t, wrappedErr.Error(), "connection timeout")
	assert.Contains(t, wrappedErr.Error(), "database error")
	assert.Contains(t, wrappedErr.Error(), "1004")
}

func TestAppError_EmptyMessage(t *testing.T) {
	err := New(9999, "")
	assert.Equal(t, 9999, err.Code)
	assert.Equal(t, "", err.Message)
	assert.Equal(t, "[9999] ", err.Error())
}

func TestAppError_ZeroCode(t *testing.T) {
	err := New(0, "zero code error")
	assert.Equal(t, 0, err.Code)
	assert.Equal(t, "zero code error", err.Message)
}

func TestAppError_ChainedModifications(t *testing.T) {
	original := New(1001, "original error")

	modified := original.
		WithMessage("modified message").
		WithError(stderrors.New("underlying error"))

	assert.Equal(t, 1001, modified.Code)
	assert.Equal(t, "modified message", modified.Message)
	assert.NotNil(t, modified.Err)

	assert.Equal(t, "original error", original.Message)
	assert.Nil(t, original.Err)
}
