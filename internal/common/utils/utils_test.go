package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferenceNo(t *testing.T) {
	ref := GenerateReferenceNo("PAY")

	assert.True(t, strings.HasPrefix(ref, "PAY"))
	// prefix + 14-digit timestamp + 6 random digits
	assert.Len(t, ref, 3+14+6)

	other := GenerateReferenceNo("PAY")
	assert.NotEqual(t, ref, other)
}

func TestGenerateRandomNumber(t *testing.T) {
	for _, length := range []int{4, 6, 10} {
		s := GenerateRandomNumber(length)
		require.Len(t, s, length)
		for _, c := range s {
			assert.True(t, c >= '0' && c <= '9')
		}
	}
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"0712345678", "0110123456", "254712345678", "+254712345678"}
	for _, phone := range valid {
		assert.True(t, ValidatePhone(phone), phone)
	}

	invalid := []string{"", "12345", "0812345678", "25571234567", "071234567", "07123456789"}
	for _, phone := range invalid {
		assert.False(t, ValidatePhone(phone), phone)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b+c@sub.domain.co.ke"}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{"", "plain", "user@", "@example.com", "user@host"}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestDateOnly(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	in := time.Date(2026, 8, 28, 15, 45, 30, 123, loc)
	got := DateOnly(in)
	assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, loc), got)
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{
			"three nights",
			time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC),
			3,
		},
		{
			"one night",
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC),
			1,
		},
		{
			"time of day ignored",
			time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 2, 1, 0, 0, 0, time.UTC),
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NightsBetween(tt.checkIn, tt.checkOut))
		})
	}
}

func TestPointerHelpers(t *testing.T) {
	s := StringPtr("x")
	require.NotNil(t, s)
	assert.Equal(t, "x", *s)

	i := IntPtr(5)
	assert.Equal(t, 5, *i)

	i64 := Int64Ptr(10)
	assert.Equal(t, int64(10), *i64)

	f := Float64Ptr(1.5)
	assert.Equal(t, 1.5, *f)

	now := time.Now()
	assert.Equal(t, now, *TimePtr(now))
}

func TestSafeHelpers(t *testing.T) {
	assert.Equal(t, "", SafeString(nil))
	assert.Equal(t, "v", SafeString(StringPtr("v")))
	assert.Equal(t, 0, SafeInt(nil))
	assert.Equal(t, 3, SafeInt(IntPtr(3)))
	assert.Equal(t, int64(0), SafeInt64(nil))
	assert.Equal(t, int64(7), SafeInt64(Int64Ptr(7)))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"a", "b"}, "b"))
	assert.False(t, Contains([]string{"a", "b"}, "c"))
	assert.True(t, Contains([]int64{1, 2, 3}, 2))
	assert.False(t, Contains([]int{}, 1))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, Unique([]int{1, 2, 2, 3, 1}))
	assert.Equal(t, []string{"x"}, Unique([]string{"x", "x"}))
	assert.Empty(t, Unique([]int{}))
}

func TestMaxMin(t *testing.T) {
	assert.Equal(t, 5, Max(3, 5))
	assert.Equal(t, int64(10), Max(int64(10), int64(2)))
	assert.Equal(t, 1.5, Min(1.5, 2.5))
	assert.Equal(t, 3, Min(3, 3))
}

func TestPagination(t *testing.T) {
	p := &Pagination{Page: 3, PageSize: 10}
	assert.Equal(t, 20, p.GetOffset())
	assert.Equal(t, 10, p.GetLimit())

	p = &Pagination{Page: 0, PageSize: 0}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	p = &Pagination{Page: 1, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 100, p.PageSize)

	p = &Pagination{Page: 1, PageSize: 10, Total: 25}
	assert.Equal(t, 3, p.GetTotalPages())

	p.Total = 30
	assert.Equal(t, 3, p.GetTotalPages())

	p.Total = 0
	assert.Equal(t, 0, p.GetTotalPages())
}
