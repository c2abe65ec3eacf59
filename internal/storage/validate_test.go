package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05", "2024-03-05"},
		{" 2024-3-5 ", "2024-03-05"},
		{"03/05/24", "2024-03-05"},
		{"3/5/24", "2024-03-05"},
		{"12/31/99", "1999-12-31"},
		{"05-03-2024", "2024-03-05"},
		{"5-3-2024", "2024-03-05"},
		{"2024-03-05T18:30", "2024-03-05"},
		{"2024-03-05 18:30:00", "2024-03-05"},
		{"2024-02-29", "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDateInvalid(t *testing.T) {
	for _, in := range []string{"2023-02-29", "2024-13-01", "3/5/2024", "March 5", "0013-03-05", "2101-01-01", "20240305"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeDate(in)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError for %q", in)
			assert.Equal(t, "date", verr.Field)
			assert.Equal(t, in, verr.Value)
			assert.ErrorIs(t, err, ErrInvalidDate)
		})
	}

	_, err := NormalizeDate("   ")
	assert.ErrorIs(t, err, ErrRequired)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"250", "250"},
		{" 12.50 ", "12.5"},
		{"₹99", "99"},
		{"₹ 1,50,000", "150000"},
		{"0", "0"},
		{"10.005", "10.01"},
		{".5", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assertAmount(t, tt.want, got)
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, in := range []string{"-5", "+5", "abc", "1.2.3", "12rs", "1e3", "1E-2", "1e200000000", "."} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAmount(in)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}

	_, err := ParseAmount("  ")
	assert.ErrorIs(t, err, ErrRequired)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "date", Value: "31/31/31", Err: ErrInvalidDate}
	assert.Equal(t, `date "31/31/31": invalid date`, err.Error())

	err = &ValidationError{Field: "category", Err: ErrRequired}
	assert.Equal(t, "category: value is required", err.Error())
}
