package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		major    string
		expected int64
	}{
		{"whole_som", "500.00", 50000},
		{"with_tiyin", "12.34", 1234},
		{"one_tiyin", "0.01", 1},
		{"single_decimal", "7.5", 750},
		{"no_decimals", "1000", 100000},
		{"large_amount", "99999999.99", 9999999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			major := decimal.RequireFromString(tt.major)
			assert.Equal(t, tt.expected, ToMinorUnits(major))
		})
	}
}

func TestToMajorUnits(t *testing.T) {
	assert.True(t, decimal.RequireFromString("500").Equal(ToMajorUnits(50000)))
	assert.True(t, decimal.RequireFromString("12.34").Equal(ToMajorUnits(1234)))
	assert.True(t, decimal.RequireFromString("0.01").Equal(ToMajorUnits(1)))
}

// TestMoneyRoundTrip verifies the conversion is lossless for two-decimal
// amounts in both directions.
func TestMoneyRoundTrip(t *testing.T) {
	amounts := []string{"0.01", "1.00", "7.5", "500.00", "12345.67"}
	for _, s := range amounts {
		major := decimal.RequireFromString(s)
		assert.True(t, major.Equal(ToMajorUnits(ToMinorUnits(major))),
			"round trip should preserve %s", s)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"positive_whole", "500", false},
		{"positive_two_decimals", "12.34", false},
		{"smallest_amount", "0.01", false},
		{"zero", "0", true},
		{"negative", "-5.00", true},
		{"three_decimals", "1.234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, ErrorCodeValidationAmountInvalid, GetErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
