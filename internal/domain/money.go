package domain

import (
	"github.com/shopspring/decimal"
)

// minorUnitsPerSom is the number of tiyin in one som.
const minorUnitsPerSom = 100

// ToMinorUnits converts a display amount (som) to tiyin using exact integer
// scaling. Gateways accept amounts in tiyin only; floating accumulation is
// never used for monetary arithmetic.
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Mul(decimal.NewFromInt(minorUnitsPerSom)).Round(0).IntPart()
}

// ToMajorUnits converts tiyin back to a som amount for display.
func ToMajorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(minorUnitsPerSom))
}

// ValidateAmount checks that an amount is positive and carries at most two
// decimal places, so the tiyin conversion is lossless.
func ValidateAmount(major decimal.Decimal) error {
	if !major.IsPositive() {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be positive").
			WithDetail("amount", major.String())
	}
	if major.Exponent() < -2 {
		return NewDomainError(ErrorCodeValidationAmountInvalid, "amount has more than two decimal places").
			WithDetail("amount", major.String())
	}
	return nil
}
