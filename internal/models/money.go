package models

import "github.com/shopspring/decimal"

// MinorUnitsPerMajor is the scale of the single supported currency.
const MinorUnitsPerMajor = 100

// MajorUnits converts an amount in minor units to a decimal amount in
// major units (cents to dollars). Ledger arithmetic stays in int64 minor
// units throughout; decimals appear only on outward-facing payloads.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, 0).Div(decimal.New(MinorUnitsPerMajor, 0))
}
