/*
money.go - Monetary parsing and price validation

PURPOSE:
  Single place where price text enters the system and where the price
  invariant (scale and bounds) is enforced. Catalog creation and every
  subsequent price change run through the same checks.

INVARIANT:
  A valid price has at most two fractional digits and lies within
  [MinPrice, MaxPrice]. Scale is checked on the parsed decimal, not by
  string inspection, so "10.10" and "10.1" both pass while "10.001" fails.

SEE ALSO:
  - catalog.go: Calls ValidatePrice on every write
  - ledger/ledger.go: Re-checks scale on transfer amounts
*/
package shop

import "github.com/shopspring/decimal"

// Price bounds for catalog items. Kept as package variables (not consts,
// decimals cannot be constants) and treated as immutable.
var (
	MinPrice = decimal.RequireFromString("0.01")
	MaxPrice = decimal.RequireFromString("1000.00")
)

// moneyScale is the maximum number of fractional digits in any price.
const moneyScale = 2

// ParsePrice parses price text and validates it as a catalog price.
// Returns ErrInvalidPrice (wrapped with detail) on any violation.
func ParsePrice(text string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, &PriceError{Text: text, Reason: "not a monetary value"}
	}
	if err := ValidatePrice(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidatePrice checks the price invariant on an already-parsed decimal.
func ValidatePrice(d decimal.Decimal) error {
	if !HasValidScale(d) {
		return &PriceError{Text: d.String(), Reason: "more than two fractional digits"}
	}
	if d.LessThan(MinPrice) || d.GreaterThan(MaxPrice) {
		return &PriceError{Text: d.String(), Reason: "outside allowed bounds"}
	}
	return nil
}

// HasValidScale reports whether d has at most two fractional digits.
func HasValidScale(d decimal.Decimal) bool {
	return d.Exponent() >= -moneyScale
}
