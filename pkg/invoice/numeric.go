package invoice

import (
	"math"
	"strings"

	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/shopspring/decimal"
)

var maxQuantity = decimal.NewFromInt(math.MaxInt64)

// ParseQuantity reads a quantity input. Non-numeric, non-positive and
// out-of-range input yields 1 together with an ErrInvalidNumericInput error;
// fractions are truncated.
func ParseQuantity(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 1, ierr.WithError(err).
			WithMessagef("quantity %q", raw).
			Mark(ierr.ErrInvalidNumericInput)
	}
	if d.GreaterThan(maxQuantity) {
		return 1, ierr.NewErrorf("quantity %q out of range", raw).Mark(ierr.ErrInvalidNumericInput)
	}
	q := d.Truncate(0).IntPart()
	if q < 1 {
		return 1, ierr.NewErrorf("quantity %q below 1", raw).Mark(ierr.ErrInvalidNumericInput)
	}
	return q, nil
}

// ParseUnitPrice reads a price input. Non-numeric and negative input yields
// zero together with an ErrInvalidNumericInput error.
func ParseUnitPrice(raw string) (decimal.Decimal, error) {
	return parseNonNegative(raw, "price")
}

// ParsePercent reads a tax or discount percentage with the same rules as a
// price. An empty input is zero without error.
func ParsePercent(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return parseNonNegative(raw, "percent")
}

func parseNonNegative(raw, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithMessagef("%s %q", what, raw).
			Mark(ierr.ErrInvalidNumericInput)
	}
	if d.IsNegative() {
		return decimal.Zero, ierr.NewErrorf("%s %q is negative", what, raw).Mark(ierr.ErrInvalidNumericInput)
	}
	return d, nil
}
